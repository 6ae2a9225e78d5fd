package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry 是 fleethub 的指标注册表, 由 /metrics 端点暴露
var Registry = prometheus.NewRegistry()

// 定义指标变量
var (
	// ActiveVehicles 记录当前持有连接的车辆数量 (Active Tracker 的长度)
	ActiveVehicles = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "fleethub_active_vehicles",
			Help: "Number of vehicles currently holding a connection.",
		},
	)

	// RegisteredVehicles 记录注册表中的车辆数量
	RegisteredVehicles = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "fleethub_registered_vehicles",
			Help: "Number of vehicles in the registry.",
		},
	)

	// AuthRejectionsTotal 记录被拒绝的握手次数
	AuthRejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleethub_auth_rejections_total",
			Help: "Total number of rejected connection handshakes.",
		},
		[]string{"reason"}, // reason: no_id/unknown_id
	)

	// CommandsTotal 记录命令分发次数
	CommandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleethub_commands_total",
			Help: "Total number of dispatched commands.",
		},
		[]string{"command", "result"}, // result: ok/error; 未注册的命令统一记为 unknown
	)

	// SnapshotWritesTotal 记录快照写入次数
	SnapshotWritesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleethub_snapshot_writes_total",
			Help: "Total number of registry snapshot writes.",
		},
		[]string{"result"},
	)

	// SnapshotWriteDuration 记录快照编码与写盘耗时
	SnapshotWriteDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fleethub_snapshot_write_duration_seconds",
			Help:    "Latency of encoding and writing a registry snapshot.",
			Buckets: prometheus.DefBuckets,
		},
	)

	// PresenceDroppedTotal 记录因队列已满而丢弃的在线状态通知
	PresenceDroppedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fleethub_presence_dropped_total",
			Help: "Total number of presence notifications dropped because the queue was full.",
		},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		ActiveVehicles,
		RegisteredVehicles,
		AuthRejectionsTotal,
		CommandsTotal,
		SnapshotWritesTotal,
		SnapshotWriteDuration,
		PresenceDroppedTotal,
	)
}
