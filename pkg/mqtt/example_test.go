package mqtt_test

import (
	"context"
	"fmt"
	"time"

	"github.com/autopeer-io/fleethub/pkg/log"
	"github.com/autopeer-io/fleethub/pkg/mqtt"
	"github.com/autopeer-io/fleethub/pkg/mqtt/topic"
)

// ExampleClient 展示了 fleethub MQTT 组件的标准使用流程:
// 发布车辆在线状态, 并订阅外部监控上报的故障。
func ExampleClient() {
	topics := topic.NewTopicBuilder("fleet/v1")

	// 1. 准备配置
	// 在实际应用中, 这些值通常来自 pkg/options 或 CLI 参数
	cfg := &mqtt.ClientConfig{
		BrokerURL:      "tcp://localhost:1883",
		ClientID:       "cpeer-fleethub-example",
		KeepAlive:      60,
		ConnectTimeout: 5 * time.Second,
		CleanStart:     true,
		// Broker 在 hub 异常掉线时代为发布 offline
		WillTopic:   topics.HubStatus(),
		WillPayload: []byte(`{"online":false}`),
		WillQoS:     1,
		WillRetain:  true,
	}

	// 2. 创建客户端实例, 此时尚未建立连接
	client, err := mqtt.NewClient(cfg)
	if err != nil {
		log.Error(err, "Failed to create MQTT client")
		return
	}

	// 3. 启动客户端 (非阻塞, 后台自动重连)
	ctx := context.Background()
	if err := client.Start(ctx); err != nil {
		log.Error(err, "Failed to start MQTT client")
		return
	}

	// 4. 订阅故障上报, 通配符匹配所有车辆
	onFault := func(ctx context.Context, t string, payload []byte) {
		if id, ok := topics.VehicleID(topic.SuffixFault, t); ok {
			fmt.Printf("vehicle %s reported a fault: %s\n", id, payload)
		}
	}
	if err := client.Subscribe(ctx, topics.FaultWildcard(), 1, onFault); err != nil {
		log.Error(err, "Failed to subscribe", "topic", topics.FaultWildcard())
	}

	// 5. 等待连接就绪
	if err := client.AwaitConnection(ctx); err != nil {
		log.Error(err, "Connection timed out")
		return
	}

	// 6. 发布保留的在线状态
	payload := []byte(`{"vehicleId":"AAA","online":true,"status":"Online"}`)
	if err := client.Publish(ctx, topics.Online("AAA"), 1, true, payload); err != nil {
		log.Error(err, "Failed to publish presence", "vehicleID", "AAA")
	}

	// 7. 优雅关闭
	client.Disconnect(ctx)
}
