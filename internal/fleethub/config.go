package fleethub

import (
	"errors"
	"fmt"

	"github.com/autopeer-io/fleethub/internal/fleethub/core/registry"
	"github.com/autopeer-io/fleethub/internal/fleethub/hub"
	"github.com/autopeer-io/fleethub/internal/fleethub/notifier"
	"github.com/autopeer-io/fleethub/internal/fleethub/server"
	"github.com/autopeer-io/fleethub/internal/fleethub/server/grpc"
	"github.com/autopeer-io/fleethub/internal/fleethub/server/http"
	"github.com/autopeer-io/fleethub/internal/fleethub/server/mqtt"
	"github.com/autopeer-io/fleethub/internal/fleethub/server/ws"
	"github.com/autopeer-io/fleethub/internal/fleethub/storage"
	"github.com/autopeer-io/fleethub/internal/fleethub/watcher"
	"github.com/autopeer-io/fleethub/pkg/log"
	pkgmqtt "github.com/autopeer-io/fleethub/pkg/mqtt"
	"github.com/autopeer-io/fleethub/pkg/mqtt/topic"
	"github.com/autopeer-io/fleethub/pkg/options"
)

type Config struct {
	WsOptions    *options.WsOptions
	StoreOptions *options.StoreOptions
	HttpOptions  *options.HttpOptions
	GrpcOptions  *options.GrpcOptions
	MqttOptions  *options.MqttOptions
	S3Options    *options.S3Options
}

// NewFleetHub loads the registry and wires the hub with its servers. A corrupt
// snapshot is returned as an error so the process exits.
func (cfg *Config) NewFleetHub() (*FleetHub, error) {
	path := cfg.StoreOptions.Path

	// 1. Core state
	reg := registry.New()
	if err := reg.Load(path); err != nil {
		return nil, err
	}
	log.Info("Registry loaded", "path", path, "vehicles", reg.Len())

	var (
		hubOpts []hub.Option
		servers []server.Server
		backup  *storage.MinIO
	)

	// 2. Infrastructure: Storage (Secondary Adapter)
	if cfg.S3Options.Enabled() {
		var err error
		if backup, err = storage.NewMinIO(cfg.S3Options, path); err != nil {
			return nil, err
		}
		hubOpts = append(hubOpts, hub.WithBackup(backup))
	}

	// 3. Infrastructure: Notifier (Secondary Adapter)
	var topics *topic.TopicBuilder
	if cfg.MqttOptions.Enabled() {
		topics = topic.NewTopicBuilder(cfg.MqttOptions.TopicRoot)

		// Egress gets its own client ID.
		notifierCfg := cfg.MqttOptions.ToClientConfig()
		notifierCfg.ClientID += "-notifier"
		notifierClient, err := pkgmqtt.NewClient(notifierCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to init notifier mqtt client: %w", err)
		}
		presence := notifier.NewMQTTNotifier(notifierClient, topics, cfg.MqttOptions.QueueSize)
		hubOpts = append(hubOpts, hub.WithNotifier(presence))
		servers = append(servers, presence)
	}

	// 4. The hub owns the registry from here on
	h := hub.New(reg, path, hubOpts...)

	// 5. Ingress Servers (Primary Adapters)
	servers = append(servers,
		ws.NewServer(cfg.WsOptions, h),
		http.NewServer(cfg.HttpOptions, readiness(h)),
	)
	if !cfg.GrpcOptions.Disabled {
		servers = append(servers, grpc.NewServer(cfg.GrpcOptions, h))
	}
	if topics != nil {
		ingressCfg := cfg.MqttOptions.ToClientConfig()
		ingressCfg.WillTopic = topics.HubStatus()
		ingressCfg.WillPayload = mqtt.StatusPayload(false)
		ingressCfg.WillQoS = 1
		ingressCfg.WillRetain = true
		ingressClient, err := pkgmqtt.NewClient(ingressCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to init mqtt client: %w", err)
		}
		servers = append(servers, mqtt.NewServer(ingressClient, topics, h))
	}
	if cfg.StoreOptions.Watch {
		servers = append(servers, watcher.New(path, cfg.StoreOptions.WatchDebounce, h))
	}

	return &FleetHub{
		hub:           h,
		serverManager: server.NewManager(servers...),
		backup:        backup,
		seedExample:   cfg.StoreOptions.SeedExample,
	}, nil
}

var errHubStopped = errors.New("hub event loop stopped")

func readiness(h *hub.Hub) http.ReadyFunc {
	return func() error {
		select {
		case <-h.Stopped():
			return errHubStopped
		default:
			return nil
		}
	}
}
