package mqtt

import (
	"context"
	"fmt"
	"time"

	"github.com/autopeer-io/fleethub/pkg/log"
	pkgmqtt "github.com/autopeer-io/fleethub/pkg/mqtt"
	"github.com/autopeer-io/fleethub/pkg/mqtt/topic"
)

const subscribeQoS = 1

// FaultHandler receives faults reported by external monitors.
type FaultHandler interface {
	Fault(ctx context.Context, id, reason string) error
}

// Server implements the MQTT ingress layer.
type Server struct {
	client pkgmqtt.Client
	topics *topic.TopicBuilder
	faults FaultHandler
}

// NewServer creates a new MQTT server (client).
func NewServer(client pkgmqtt.Client, builder *topic.TopicBuilder, faults FaultHandler) *Server {
	return &Server{
		client: client,
		topics: builder,
		faults: faults,
	}
}

// Start connects to the broker, announces the hub and subscribes to fault reports.
// It blocks until ctx is canceled.
func (s *Server) Start(ctx context.Context) error {
	// 1. Start the connection manager (Non-blocking)
	if err := s.client.Start(ctx); err != nil {
		return err
	}

	// Ensure MQTT disconnects when Run exits (LIFO order)
	defer func() {
		log.Info("Disconnecting MQTT client...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		// 停止接收故障上报, 再宣告 hub 下线
		if s.client.IsConnected() {
			if err := s.client.Unsubscribe(shutdownCtx, s.topics.FaultWildcard()); err != nil {
				log.Warn("Failed to unsubscribe from fault reports", "error", err)
			}
		}
		if err := s.client.Publish(shutdownCtx, s.topics.HubStatus(), subscribeQoS, true, StatusPayload(false)); err != nil {
			log.Warn("Failed to publish hub offline status", "error", err)
		}
		s.client.Disconnect(shutdownCtx)
		log.Info("MQTT client disconnected")
	}()

	// 2. Wait for the initial connection to be established
	log.Info("Waiting for MQTT connection...")
	if err := s.client.AwaitConnection(ctx); err != nil {
		return err
	}
	log.Info("MQTT Connected")

	if err := s.client.Publish(ctx, s.topics.HubStatus(), subscribeQoS, true, StatusPayload(true)); err != nil {
		log.Warn("Failed to publish hub online status", "error", err)
	}

	if err := s.initMQTTSubscriptions(ctx); err != nil {
		return err
	}

	<-ctx.Done()

	return nil
}

func (s *Server) initMQTTSubscriptions(ctx context.Context) error {
	fullTopic := s.topics.FaultWildcard()
	if err := s.client.Subscribe(ctx, fullTopic, subscribeQoS, s.handleFault); err != nil {
		return fmt.Errorf("failed to subscribe to topic: %s, err: %w", fullTopic, err)
	}
	return nil
}

// StatusPayload is the retained document announcing whether the hub is up.
// It doubles as the broker will message.
func StatusPayload(online bool) []byte {
	if online {
		return []byte(`{"online":true}`)
	}
	return []byte(`{"online":false}`)
}

