// Package notifier publishes vehicle presence changes to MQTT.
package notifier

import (
	"context"
	"encoding/json"
	"time"

	"github.com/autopeer-io/fleethub/internal/fleethub/hub"
	"github.com/autopeer-io/fleethub/internal/pkg/metrics"
	"github.com/autopeer-io/fleethub/pkg/log"
	pkgmqtt "github.com/autopeer-io/fleethub/pkg/mqtt"
	"github.com/autopeer-io/fleethub/pkg/mqtt/topic"
)

var _ hub.Notifier = (*MQTTNotifier)(nil)

const (
	defaultQueueSize     = 1024
	defaultFlushInterval = 200 * time.Millisecond
	publishQoS           = 1
)

// Publisher is the part of the MQTT client the notifier needs.
type Publisher interface {
	Start(ctx context.Context) error
	Publish(ctx context.Context, topic string, qos int, retain bool, payload []byte) error
	Disconnect(ctx context.Context)
}

var _ Publisher = (pkgmqtt.Client)(nil)

// MQTTNotifier is a write-merging buffer in front of the broker. Notify never
// blocks the hub; only the latest presence per vehicle is published on each flush.
type MQTTNotifier struct {
	client Publisher
	topics *topic.TopicBuilder

	// inputCh is the channel where presence changes are pushed.
	inputCh chan hub.Presence

	// buffer stores the latest presence for each vehicle ID.
	buffer map[string]hub.Presence

	flushInterval time.Duration
}

// NewMQTTNotifier builds a notifier publishing under topics.
func NewMQTTNotifier(client Publisher, topics *topic.TopicBuilder, queueSize int) *MQTTNotifier {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	return &MQTTNotifier{
		client:        client,
		topics:        topics,
		inputCh:       make(chan hub.Presence, queueSize),
		buffer:        make(map[string]hub.Presence),
		flushInterval: defaultFlushInterval,
	}
}

// Notify queues p. It is non-blocking and drops p when the queue is full.
func (n *MQTTNotifier) Notify(p hub.Presence) {
	select {
	case n.inputCh <- p:
	default:
		// Load shedding: a later presence of the same vehicle supersedes this one anyway.
		metrics.PresenceDroppedTotal.Inc()
		log.Warn("Presence queue full, dropping notification", "vehicleID", p.VehicleID)
	}
}

// Start connects the client and publishes until ctx is canceled. Presence
// still buffered at that point is flushed before the client disconnects.
func (n *MQTTNotifier) Start(ctx context.Context) error {
	if err := n.client.Start(ctx); err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		n.drain()
		n.flush(shutdownCtx)
		n.client.Disconnect(shutdownCtx)
	}()

	ticker := time.NewTicker(n.flushInterval)
	defer ticker.Stop()

	log.Info("Presence notifier started", "interval", n.flushInterval)

	for {
		select {
		case p := <-n.inputCh:
			// MERGE STRATEGY: last write wins.
			n.buffer[p.VehicleID] = p
		case <-ticker.C:
			if len(n.buffer) > 0 {
				n.flush(ctx)
			}
		case <-ctx.Done():
			return nil
		}
	}
}

// drain moves whatever is still queued into the buffer.
func (n *MQTTNotifier) drain() {
	for {
		select {
		case p := <-n.inputCh:
			n.buffer[p.VehicleID] = p
		default:
			return
		}
	}
}

// flush publishes every buffered presence as a retained message.
func (n *MQTTNotifier) flush(ctx context.Context) {
	count := 0
	for id, p := range n.buffer {
		payload, err := json.Marshal(p)
		if err != nil {
			log.Error(err, "Failed to encode presence", "vehicleID", id)
			continue
		}
		if err := n.client.Publish(ctx, n.topics.Online(id), publishQoS, true, payload); err != nil {
			log.Error(err, "Failed to publish presence", "vehicleID", id)
			continue
		}
		count++
	}

	n.buffer = make(map[string]hub.Presence)
	log.Debug("Presence notifier flushed", "published", count)
}
