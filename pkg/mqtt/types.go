package mqtt

import (
	"context"
)

// MessageHandler is invoked for every message delivered on a subscribed filter.
// topic is the concrete topic, e.g. "fleet/v1/fault/AAA" for the filter
// "fleet/v1/fault/+".
type MessageHandler func(ctx context.Context, topic string, payload []byte)

// Client is the broker connection shared by the fleet hub's MQTT parts: the
// presence notifier publishes retained online documents through it and the
// fault ingress subscribes to fault reports.
type Client interface {
	// Start begins connecting in the background and returns at once.
	// Use AwaitConnection to wait for the first CONNACK.
	Start(ctx context.Context) error

	// Disconnect sends DISCONNECT, so the broker does not publish the will.
	Disconnect(ctx context.Context)

	// Publish sends payload to topic. Presence documents use qos 1 and retain.
	Publish(ctx context.Context, topic string, qos int, retain bool, payload []byte) error

	// Subscribe routes messages matching the filter topic to handler.
	// Subscriptions are restored after a reconnect.
	Subscribe(ctx context.Context, topic string, qos int, handler MessageHandler) error

	// Unsubscribe drops the handler of topic and tells the broker.
	Unsubscribe(ctx context.Context, topic string) error

	// AwaitConnection blocks until the client is connected or ctx is done.
	AwaitConnection(ctx context.Context) error

	// IsConnected reports whether a broker connection is currently up.
	IsConnected() bool
}
