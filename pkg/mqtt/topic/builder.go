package topic

import (
	"fmt"
	"strings"
)

// Constants defining the standard topic segments.
// These act as the contract between the fleet hub and whatever listens to it.
// Changing these values will break compatibility with existing subscribers.
const (
	// SuffixOnline carries retained presence for one vehicle (Hub -> subscribers).
	// Structure: {root}/online/{vehicleID}
	SuffixOnline = "online"

	// SuffixFault is where external monitors report a vehicle fault (monitor -> Hub).
	// Payload: { "reason": "..." } or a plain-text reason.
	// Structure: {root}/fault/{vehicleID}
	SuffixFault = "fault"

	// SuffixHub carries the retained status of the hub itself, including its will message.
	// Structure: {root}/hub/status
	SuffixHub = "hub"
)

// TopicBuilder encapsulates the logic for constructing MQTT topic strings.
type TopicBuilder struct {
	// root is the base namespace for all topics (e.g., "fleet/v1").
	root string
}

// NewTopicBuilder creates a new instance of TopicBuilder with the specified root namespace.
func NewTopicBuilder(root string) *TopicBuilder {
	return &TopicBuilder{root: strings.TrimSuffix(root, "/")}
}

// Online returns the presence topic of a vehicle.
func (b *TopicBuilder) Online(vehicleID string) string {
	return b.build(SuffixOnline, vehicleID)
}

// OnlineWildcard matches the presence topic of every vehicle.
// Result: {root}/online/+
func (b *TopicBuilder) OnlineWildcard() string {
	return b.build(SuffixOnline, Wildcard)
}

// Fault returns the topic a monitor publishes to when vehicleID is faulty.
func (b *TopicBuilder) Fault(vehicleID string) string {
	return b.build(SuffixFault, vehicleID)
}

// FaultWildcard is subscribed by the hub to receive every fault report.
// Result: {root}/fault/+
func (b *TopicBuilder) FaultWildcard() string {
	return b.build(SuffixFault, Wildcard)
}

// HubStatus returns the topic of the hub's own retained status.
func (b *TopicBuilder) HubStatus() string {
	return b.build(SuffixHub, "status")
}

// VehicleID extracts the trailing vehicle ID from a per-vehicle topic built
// with suffix. It returns false for topics outside that family.
func (b *TopicBuilder) VehicleID(suffix, topic string) (string, bool) {
	prefix := b.root + "/" + suffix + "/"
	if !strings.HasPrefix(topic, prefix) {
		return "", false
	}
	id := strings.TrimPrefix(topic, prefix)
	if id == "" || strings.Contains(id, "/") {
		return "", false
	}
	return id, true
}

// build is a private helper to construct the final topic string.
// Pattern: {root}/{suffix}/{identifier}
func (b *TopicBuilder) build(suffix, id string) string {
	return fmt.Sprintf("%s/%s/%s", b.root, suffix, id)
}
