package topic

import "strings"

// Standard MQTT wildcard definitions.
const (
	// Wildcard is the single-level wildcard "+".
	// It matches exactly one topic level.
	// Example: "fleet/v1/online/+" matches "fleet/v1/online/AAA".
	Wildcard = "+"

	// MultiWildcard is the multi-level wildcard "#".
	// It matches the current level and all subsequent levels.
	// It must be the last character in the topic filter.
	// Example: "fleet/v1/#" matches "fleet/v1/fault/AAA".
	MultiWildcard = "#"

	sharePrefix = "$share/"
)

// Match reports whether topic matches filter, honoring both wildcards.
func Match(filter, topic string) bool {
	if filter == topic {
		return true
	}
	if !strings.Contains(filter, Wildcard) && !strings.Contains(filter, MultiWildcard) {
		return false
	}

	filterParts := strings.Split(filter, "/")
	topicParts := strings.Split(topic, "/")

	for i, part := range filterParts {
		if part == MultiWildcard {
			return true
		}
		if i >= len(topicParts) {
			return false
		}
		if part != Wildcard && part != topicParts[i] {
			return false
		}
	}

	return len(filterParts) == len(topicParts)
}

// StripShare removes the "$share/<group>/" prefix of a shared subscription.
func StripShare(filter string) string {
	if strings.HasPrefix(filter, sharePrefix) {
		parts := strings.SplitN(filter, "/", 3)
		if len(parts) == 3 {
			return parts[2]
		}
	}
	return filter
}
