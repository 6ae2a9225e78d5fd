package mqtt

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"

	"github.com/autopeer-io/fleethub/pkg/log"
	"github.com/autopeer-io/fleethub/pkg/mqtt/topic"
)

// faultReport is the JSON form of a fault report. A payload that is not a
// JSON object is taken verbatim as the reason.
type faultReport struct {
	Reason string `json:"reason"`
}

func (s *Server) handleFault(ctx context.Context, t string, payload []byte) {
	id, ok := s.topics.VehicleID(topic.SuffixFault, t)
	if !ok {
		log.Warn("Ignoring fault report on unexpected topic", "topic", t)
		return
	}

	reason := parseReason(payload)
	if err := s.faults.Fault(ctx, id, reason); err != nil {
		log.Error(err, "Failed to apply fault report", "vehicleID", id)
	}
}

func parseReason(payload []byte) string {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var report faultReport
		if err := json.Unmarshal(trimmed, &report); err == nil {
			return report.Reason
		}
	}
	return strings.TrimSpace(string(trimmed))
}
