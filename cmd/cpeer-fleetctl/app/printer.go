package app

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/gosuri/uitable"

	"github.com/autopeer-io/fleethub/internal/fleethub/core/model"
)

func printResponse(w io.Writer, format string, data json.RawMessage) error {
	if format == outputJSON {
		var buf bytes.Buffer
		if err := json.Indent(&buf, data, "", "  "); err != nil {
			return err
		}
		buf.WriteByte('\n')
		_, err := w.Write(buf.Bytes())
		return err
	}

	vehicles, err := decodeVehicles(data)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, vehicleTable(vehicles))
	return err
}

// decodeVehicles accepts both result shapes: {"registry": {id: vehicle}} and
// a vehicle array.
func decodeVehicles(data json.RawMessage) ([]*model.Vehicle, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var wrapped struct {
			Registry map[string]*model.Vehicle `json:"registry"`
		}
		if err := json.Unmarshal(trimmed, &wrapped); err != nil {
			return nil, fmt.Errorf("decoding registry: %w", err)
		}
		out := make([]*model.Vehicle, 0, len(wrapped.Registry))
		for _, id := range slices.Sorted(maps.Keys(wrapped.Registry)) {
			out = append(out, wrapped.Registry[id])
		}
		return out, nil
	}

	var out []*model.Vehicle
	if err := json.Unmarshal(trimmed, &out); err != nil {
		return nil, fmt.Errorf("decoding vehicles: %w", err)
	}
	return out, nil
}

func vehicleTable(vehicles []*model.Vehicle) *uitable.Table {
	table := uitable.New()
	table.MaxColWidth = 60
	table.Wrap = true
	table.AddRow("ID", "NAME", "TYPE", "STATUS", "SETTINGS")
	for _, v := range vehicles {
		if v == nil {
			continue
		}
		table.AddRow(v.ID, v.Name, v.Type.String(), v.Status.String(), formatSettings(v.Settings))
	}
	return table
}

func formatSettings(settings map[string]any) string {
	if len(settings) == 0 {
		return "<none>"
	}
	parts := make([]string, 0, len(settings))
	for _, k := range slices.Sorted(maps.Keys(settings)) {
		parts = append(parts, fmt.Sprintf("%s=%v", k, settings[k]))
	}
	return strings.Join(parts, ",")
}
