package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/fxamacker/cbor/v2"
)

// VehicleType is the closed set of vehicle kinds. It is fixed at creation.
type VehicleType int

const (
	Car VehicleType = iota
	Boat
	Plane
	Drone
)

var vehicleTypeNames = [...]string{
	Car:   "Car",
	Boat:  "Boat",
	Plane: "Plane",
	Drone: "Drone",
}

func (t VehicleType) String() string {
	if t < 0 || int(t) >= len(vehicleTypeNames) {
		return "VehicleType(" + strconv.Itoa(int(t)) + ")"
	}
	return vehicleTypeNames[t]
}

// ParseVehicleType accepts either a type name or its numeric code.
func ParseVehicleType(s string) (VehicleType, error) {
	for i, name := range vehicleTypeNames {
		if name == s {
			return VehicleType(i), nil
		}
	}
	if n, err := strconv.Atoi(s); err == nil && n >= 0 && n < len(vehicleTypeNames) {
		return VehicleType(n), nil
	}
	return 0, fmt.Errorf("unknown vehicle type %q", s)
}

func (t VehicleType) MarshalText() ([]byte, error) {
	if t < 0 || int(t) >= len(vehicleTypeNames) {
		return nil, fmt.Errorf("invalid vehicle type %d", int(t))
	}
	return []byte(t.String()), nil
}

func (t *VehicleType) UnmarshalText(text []byte) error {
	v, err := ParseVehicleType(string(text))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

func (t *VehicleType) UnmarshalJSON(data []byte) error {
	return unmarshalEnumJSON(data, t.UnmarshalText)
}

func (t VehicleType) MarshalCBOR() ([]byte, error) {
	text, err := t.MarshalText()
	if err != nil {
		return nil, err
	}
	return cbor.Marshal(string(text))
}

func (t *VehicleType) UnmarshalCBOR(data []byte) error {
	return unmarshalEnumCBOR(data, t.UnmarshalText)
}

// VehicleStatus is the connection status of a vehicle. The zero value is New.
type VehicleStatus int

const (
	New VehicleStatus = iota
	Online
	Offline
	Error
)

var vehicleStatusNames = [...]string{
	New:     "New",
	Online:  "Online",
	Offline: "Offline",
	Error:   "Error",
}

// legacyStatusCodes maps the numeric codes found in older snapshots.
var legacyStatusCodes = [...]VehicleStatus{Online, Offline, Error, New}

func (s VehicleStatus) String() string {
	if s < 0 || int(s) >= len(vehicleStatusNames) {
		return "VehicleStatus(" + strconv.Itoa(int(s)) + ")"
	}
	return vehicleStatusNames[s]
}

// ParseVehicleStatus accepts either a status name or a legacy numeric code.
func ParseVehicleStatus(s string) (VehicleStatus, error) {
	for i, name := range vehicleStatusNames {
		if name == s {
			return VehicleStatus(i), nil
		}
	}
	if n, err := strconv.Atoi(s); err == nil && n >= 0 && n < len(legacyStatusCodes) {
		return legacyStatusCodes[n], nil
	}
	return 0, fmt.Errorf("unknown vehicle status %q", s)
}

func (s VehicleStatus) MarshalText() ([]byte, error) {
	if s < 0 || int(s) >= len(vehicleStatusNames) {
		return nil, fmt.Errorf("invalid vehicle status %d", int(s))
	}
	return []byte(s.String()), nil
}

func (s *VehicleStatus) UnmarshalText(text []byte) error {
	v, err := ParseVehicleStatus(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

func (s *VehicleStatus) UnmarshalJSON(data []byte) error {
	return unmarshalEnumJSON(data, s.UnmarshalText)
}

func (s VehicleStatus) MarshalCBOR() ([]byte, error) {
	text, err := s.MarshalText()
	if err != nil {
		return nil, err
	}
	return cbor.Marshal(string(text))
}

func (s *VehicleStatus) UnmarshalCBOR(data []byte) error {
	return unmarshalEnumCBOR(data, s.UnmarshalText)
}

// unmarshalEnumJSON accepts a JSON string or a bare integer.
func unmarshalEnumJSON(data []byte, parse func([]byte) error) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return err
		}
		return parse([]byte(name))
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("enum must be a string or an integer: %w", err)
	}
	return parse([]byte(strconv.Itoa(n)))
}

// unmarshalEnumCBOR accepts a CBOR text string or an integer.
func unmarshalEnumCBOR(data []byte, parse func([]byte) error) error {
	var raw any
	if err := cbor.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case string:
		return parse([]byte(v))
	case uint64:
		return parse([]byte(strconv.FormatUint(v, 10)))
	case int64:
		return parse([]byte(strconv.FormatInt(v, 10)))
	default:
		return fmt.Errorf("enum must be a string or an integer, got %T", raw)
	}
}
