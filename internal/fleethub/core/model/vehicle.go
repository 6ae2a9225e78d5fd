package model

import "maps"

// Vehicle is the record for one fleet member.
// Only the registry constructs and deletes vehicles.
type Vehicle struct {
	// ID is the unique identifier of the vehicle. It never changes.
	ID string `json:"id" yaml:"id" cbor:"id"`

	// Name is a human-readable name.
	Name string `json:"name" yaml:"name" cbor:"name"`

	// Type is fixed at creation.
	Type VehicleType `json:"type" yaml:"type" cbor:"type"`

	// Status is driven by StatusMachine.
	Status VehicleStatus `json:"status" yaml:"status" cbor:"status"`

	// Settings is a vehicle-defined bag of string or bool values.
	Settings map[string]any `json:"settings" yaml:"settings" cbor:"settings"`

	// Info holds descriptive metadata.
	Info map[string]string `json:"info" yaml:"info" cbor:"info"`
}

// NewCar returns a Car in the New status. Nil maps are replaced by empty ones.
func NewCar(id, name string, settings map[string]any, info map[string]string) *Vehicle {
	v := &Vehicle{
		ID:       id,
		Name:     name,
		Type:     Car,
		Status:   New,
		Settings: maps.Clone(settings),
		Info:     maps.Clone(info),
	}
	v.Normalize()
	return v
}

// Normalize makes sure the metadata maps are never nil.
func (v *Vehicle) Normalize() {
	if v.Settings == nil {
		v.Settings = map[string]any{}
	}
	if v.Info == nil {
		v.Info = map[string]string{}
	}
}

// Clone returns a copy that shares no maps with v.
func (v *Vehicle) Clone() *Vehicle {
	if v == nil {
		return nil
	}
	c := *v
	c.Settings = maps.Clone(v.Settings)
	c.Info = maps.Clone(v.Info)
	c.Normalize()
	return &c
}

// IsOnline reports whether the vehicle currently holds a connection.
func (v *Vehicle) IsOnline() bool {
	return v.Status == Online
}
