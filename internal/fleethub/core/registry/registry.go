// Package registry holds the authoritative set of known vehicles.
//
// A Registry is not safe for concurrent use. The hub owns exactly one and
// touches it only from its event loop.
package registry

import (
	"errors"
	"fmt"
	"io/fs"
	"maps"

	"github.com/autopeer-io/fleethub/internal/fleethub/core/model"
	"github.com/autopeer-io/fleethub/internal/fleethub/store"
)

// Registry maps vehicle ID to the vehicle it owns.
type Registry struct {
	vehicles map[string]*model.Vehicle
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{vehicles: make(map[string]*model.Vehicle)}
}

// IsRegistered reports whether id is a key in the registry.
func (r *Registry) IsRegistered(id string) bool {
	_, ok := r.vehicles[id]
	return ok
}

// GetByID resolves every id in order. It fails on the first unregistered ID
// and returns no partial result.
func (r *Registry) GetByID(ids ...string) ([]*model.Vehicle, error) {
	out := make([]*model.Vehicle, 0, len(ids))
	for _, id := range ids {
		v, ok := r.vehicles[id]
		if !ok {
			return nil, &NotFoundError{ID: id}
		}
		out = append(out, v)
	}
	return out, nil
}

// RegisterCar creates a Car in the New status. An existing vehicle with the
// same ID is left untouched and DuplicateIDError is returned.
func (r *Registry) RegisterCar(id, name string, settings map[string]any, info map[string]string) (*model.Vehicle, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: empty ID", ErrInvalidVehicle)
	}
	if r.IsRegistered(id) {
		return nil, &DuplicateIDError{ID: id}
	}
	for key, value := range settings {
		switch value.(type) {
		case string, bool:
		default:
			return nil, fmt.Errorf("%w: setting %q must be a string or a bool, got %T", ErrInvalidVehicle, key, value)
		}
	}

	v := model.NewCar(id, name, settings, info)
	r.vehicles[id] = v
	return v, nil
}

// DeleteCar removes id. Removing an absent ID is not an error.
func (r *Registry) DeleteCar(id string) {
	delete(r.vehicles, id)
}

// All returns a copy of the ID map. The vehicles themselves are shared.
func (r *Registry) All() map[string]*model.Vehicle {
	return maps.Clone(r.vehicles)
}

// Len returns the number of registered vehicles.
func (r *Registry) Len() int {
	return len(r.vehicles)
}

// Snapshot returns a deep copy suitable for encoding off the event loop.
func (r *Registry) Snapshot() store.Snapshot {
	snap := make(store.Snapshot, len(r.vehicles))
	for id, v := range r.vehicles {
		snap[id] = v.Clone()
	}
	return snap
}

// Replace swaps the whole map for snap.
func (r *Registry) Replace(snap store.Snapshot) {
	r.vehicles = make(map[string]*model.Vehicle, len(snap))
	for id, v := range snap {
		r.vehicles[id] = v
	}
}

// Merge brings the registry in line with snap. Vehicles present in both keep
// their pointer and runtime status while name, settings and info are taken
// from snap. It returns the IDs that were added and removed.
func (r *Registry) Merge(snap store.Snapshot) (added, removed []string) {
	for id, next := range snap {
		cur, ok := r.vehicles[id]
		if !ok {
			r.vehicles[id] = next
			added = append(added, id)
			continue
		}
		cur.Name = next.Name
		cur.Settings = maps.Clone(next.Settings)
		cur.Info = maps.Clone(next.Info)
		cur.Normalize()
	}
	for id := range r.vehicles {
		if _, ok := snap[id]; !ok {
			delete(r.vehicles, id)
			removed = append(removed, id)
		}
	}
	return added, removed
}

// Load replaces the registry with the snapshot at path. A missing snapshot
// leaves the registry as it is. A malformed one returns ErrCorruptSnapshot.
func (r *Registry) Load(path string) error {
	_, snap, err := store.Read(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("loading registry from %s: %w", path, err)
	}
	r.Replace(snap)
	return nil
}

// Save writes the whole registry to path, replacing any previous content.
func (r *Registry) Save(path string) error {
	if _, err := store.Write(path, r.Snapshot()); err != nil {
		return fmt.Errorf("saving registry to %s: %w", path, err)
	}
	return nil
}
