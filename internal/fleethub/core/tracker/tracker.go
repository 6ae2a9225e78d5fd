// Package tracker records which vehicles currently hold a connection.
package tracker

import (
	"slices"

	"github.com/autopeer-io/fleethub/internal/fleethub/core/model"
)

// Tracker is an ordered set of connected vehicles. It is derived state and
// not safe for concurrent use.
type Tracker struct {
	active []*model.Vehicle
}

// New returns an empty tracker.
func New() *Tracker {
	return &Tracker{}
}

// Add appends v unless it is already tracked.
func (t *Tracker) Add(v *model.Vehicle) {
	if v == nil || t.index(v) >= 0 {
		return
	}
	t.active = append(t.active, v)
}

// Remove drops the entry for v. It is safe to call when v is not tracked.
func (t *Tracker) Remove(v *model.Vehicle) {
	if v == nil {
		return
	}
	if i := t.index(v); i >= 0 {
		t.active = slices.Delete(t.active, i, i+1)
	}
}

// Replace puts v in place of old, keeping its position in the connection
// order. v is appended when old is not tracked.
func (t *Tracker) Replace(old, v *model.Vehicle) {
	if v == nil {
		return
	}
	if i := slices.Index(t.active, old); old != nil && i >= 0 {
		t.active[i] = v
		return
	}
	t.Add(v)
}

// List returns a copy of the tracked vehicles in connection order.
func (t *Tracker) List() []*model.Vehicle {
	return slices.Clone(t.active)
}

// Len returns the number of tracked vehicles.
func (t *Tracker) Len() int {
	return len(t.active)
}

// Contains reports whether a vehicle with id is tracked.
func (t *Tracker) Contains(id string) bool {
	return slices.ContainsFunc(t.active, func(v *model.Vehicle) bool { return v.ID == id })
}

// index locates v by identity, falling back to its ID so a reloaded record
// still matches the entry it replaced.
func (t *Tracker) index(v *model.Vehicle) int {
	if i := slices.Index(t.active, v); i >= 0 {
		return i
	}
	return slices.IndexFunc(t.active, func(a *model.Vehicle) bool { return a.ID == v.ID })
}
