package hub

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/autopeer-io/fleethub/internal/fleethub/core/model"
	"github.com/autopeer-io/fleethub/pkg/log"
)

// RegisterCar registers a new Car and returns a copy of it.
// Persisting the change is left to the caller.
func (h *Hub) RegisterCar(ctx context.Context, id, name string, settings map[string]any, info map[string]string) (*model.Vehicle, error) {
	var (
		out *model.Vehicle
		err error
	)
	if derr := h.do(ctx, func() {
		var v *model.Vehicle
		if v, err = h.registry.RegisterCar(id, name, settings, info); err == nil {
			h.rebind(id)
			out = v.Clone()
			h.updateGauges()
			log.Info("Vehicle registered", "vehicleID", id, "name", name)
		}
	}); derr != nil {
		return nil, derr
	}
	return out, err
}

// DeleteCar removes id from the registry. A connected vehicle stays tracked
// until its sessions close or a new record is registered under id.
func (h *Hub) DeleteCar(ctx context.Context, id string) error {
	return h.do(ctx, func() {
		if !h.registry.IsRegistered(id) {
			return
		}
		h.registry.DeleteCar(id)
		h.updateGauges()
		log.Info("Vehicle deleted", "vehicleID", id, "connected", h.online[id] > 0)
	})
}

// Fault moves id to the Error status. The vehicle leaves Error on its next
// successful login or when its last session closes.
func (h *Hub) Fault(ctx context.Context, id, reason string) error {
	var err error
	if derr := h.do(ctx, func() {
		var found []*model.Vehicle
		if found, err = h.registry.GetByID(id); err != nil {
			return
		}
		v := found[0]
		if err = model.NewStatusMachine(v).Fault(context.Background()); err != nil {
			err = fmt.Errorf("marking vehicle %s faulty: %w", id, err)
			return
		}
		h.notify(v)
		log.Warn("Vehicle fault reported", "vehicleID", id, "reason", reason)
	}); derr != nil {
		return derr
	}
	return err
}

// Dispatch runs a command outside of any vehicle session and returns the
// JSON encoding of its result.
func (h *Hub) Dispatch(ctx context.Context, name string, args []string) (json.RawMessage, error) {
	var (
		out json.RawMessage
		err error
	)
	if derr := h.do(ctx, func() { out, err = h.dispatch(name, args) }); derr != nil {
		return nil, derr
	}
	return out, err
}

// Vehicle returns a copy of the vehicle registered under id.
func (h *Hub) Vehicle(ctx context.Context, id string) (*model.Vehicle, error) {
	var (
		out *model.Vehicle
		err error
	)
	if derr := h.do(ctx, func() {
		var found []*model.Vehicle
		if found, err = h.registry.GetByID(id); err == nil {
			out = found[0].Clone()
		}
	}); derr != nil {
		return nil, derr
	}
	return out, err
}

// ActiveIDs returns the IDs of the tracked vehicles in connection order.
func (h *Hub) ActiveIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := h.do(ctx, func() {
		for _, v := range h.tracker.List() {
			ids = append(ids, v.ID)
		}
	})
	return ids, err
}
