// Package dispatch maps request command names to handlers.
//
// Only names present in the handler map can be invoked. Matching is exact
// and case-sensitive.
package dispatch

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/autopeer-io/fleethub/internal/fleethub/core/model"
)

const (
	CmdGetAll    = "getAll"
	CmdGetActive = "getActive"
	CmdGetCars   = "getCars"
	CmdGetID     = "getID"
)

var (
	// ErrUnrecognizedCommand matches every UnrecognizedCommandError.
	ErrUnrecognizedCommand = errors.New("unrecognized command")
	// ErrHandlerExists is returned when a name is registered twice.
	ErrHandlerExists = errors.New("handler already registered")
)

// UnrecognizedCommandError names a command that has no handler.
type UnrecognizedCommandError struct {
	Name string
}

func (e *UnrecognizedCommandError) Error() string {
	return fmt.Sprintf("the command %q was not recognized", e.Name)
}

func (e *UnrecognizedCommandError) Is(target error) bool { return target == ErrUnrecognizedCommand }

// Kind tags the payload carried by a Result.
type Kind int

const (
	KindRegistry Kind = iota + 1
	KindVehicles
)

// Result is the value returned by a handler.
type Result struct {
	Kind     Kind
	Registry map[string]*model.Vehicle
	Vehicles []*model.Vehicle
}

// MarshalJSON encodes a registry result as {"registry": {...}} and a vehicle
// result as an array.
func (r Result) MarshalJSON() ([]byte, error) {
	switch r.Kind {
	case KindRegistry:
		registry := r.Registry
		if registry == nil {
			registry = map[string]*model.Vehicle{}
		}
		return json.Marshal(struct {
			Registry map[string]*model.Vehicle `json:"registry"`
		}{registry})
	case KindVehicles:
		vehicles := r.Vehicles
		if vehicles == nil {
			vehicles = []*model.Vehicle{}
		}
		return json.Marshal(vehicles)
	default:
		return []byte("null"), nil
	}
}

// Handler runs one command with the positional arguments that followed its name.
type Handler func(args []string) (Result, error)

// Registry is the registry state read by the built-in commands.
type Registry interface {
	All() map[string]*model.Vehicle
	GetByID(ids ...string) ([]*model.Vehicle, error)
}

// Active is the tracker state read by the built-in commands.
type Active interface {
	List() []*model.Vehicle
}

// Dispatcher holds the command table.
type Dispatcher struct {
	handlers map[string]Handler
}

// New returns a Dispatcher with the built-in commands bound to reg and active.
func New(reg Registry, active Active) *Dispatcher {
	d := &Dispatcher{handlers: make(map[string]Handler)}

	getActive := func([]string) (Result, error) {
		return Result{Kind: KindVehicles, Vehicles: active.List()}, nil
	}

	d.handlers[CmdGetAll] = func([]string) (Result, error) {
		return Result{Kind: KindRegistry, Registry: reg.All()}, nil
	}
	d.handlers[CmdGetActive] = getActive
	// getCars is the historical name of getActive.
	d.handlers[CmdGetCars] = getActive
	d.handlers[CmdGetID] = func(args []string) (Result, error) {
		vehicles, err := reg.GetByID(args...)
		if err != nil {
			return Result{}, err
		}
		return Result{Kind: KindVehicles, Vehicles: vehicles}, nil
	}
	return d
}

// Register adds a command. Existing names cannot be overridden.
func (d *Dispatcher) Register(name string, h Handler) error {
	if _, ok := d.handlers[name]; ok {
		return fmt.Errorf("%w: %s", ErrHandlerExists, name)
	}
	d.handlers[name] = h
	return nil
}

// Dispatch invokes the handler registered under name.
func (d *Dispatcher) Dispatch(name string, args []string) (Result, error) {
	h, ok := d.handlers[name]
	if !ok {
		return Result{}, &UnrecognizedCommandError{Name: name}
	}
	return h(args)
}

// Knows reports whether name has a handler.
func (d *Dispatcher) Knows(name string) bool {
	_, ok := d.handlers[name]
	return ok
}

// Commands returns the registered names in sorted order.
func (d *Dispatcher) Commands() []string {
	names := make([]string, 0, len(d.handlers))
	for name := range d.handlers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
