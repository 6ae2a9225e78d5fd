package model

import (
	"context"

	"github.com/looplab/fsm"

	fsmutil "github.com/autopeer-io/fleethub/internal/pkg/util/fsm"
)

const (
	// EventConnect moves a vehicle Online. Only the authentication success path fires it.
	EventConnect = "connect"
	// EventDisconnect moves a vehicle Offline when its last connection closes.
	EventDisconnect = "disconnect"
	// EventFault marks a vehicle as faulty from any state.
	EventFault = "fault"
)

var statusEvents = fsm.Events{
	{Name: EventConnect, Src: []string{New.String(), Offline.String(), Error.String(), Online.String()}, Dst: Online.String()},
	{Name: EventDisconnect, Src: []string{Online.String(), Error.String()}, Dst: Offline.String()},
	{Name: EventFault, Src: []string{New.String(), Online.String(), Offline.String(), Error.String()}, Dst: Error.String()},
}

// StatusMachine drives the Status field of one vehicle.
type StatusMachine struct {
	*fsm.FSM

	vehicle *Vehicle
}

// NewStatusMachine returns a machine positioned at the vehicle's current status.
func NewStatusMachine(v *Vehicle) *StatusMachine {
	m := &StatusMachine{vehicle: v}

	callbacks := fsm.Callbacks{
		"enter_state": fsmutil.WrapEvent(m.actionEnterState),
	}

	m.FSM = fsm.NewFSM(v.Status.String(), statusEvents, callbacks)
	return m
}

// Connect fires EventConnect. A vehicle that is already Online stays Online.
func (m *StatusMachine) Connect(ctx context.Context) error {
	return fsmutil.IgnoreNoTransition(m.Event(ctx, EventConnect))
}

// Disconnect fires EventDisconnect.
func (m *StatusMachine) Disconnect(ctx context.Context) error {
	return fsmutil.IgnoreNoTransition(m.Event(ctx, EventDisconnect))
}

// Fault fires EventFault.
func (m *StatusMachine) Fault(ctx context.Context) error {
	return fsmutil.IgnoreNoTransition(m.Event(ctx, EventFault))
}

// actionEnterState writes the destination state back onto the vehicle.
func (m *StatusMachine) actionEnterState(_ context.Context, e *fsm.Event) error {
	status, err := ParseVehicleStatus(e.Dst)
	if err != nil {
		return err
	}
	m.vehicle.Status = status
	return nil
}
