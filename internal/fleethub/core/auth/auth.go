// Package auth implements the gate every connection passes before it may send requests.
package auth

import (
	"github.com/autopeer-io/fleethub/internal/fleethub/core/model"
)

// Error is an authentication rejection. Its message is shown to the client.
type Error struct {
	Reason string
}

func (e *Error) Error() string { return e.Reason }

var (
	// ErrNoID rejects a handshake without an ID.
	ErrNoID = &Error{Reason: "no ID was specified"}
	// ErrUnknownID rejects a handshake whose ID is not registered.
	ErrUnknownID = &Error{Reason: "the specified ID does not exist"}
)

// Lookup is the part of the registry the authenticator needs.
type Lookup interface {
	IsRegistered(id string) bool
	GetByID(ids ...string) ([]*model.Vehicle, error)
}

// Authenticator resolves a claimed vehicle ID against the registry.
type Authenticator struct {
	vehicles Lookup
}

// New returns an Authenticator backed by vehicles.
func New(vehicles Lookup) *Authenticator {
	return &Authenticator{vehicles: vehicles}
}

// Authenticate returns the vehicle for claimedID or a *Error.
// A non-nil vehicle is returned only on success.
func (a *Authenticator) Authenticate(claimedID string) (*model.Vehicle, error) {
	if claimedID == "" {
		return nil, ErrNoID
	}
	if !a.vehicles.IsRegistered(claimedID) {
		return nil, ErrUnknownID
	}

	found, err := a.vehicles.GetByID(claimedID)
	if err != nil || len(found) != 1 || found[0] == nil {
		return nil, ErrUnknownID
	}
	return found[0], nil
}
