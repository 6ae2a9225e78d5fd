package registry

import (
	"errors"
	"fmt"

	"github.com/autopeer-io/fleethub/internal/fleethub/store"
)

var (
	// ErrNotFound matches every NotFoundError.
	ErrNotFound = errors.New("vehicle not found")
	// ErrDuplicateID matches every DuplicateIDError.
	ErrDuplicateID = errors.New("vehicle already registered")
	// ErrInvalidVehicle is returned for registrations the registry refuses to store.
	ErrInvalidVehicle = errors.New("invalid vehicle")
	// ErrCorruptSnapshot is returned by Load when the snapshot cannot be trusted.
	ErrCorruptSnapshot = store.ErrCorrupt
)

// NotFoundError reports a lookup of an unregistered ID.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("vehicle with ID %s does not exist", e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// DuplicateIDError reports a registration of an ID that is already in use.
type DuplicateIDError struct {
	ID string
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("vehicle with ID %s is already registered", e.ID)
}

func (e *DuplicateIDError) Is(target error) bool { return target == ErrDuplicateID }
