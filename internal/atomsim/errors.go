package atomsim

import (
	"errors"
	"fmt"
)

// ErrNotFound matches every *NotFoundError via errors.Is.
var ErrNotFound = errors.New("particle not found")

// NotFoundError reports a lookup or mutation on a stale or unknown particle ID.
type NotFoundError struct {
	ID ParticleID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("particle %d not found", e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// CapacityError reports a bulk insert that does not fit in the store.
// Nothing from the rejected batch is left behind.
type CapacityError struct {
	Requested int
	Available int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("capacity exceeded: requested %d particles, %d available", e.Requested, e.Available)
}

func notFound(id ParticleID) error {
	return &NotFoundError{ID: id}
}
