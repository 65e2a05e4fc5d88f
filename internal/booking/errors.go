package booking

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("appointment not found")
	ErrSlotBusy = errors.New("slot is currently being booked, please retry")
)

// SlotFullError reports a (date, heure) slot already at capacity. The message
// names the conflicting slot so the caller can tell the customer which time
// to avoid.
type SlotFullError struct {
	Date     string
	Heure    string
	Capacity int
}

func (e *SlotFullError) Error() string {
	return fmt.Sprintf("slot %s at %s is full (%d bookings), please choose another time", e.Date, e.Heure, e.Capacity)
}

// ValidationError reports a missing required field. It is raised before any
// store call is made.
type ValidationError struct {
	Field Field
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required field: %s", e.Field)
}

// StoreError wraps a datastore failure (connectivity, schema, permission)
// without losing the underlying cause. Callers treat it as retryable.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func wrapStore(op string, err error) error {
	return &StoreError{Op: op, Err: err}
}
