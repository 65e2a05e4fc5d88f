package payment

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusPaid     Status = "paid"
	StatusFailed   Status = "failed"
	StatusRefunded Status = "refunded"
)

type Method string

const (
	MethodOrangeMoney Method = "orange_money"
	MethodMTNMomo     Method = "mtn_momo"
	MethodCard        Method = "card"
)

func (m Method) Valid() bool {
	switch m {
	case MethodOrangeMoney, MethodMTNMomo, MethodCard:
		return true
	}
	return false
}

// MobileMoney reports whether the method settles over a mobile wallet.
func (m Method) MobileMoney() bool {
	return m == MethodOrangeMoney || m == MethodMTNMomo
}

var (
	ErrNotFound           = errors.New("payment not found")
	ErrInvalidTransition  = errors.New("invalid payment status transition")
	ErrUnknownTransaction = errors.New("unknown gateway transaction")
)

// StoreError wraps a payment-store failure without losing the cause. Callers
// treat it as retryable; driver details never reach API responses.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("payment store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func wrapStore(op string, err error) error {
	return &StoreError{Op: op, Err: err}
}

// Payment records one gateway round-trip for an appointment. Rows are never
// deleted; refunds are status transitions.
type Payment struct {
	ID            uuid.UUID
	AppointmentID *uuid.UUID
	AmountCents   int64
	Currency      string
	Status        Status
	Method        Method
	TransactionID *string
	Metadata      map[string]string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
