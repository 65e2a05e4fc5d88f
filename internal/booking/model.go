package booking

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusNew        Status = "new"
	StatusConfirmed  Status = "confirmed"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusNew, StatusConfirmed, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentPaid, PaymentFailed, PaymentRefunded:
		return true
	}
	return false
}

// Appointment is a customer's request for a service visit. The struct carries
// the domain vocabulary; the store schema uses its own column names and the
// translation between the two is driven by the field map in fields.go.
type Appointment struct {
	ID            uuid.UUID
	Nom           string
	Telephone     string
	Email         *string
	Service       string
	Date          *string // YYYY-MM-DD, nil when no slot was requested
	Heure         *string // HH:MM, nil when no slot was requested
	Message       *string
	UserID        *uuid.UUID
	Status        Status
	PaymentStatus PaymentStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Slot returns the (date, heure) pair and whether both halves are present.
// An appointment without a full slot is never subject to the capacity rule.
func (a *Appointment) Slot() (date, heure string, ok bool) {
	if a.Date == nil || a.Heure == nil || *a.Date == "" || *a.Heure == "" {
		return "", "", false
	}
	return *a.Date, *a.Heure, true
}

// Patch is a partial update. Nil fields are left untouched.
type Patch struct {
	Nom           *string
	Telephone     *string
	Email         *string
	Service       *string
	Date          *string
	Heure         *string
	Message       *string
	Status        *Status
	PaymentStatus *PaymentStatus
}

// IsEmpty reports whether the patch would change nothing.
func (p Patch) IsEmpty() bool {
	return p.Nom == nil && p.Telephone == nil && p.Email == nil &&
		p.Service == nil && p.Date == nil && p.Heure == nil &&
		p.Message == nil && p.Status == nil && p.PaymentStatus == nil
}
