package payment

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository contains all payment store interactions needed by the service.
type Repository interface {
	Create(ctx context.Context, p *Payment) (*Payment, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Payment, error)
	ListByAppointment(ctx context.Context, appointmentID uuid.UUID) ([]Payment, error)

	// UpdateStatus transitions a payment from one status to another,
	// compare-and-swap style: the update applies only while the row is still
	// in the from status. A non-nil transactionID is stored alongside.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status, transactionID *string) (*Payment, error)

	// FindStalePending returns pending payments created before the cutoff,
	// for the expiry worker.
	FindStalePending(ctx context.Context, cutoff time.Time) ([]Payment, error)
}
