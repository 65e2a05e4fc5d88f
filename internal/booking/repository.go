package booking

import (
	"context"

	"github.com/google/uuid"
)

// ListFilter narrows List results. Zero value means everything, newest first.
type ListFilter struct {
	Status *Status
	Search string // matches nom, telephone or service
	Limit  int
	Offset int
}

// Repository contains all appointment store interactions needed by the service.
type Repository interface {
	// CountActiveForSlot counts non-cancelled appointments for an exact
	// (date, heure) pair.
	CountActiveForSlot(ctx context.Context, date, heure string) (int, error)

	Create(ctx context.Context, a *Appointment) (*Appointment, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	List(ctx context.Context, filter ListFilter) ([]Appointment, error)
	Update(ctx context.Context, id uuid.UUID, patch Patch) (*Appointment, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
