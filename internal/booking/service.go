package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/inauto/garage-booking/internal/logging"
	"github.com/inauto/garage-booking/internal/metrics"
	redisclient "github.com/inauto/garage-booking/internal/redis"
)

// Service is the booking intake gate. It decides whether a requested
// appointment may be admitted, enforcing the per-slot capacity rule, and owns
// the admin-side mutations on appointments.
type Service struct {
	repo     Repository
	locker   redisclient.Locker
	capacity int
	logger   *logging.Logger
}

func NewService(repo Repository, locker redisclient.Locker, capacity int, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		repo:     repo,
		locker:   locker,
		capacity: capacity,
		logger:   logger,
	}
}

// SubmitRequest carries the public booking form fields.
type SubmitRequest struct {
	Nom       string
	Telephone string
	Service   string
	Email     *string
	Date      *string
	Heure     *string
	Message   *string
	UserID    *uuid.UUID
}

func (r SubmitRequest) validate() error {
	if strings.TrimSpace(r.Nom) == "" {
		return &ValidationError{Field: FieldNom}
	}
	if strings.TrimSpace(r.Telephone) == "" {
		return &ValidationError{Field: FieldTelephone}
	}
	if strings.TrimSpace(r.Service) == "" {
		return &ValidationError{Field: FieldService}
	}
	return nil
}

// SubmitAppointment admits or rejects a booking request. When the request
// names a full (date, heure) slot, the capacity check and the insert run
// under a per-slot distributed lock so two concurrent bookings cannot both
// pass the count before either insert commits.
func (s *Service) SubmitAppointment(ctx context.Context, req SubmitRequest) (*Appointment, error) {
	if err := req.validate(); err != nil {
		metrics.BookingsRejected.WithLabelValues("validation").Inc()
		return nil, err
	}

	appt := &Appointment{
		Nom:           strings.TrimSpace(req.Nom),
		Telephone:     strings.TrimSpace(req.Telephone),
		Email:         req.Email,
		Service:       strings.TrimSpace(req.Service),
		Date:          req.Date,
		Heure:         req.Heure,
		Message:       req.Message,
		UserID:        req.UserID,
		Status:        StatusNew,
		PaymentStatus: PaymentPending,
	}

	date, heure, hasSlot := appt.Slot()
	if !hasSlot {
		// No fixed slot requested, always admitted.
		created, err := s.repo.Create(ctx, appt)
		if err != nil {
			metrics.BookingsRejected.WithLabelValues("store").Inc()
			return nil, err
		}
		metrics.BookingsAdmitted.Inc()
		return created, nil
	}

	var created *Appointment

	err := s.locker.WithSlotLock(ctx, date, heure, func(lockCtx context.Context) error {
		count, err := s.repo.CountActiveForSlot(lockCtx, date, heure)
		if err != nil {
			return fmt.Errorf("check slot capacity: %w", err)
		}
		if count >= s.capacity {
			return &SlotFullError{Date: date, Heure: heure, Capacity: s.capacity}
		}

		created, err = s.repo.Create(lockCtx, appt)
		if err != nil {
			return fmt.Errorf("create appointment: %w", err)
		}
		return nil
	})

	if err != nil {
		var slotFull *SlotFullError
		switch {
		case errors.As(err, &slotFull):
			metrics.BookingsRejected.WithLabelValues("slot_full").Inc()
			s.logger.Info("booking rejected, slot full", "date", date, "heure", heure)
		case errors.Is(err, redisclient.ErrLockNotAcquired):
			metrics.BookingsRejected.WithLabelValues("slot_busy").Inc()
			return nil, ErrSlotBusy
		default:
			metrics.BookingsRejected.WithLabelValues("store").Inc()
		}
		return nil, err
	}

	metrics.BookingsAdmitted.Inc()
	s.logger.Info("appointment admitted",
		"id", created.ID, "service", created.Service, "date", date, "heure", heure)
	return created, nil
}

// UpdateAppointment applies a partial update. When the patch moves the
// appointment to a different slot, the target slot's capacity is re-checked
// under its lock before the update is applied.
func (s *Service) UpdateAppointment(ctx context.Context, id uuid.UUID, patch Patch) (*Appointment, error) {
	if patch.Status != nil && !patch.Status.Valid() {
		return nil, fmt.Errorf("invalid status %q", *patch.Status)
	}
	if patch.PaymentStatus != nil && !patch.PaymentStatus.Valid() {
		return nil, fmt.Errorf("invalid payment status %q", *patch.PaymentStatus)
	}

	if patch.Date == nil && patch.Heure == nil {
		return s.repo.Update(ctx, id, patch)
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	target := *current
	if patch.Date != nil {
		target.Date = patch.Date
	}
	if patch.Heure != nil {
		target.Heure = patch.Heure
	}

	date, heure, hasSlot := target.Slot()
	curDate, curHeure, hadSlot := current.Slot()
	if !hasSlot || (hadSlot && date == curDate && heure == curHeure) {
		return s.repo.Update(ctx, id, patch)
	}

	var updated *Appointment
	err = s.locker.WithSlotLock(ctx, date, heure, func(lockCtx context.Context) error {
		count, err := s.repo.CountActiveForSlot(lockCtx, date, heure)
		if err != nil {
			return fmt.Errorf("check slot capacity: %w", err)
		}
		if count >= s.capacity {
			return &SlotFullError{Date: date, Heure: heure, Capacity: s.capacity}
		}
		updated, err = s.repo.Update(lockCtx, id, patch)
		return err
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrSlotBusy
		}
		return nil, err
	}
	return updated, nil
}

// UpdateStatus moves an appointment to a new lifecycle status.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, to Status) (*Appointment, error) {
	if !to.Valid() {
		return nil, fmt.Errorf("invalid status %q", to)
	}
	return s.repo.Update(ctx, id, Patch{Status: &to})
}

// Cancel marks an appointment cancelled, freeing its slot capacity.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.UpdateStatus(ctx, id, StatusCancelled)
}

func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListAppointments(ctx context.Context, filter ListFilter) ([]Appointment, error) {
	if filter.Limit <= 0 {
		filter.Limit = 50 // default
	}
	if filter.Limit > 200 {
		filter.Limit = 200 // max
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.repo.List(ctx, filter)
}

func (s *Service) DeleteAppointment(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}
