package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/inauto/garage-booking/internal/booking"
	"github.com/inauto/garage-booking/internal/logging"
	"github.com/inauto/garage-booking/internal/metrics"
)

// AppointmentStore is what the payment flow needs from the booking store:
// existence checks and payment-status writes.
type AppointmentStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*booking.Appointment, error)
	Update(ctx context.Context, id uuid.UUID, patch booking.Patch) (*booking.Appointment, error)
}

// Service runs the checkout flow: pending row, gateway round-trip, terminal
// transition, and the appointment's payment_status kept in step.
type Service struct {
	repo         Repository
	appointments AppointmentStore
	gateway      Gateway
	currency     string
	pendingTTL   time.Duration
	logger       *logging.Logger
}

func NewService(repo Repository, appointments AppointmentStore, gateway Gateway, currency string, pendingTTL time.Duration, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		repo:         repo,
		appointments: appointments,
		gateway:      gateway,
		currency:     currency,
		pendingTTL:   pendingTTL,
		logger:       logger,
	}
}

type CheckoutRequest struct {
	AppointmentID uuid.UUID
	Method        Method
	AmountCents   int64
	Currency      string // falls back to the service default
	PhoneNumber   string
	CardToken     string
	Metadata      map[string]string
}

func (r CheckoutRequest) validate() error {
	if r.AmountCents <= 0 {
		return fmt.Errorf("amount must be positive, got %d", r.AmountCents)
	}
	if !r.Method.Valid() {
		return fmt.Errorf("invalid payment method %q", r.Method)
	}
	if r.Method.MobileMoney() && r.PhoneNumber == "" {
		return fmt.Errorf("%s requires a phone number", r.Method)
	}
	if r.Method == MethodCard && r.CardToken == "" {
		return errors.New("card payments require a card token")
	}
	return nil
}

// Checkout runs one gateway round-trip for an appointment. The payment row
// is created pending first, so an interrupted round-trip leaves a row the
// expiry worker can reap.
func (s *Service) Checkout(ctx context.Context, req CheckoutRequest) (*Payment, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	if _, err := s.appointments.GetByID(ctx, req.AppointmentID); err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}

	currency := req.Currency
	if currency == "" {
		currency = s.currency
	}

	apptID := req.AppointmentID
	pending, err := s.repo.Create(ctx, &Payment{
		AppointmentID: &apptID,
		AmountCents:   req.AmountCents,
		Currency:      currency,
		Status:        StatusPending,
		Method:        req.Method,
		Metadata:      req.Metadata,
	})
	if err != nil {
		return nil, err
	}

	result, err := s.gateway.Initiate(ctx, InitiateParams{
		AmountCents:    req.AmountCents,
		Currency:       currency,
		Method:         req.Method,
		PhoneNumber:    req.PhoneNumber,
		CardToken:      req.CardToken,
		IdempotencyKey: pending.ID.String(),
		Metadata:       req.Metadata,
	})
	if err != nil {
		s.logger.Warn("gateway initiate failed", "payment_id", pending.ID, "error", err)
		if _, failErr := s.repo.UpdateStatus(ctx, pending.ID, StatusPending, StatusFailed, nil); failErr != nil {
			s.logger.Error("failed to mark payment failed", "payment_id", pending.ID, "error", failErr)
		}
		s.setAppointmentPaymentStatus(ctx, req.AppointmentID, booking.PaymentFailed)
		metrics.PaymentsFinished.WithLabelValues(string(StatusFailed), string(req.Method)).Inc()
		return nil, fmt.Errorf("initiate payment: %w", err)
	}

	txID := result.TransactionID

	switch result.Status {
	case GatewaySucceeded:
		paid, err := s.repo.UpdateStatus(ctx, pending.ID, StatusPending, StatusPaid, &txID)
		if err != nil {
			return nil, err
		}
		s.setAppointmentPaymentStatus(ctx, req.AppointmentID, booking.PaymentPaid)
		metrics.PaymentsFinished.WithLabelValues(string(StatusPaid), string(req.Method)).Inc()
		s.logger.Info("payment settled", "payment_id", paid.ID, "transaction_id", txID)
		return paid, nil

	case GatewayFailed:
		failed, err := s.repo.UpdateStatus(ctx, pending.ID, StatusPending, StatusFailed, &txID)
		if err != nil {
			return nil, err
		}
		s.setAppointmentPaymentStatus(ctx, req.AppointmentID, booking.PaymentFailed)
		metrics.PaymentsFinished.WithLabelValues(string(StatusFailed), string(req.Method)).Inc()
		return failed, nil

	default:
		// Still pending at the gateway, keep the transaction id so the
		// worker or a later poll can settle it.
		return s.repo.UpdateStatus(ctx, pending.ID, StatusPending, StatusPending, &txID)
	}
}

func (s *Service) GetPayment(ctx context.Context, id uuid.UUID) (*Payment, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByAppointment(ctx context.Context, appointmentID uuid.UUID) ([]Payment, error) {
	return s.repo.ListByAppointment(ctx, appointmentID)
}

// Refund moves a paid payment to refunded. The money movement itself is the
// gateway's business; this records the outcome.
func (s *Service) Refund(ctx context.Context, id uuid.UUID) (*Payment, error) {
	refunded, err := s.repo.UpdateStatus(ctx, id, StatusPaid, StatusRefunded, nil)
	if err != nil {
		return nil, err
	}
	if refunded.AppointmentID != nil {
		s.setAppointmentPaymentStatus(ctx, *refunded.AppointmentID, booking.PaymentRefunded)
	}
	metrics.PaymentsFinished.WithLabelValues(string(StatusRefunded), string(refunded.Method)).Inc()
	return refunded, nil
}

// ExpireStalePending fails payments stuck in pending past the TTL. Intended
// to be called periodically by the worker. Payments with a known transaction
// id are re-checked at the gateway first, so a late settlement still lands
// as paid.
func (s *Service) ExpireStalePending(ctx context.Context) error {
	cutoff := time.Now().Add(-s.pendingTTL)

	stale, err := s.repo.FindStalePending(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("find stale pending payments: %w", err)
	}

	for _, p := range stale {
		target := StatusFailed
		bookingStatus := booking.PaymentFailed

		if p.TransactionID != nil {
			status, err := s.gateway.CheckStatus(ctx, *p.TransactionID)
			if err != nil && !errors.Is(err, ErrUnknownTransaction) {
				s.logger.Warn("gateway status check failed", "payment_id", p.ID, "error", err)
				continue
			}
			if status == GatewaySucceeded {
				target = StatusPaid
				bookingStatus = booking.PaymentPaid
			}
		}

		if _, err := s.repo.UpdateStatus(ctx, p.ID, StatusPending, target, nil); err != nil {
			if !errors.Is(err, ErrInvalidTransition) {
				s.logger.Error("failed to expire payment", "payment_id", p.ID, "error", err)
			}
			continue
		}
		if p.AppointmentID != nil {
			s.setAppointmentPaymentStatus(ctx, *p.AppointmentID, bookingStatus)
		}
		metrics.PaymentsFinished.WithLabelValues(string(target), string(p.Method)).Inc()
		s.logger.Info("stale pending payment settled", "payment_id", p.ID, "status", target)
	}

	return nil
}

func (s *Service) setAppointmentPaymentStatus(ctx context.Context, id uuid.UUID, status booking.PaymentStatus) {
	if _, err := s.appointments.Update(ctx, id, booking.Patch{PaymentStatus: &status}); err != nil {
		s.logger.Error("failed to update appointment payment status",
			"appointment_id", id, "status", status, "error", err)
	}
}
