package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/inauto/garage-booking/internal/booking"
	"github.com/inauto/garage-booking/internal/payment"
	"github.com/inauto/garage-booking/internal/profile"
)

// The public JSON surface keeps the application's field vocabulary; the
// store schema's names never leak out of the repository.

type CreateAppointmentRequest struct {
	Nom       string     `json:"nom"`
	Telephone string     `json:"telephone"`
	Email     *string    `json:"email,omitempty"`
	Service   string     `json:"service"`
	Date      *string    `json:"date,omitempty"`
	Heure     *string    `json:"heure,omitempty"`
	Message   *string    `json:"message,omitempty"`
	UserID    *uuid.UUID `json:"user_id,omitempty"`
}

type UpdateAppointmentRequest struct {
	Nom           *string `json:"nom,omitempty"`
	Telephone     *string `json:"telephone,omitempty"`
	Email         *string `json:"email,omitempty"`
	Service       *string `json:"service,omitempty"`
	Date          *string `json:"date,omitempty"`
	Heure         *string `json:"heure,omitempty"`
	Message       *string `json:"message,omitempty"`
	Status        *string `json:"statut,omitempty"`
	PaymentStatus *string `json:"statut_paiement,omitempty"`
}

type AppointmentResponse struct {
	ID            uuid.UUID  `json:"id"`
	Nom           string     `json:"nom"`
	Telephone     string     `json:"telephone"`
	Email         *string    `json:"email,omitempty"`
	Service       string     `json:"service"`
	Date          *string    `json:"date,omitempty"`
	Heure         *string    `json:"heure,omitempty"`
	Message       *string    `json:"message,omitempty"`
	UserID        *uuid.UUID `json:"user_id,omitempty"`
	Status        string     `json:"statut"`
	PaymentStatus string     `json:"statut_paiement"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func toAppointmentResponse(a *booking.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:            a.ID,
		Nom:           a.Nom,
		Telephone:     a.Telephone,
		Email:         a.Email,
		Service:       a.Service,
		Date:          a.Date,
		Heure:         a.Heure,
		Message:       a.Message,
		UserID:        a.UserID,
		Status:        string(a.Status),
		PaymentStatus: string(a.PaymentStatus),
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}

type CheckoutRequest struct {
	AppointmentID uuid.UUID         `json:"appointment_id"`
	Method        string            `json:"method"`
	AmountCents   int64             `json:"amount_cents"`
	Currency      string            `json:"currency,omitempty"`
	PhoneNumber   string            `json:"phone,omitempty"`
	CardToken     string            `json:"card_token,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

type PaymentResponse struct {
	ID            uuid.UUID  `json:"id"`
	AppointmentID *uuid.UUID `json:"appointment_id,omitempty"`
	AmountCents   int64      `json:"amount_cents"`
	Currency      string     `json:"currency"`
	Status        string     `json:"status"`
	Method        string     `json:"method"`
	TransactionID *string    `json:"transaction_id,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func toPaymentResponse(p *payment.Payment) PaymentResponse {
	return PaymentResponse{
		ID:            p.ID,
		AppointmentID: p.AppointmentID,
		AmountCents:   p.AmountCents,
		Currency:      p.Currency,
		Status:        string(p.Status),
		Method:        string(p.Method),
		TransactionID: p.TransactionID,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

type ProfileRequest struct {
	Nom       string  `json:"nom"`
	Telephone *string `json:"telephone,omitempty"`
	Email     *string `json:"email,omitempty"`
}

type ProfileResponse struct {
	ID        uuid.UUID `json:"id"`
	Nom       string    `json:"nom"`
	Telephone *string   `json:"telephone,omitempty"`
	Email     *string   `json:"email,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func toProfileResponse(p *profile.Profile) ProfileResponse {
	return ProfileResponse{
		ID:        p.ID,
		Nom:       p.Name,
		Telephone: p.Phone,
		Email:     p.Email,
		CreatedAt: p.CreatedAt,
	}
}

type ChatRequest struct {
	Message string `json:"message"`
}

type ChatResponse struct {
	Intent string `json:"intent"`
	Reply  string `json:"reply"`
}

type LoginRequest struct {
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string `json:"token"`
}
