package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/inauto/garage-booking/internal/booking"
	"github.com/inauto/garage-booking/internal/payment"
)

func checkoutHandler(svc *payment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CheckoutRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if req.AppointmentID == uuid.Nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "appointment_id is required")
			return
		}

		p, err := svc.Checkout(r.Context(), payment.CheckoutRequest{
			AppointmentID: req.AppointmentID,
			Method:        payment.Method(req.Method),
			AmountCents:   req.AmountCents,
			Currency:      req.Currency,
			PhoneNumber:   req.PhoneNumber,
			CardToken:     req.CardToken,
			Metadata:      req.Metadata,
		})
		if err != nil {
			handlePaymentError(w, err)
			return
		}

		status := http.StatusCreated
		if p.Status == payment.StatusFailed {
			// The row exists but the charge did not go through.
			status = http.StatusPaymentRequired
		}
		writeJSON(w, status, toPaymentResponse(p))
	}
}

func getPaymentHandler(svc *payment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_payment_id", "id must be a valid UUID")
			return
		}

		p, err := svc.GetPayment(r.Context(), id)
		if err != nil {
			handlePaymentError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toPaymentResponse(p))
	}
}

func refundPaymentHandler(svc *payment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_payment_id", "id must be a valid UUID")
			return
		}

		p, err := svc.Refund(r.Context(), id)
		if err != nil {
			handlePaymentError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toPaymentResponse(p))
	}
}

func handlePaymentError(w http.ResponseWriter, err error) {
	var (
		payStoreErr  *payment.StoreError
		bookStoreErr *booking.StoreError
	)

	switch {
	case errors.Is(err, payment.ErrNotFound):
		writeError(w, http.StatusNotFound, "payment_not_found", "payment not found")
	case errors.Is(err, booking.ErrNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", "appointment not found")
	case errors.Is(err, payment.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "invalid_payment_transition", err.Error())
	case errors.As(err, &payStoreErr), errors.As(err, &bookStoreErr):
		writeError(w, http.StatusServiceUnavailable, "store_unavailable", "the payment store is unavailable, please try again")
	default:
		writeError(w, http.StatusBadRequest, "payment_error", err.Error())
	}
}
