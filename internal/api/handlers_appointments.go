package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/inauto/garage-booking/internal/booking"
)

func createAppointmentHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		appt, err := svc.SubmitAppointment(r.Context(), booking.SubmitRequest{
			Nom:       req.Nom,
			Telephone: req.Telephone,
			Service:   req.Service,
			Email:     req.Email,
			Date:      req.Date,
			Heure:     req.Heure,
			Message:   req.Message,
			UserID:    req.UserID,
		})
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toAppointmentResponse(appt))
	}
}

func listAppointmentsHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		filter := booking.ListFilter{
			Search: q.Get("search"),
		}
		if s := q.Get("statut"); s != "" {
			status := booking.Status(s)
			if !status.Valid() {
				writeError(w, http.StatusBadRequest, "invalid_status", "unknown statut value")
				return
			}
			filter.Status = &status
		}
		if v := q.Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				filter.Limit = n
			}
		}
		if v := q.Get("offset"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				filter.Offset = n
			}
		}

		appts, err := svc.ListAppointments(r.Context(), filter)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		resp := make([]AppointmentResponse, 0, len(appts))
		for i := range appts {
			resp = append(resp, toAppointmentResponse(&appts[i]))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func getAppointmentHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		appt, err := svc.GetAppointment(r.Context(), id)
		if err != nil {
			handleBookingError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func updateAppointmentHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		var req UpdateAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		patch := booking.Patch{
			Nom:       req.Nom,
			Telephone: req.Telephone,
			Email:     req.Email,
			Service:   req.Service,
			Date:      req.Date,
			Heure:     req.Heure,
			Message:   req.Message,
		}
		if req.Status != nil {
			status := booking.Status(*req.Status)
			patch.Status = &status
		}
		if req.PaymentStatus != nil {
			ps := booking.PaymentStatus(*req.PaymentStatus)
			patch.PaymentStatus = &ps
		}

		appt, err := svc.UpdateAppointment(r.Context(), id, patch)
		if err != nil {
			handleBookingError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func deleteAppointmentHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		if err := svc.DeleteAppointment(r.Context(), id); err != nil {
			handleBookingError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleBookingError(w http.ResponseWriter, err error) {
	var (
		slotFull   *booking.SlotFullError
		validation *booking.ValidationError
		storeErr   *booking.StoreError
	)

	switch {
	case errors.As(err, &validation):
		writeError(w, http.StatusUnprocessableEntity, "validation_error", validation.Error())
	case errors.As(err, &slotFull):
		writeError(w, http.StatusConflict, "slot_full", slotFull.Error())
	case errors.Is(err, booking.ErrSlotBusy):
		writeError(w, http.StatusConflict, "slot_busy", "this slot is being booked right now, please retry shortly")
	case errors.Is(err, booking.ErrNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", "appointment not found")
	case errors.As(err, &storeErr):
		writeError(w, http.StatusServiceUnavailable, "store_unavailable", "the booking store is unavailable, please try again")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
