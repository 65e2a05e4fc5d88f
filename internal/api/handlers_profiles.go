package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/inauto/garage-booking/internal/profile"
)

// ProfileStore is the profile persistence the handlers need.
type ProfileStore interface {
	Ensure(ctx context.Context, p *profile.Profile) (*profile.Profile, error)
	GetByID(ctx context.Context, id uuid.UUID) (*profile.Profile, error)
}

// upsertProfileHandler syncs an identity from the external auth provider. The
// id in the path is the provider's subject, so replays are idempotent.
func upsertProfileHandler(store ProfileStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_profile_id", "id must be a valid UUID")
			return
		}

		var req ProfileRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if strings.TrimSpace(req.Nom) == "" {
			writeError(w, http.StatusUnprocessableEntity, "validation_error", "nom is required")
			return
		}

		saved, err := store.Ensure(r.Context(), &profile.Profile{
			ID:    id,
			Name:  strings.TrimSpace(req.Nom),
			Phone: req.Telephone,
			Email: req.Email,
		})
		if err != nil {
			writeError(w, http.StatusServiceUnavailable, "store_unavailable", "the profile store is unavailable, please try again")
			return
		}

		writeJSON(w, http.StatusOK, toProfileResponse(saved))
	}
}

func getProfileHandler(store ProfileStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_profile_id", "id must be a valid UUID")
			return
		}

		p, err := store.GetByID(r.Context(), id)
		if err != nil {
			if errors.Is(err, profile.ErrNotFound) {
				writeError(w, http.StatusNotFound, "profile_not_found", "profile not found")
				return
			}
			writeError(w, http.StatusServiceUnavailable, "store_unavailable", "the profile store is unavailable, please try again")
			return
		}
		writeJSON(w, http.StatusOK, toProfileResponse(p))
	}
}
