package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/avankov/pixvault/internal/common"
	"github.com/avankov/pixvault/internal/services"
)

// UserHandler handles HTTP requests for the user directory and the
// credit ledger.
type UserHandler struct {
	service services.UserServiceProvider
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service services.UserServiceProvider) *UserHandler {
	return &UserHandler{service: service}
}

// CreateUserPayload is the provisioning request body. ExternalID is
// optional; when present it must match the authenticated identity.
type CreateUserPayload struct {
	ExternalID string `json:"externalId"`
	Email      string `json:"email"`
	Username   string `json:"username"`
	Photo      string `json:"photo"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	PlanID     int    `json:"planId"`
}

// UpdateUserPayload is a partial profile update; absent fields are left
// unchanged.
type UpdateUserPayload struct {
	Email     *string `json:"email"`
	Username  *string `json:"username"`
	Photo     *string `json:"photo"`
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	PlanID    *int    `json:"planId"`
}

// AdjustCreditsPayload carries a signed credit delta.
type AdjustCreditsPayload struct {
	Delta int64 `json:"delta"`
}

// Create provisions an account for the authenticated identity.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload CreateUserPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, fmt.Errorf("%w: invalid request body", common.ErrInvalidInput))
		return
	}

	caller := callerExternalID(r.Context())
	if payload.ExternalID == "" {
		payload.ExternalID = caller
	}
	if payload.ExternalID != caller {
		respondError(w, fmt.Errorf("%w: cannot provision another identity", common.ErrUnauthorized))
		return
	}

	user, err := h.service.CreateUser(r.Context(), services.CreateUserParams{
		ExternalID: payload.ExternalID,
		Email:      payload.Email,
		Username:   payload.Username,
		Photo:      payload.Photo,
		FirstName:  payload.FirstName,
		LastName:   payload.LastName,
		PlanID:     payload.PlanID,
	})
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, user)
}

// GetMe returns the account of the authenticated identity.
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.GetUserByExternalID(r.Context(), callerExternalID(r.Context()))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// Update patches the caller's own profile.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	externalID := chi.URLParam(r, "externalID")
	if externalID != callerExternalID(r.Context()) {
		respondError(w, fmt.Errorf("%w: cannot update another identity", common.ErrUnauthorized))
		return
	}

	var payload UpdateUserPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, fmt.Errorf("%w: invalid request body", common.ErrInvalidInput))
		return
	}

	user, err := h.service.UpdateUser(r.Context(), externalID, services.UpdateUserParams{
		Email:     payload.Email,
		Username:  payload.Username,
		Photo:     payload.Photo,
		FirstName: payload.FirstName,
		LastName:  payload.LastName,
		PlanID:    payload.PlanID,
	})
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, user)
}

// Delete removes the caller's own account. Deleting an already-absent
// account responds 204 as well.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	externalID := chi.URLParam(r, "externalID")
	if externalID != callerExternalID(r.Context()) {
		respondError(w, fmt.Errorf("%w: cannot delete another identity", common.ErrUnauthorized))
		return
	}

	if _, err := h.service.DeleteUser(r.Context(), externalID); err != nil {
		respondError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AdjustCredits applies a signed delta to the caller's own balance. The
// {id} segment accepts the internal or the external id, but must refer
// to the caller.
func (h *UserHandler) AdjustCredits(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	caller, err := h.service.GetUserByExternalID(r.Context(), callerExternalID(r.Context()))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			err = fmt.Errorf("%w: no account for caller", common.ErrUnauthorized)
		}
		respondError(w, err)
		return
	}
	if id != caller.ID && id != caller.ExternalID {
		respondError(w, fmt.Errorf("%w: cannot adjust another account", common.ErrUnauthorized))
		return
	}

	var payload AdjustCreditsPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, fmt.Errorf("%w: invalid request body", common.ErrInvalidInput))
		return
	}

	user, err := h.service.AdjustCredits(r.Context(), caller.ID, payload.Delta)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, user)
}
