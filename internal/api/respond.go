// Package api is the HTTP presentation layer: a chi router, JSON
// request/response glue, and the bearer-token middleware. All business
// rules live in the services package; handlers only translate between
// HTTP and service calls.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/avankov/pixvault/internal/common"
)

type errorResponse struct {
	Error string `json:"error"`
}

// statusFor maps the service error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrInsufficientCredits):
		return http.StatusPaymentRequired
	case errors.Is(err, common.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// respondError writes the mapped status with a JSON error body. Internal
// errors are reported without their underlying detail.
func respondError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = common.ErrInternal.Error()
	}
	respondJSON(w, status, errorResponse{Error: msg})
}
