package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/mguerin/materiguard/httpx"
	"github.com/mguerin/materiguard/internal/services"
)

// serviceError translates service sentinels into HTTP responses. Conflicts
// with current state (stock, double return, duplicate names) are 409s;
// validation failures carry their per-field violations.
func serviceError(w http.ResponseWriter, err error) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		httpx.JSONError(w, http.StatusUnprocessableEntity, "validation_failed", verr.Violations)
	case errors.Is(err, services.ErrNotFound):
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
	case errors.Is(err, services.ErrInvalidCredentials):
		httpx.JSONError(w, http.StatusUnauthorized, "invalid_credentials", nil)
	case errors.Is(err, services.ErrAccountDisabled):
		httpx.JSONError(w, http.StatusForbidden, "account_disabled", nil)
	case errors.Is(err, services.ErrInsufficientStock):
		httpx.JSONError(w, http.StatusConflict, "insufficient_stock", nil)
	case errors.Is(err, services.ErrCapacityExceeded):
		httpx.JSONError(w, http.StatusConflict, "capacity_exceeded", nil)
	case errors.Is(err, services.ErrAlreadyReturned):
		httpx.JSONError(w, http.StatusConflict, "already_returned", nil)
	case errors.Is(err, services.ErrUsernameTaken):
		httpx.JSONError(w, http.StatusConflict, "username_taken", nil)
	case errors.Is(err, services.ErrEmailTaken):
		httpx.JSONError(w, http.StatusConflict, "email_taken", nil)
	default:
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
	}
}

// idParam parses the {id} path segment.
func idParam(r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
