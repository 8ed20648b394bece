package middleware

import (
	"encoding/json"
	"errors"
	"net/http"

	goGuard "github.com/MrEthical07/goGuard"
)

const (
	msgAnonymousInvalid = "valid anonymous csrf token not supplied"
	msgAnonymousExpired = "valid anonymous csrf token expired or not supplied"
	msgCSRFInvalid      = "valid csrf token not supplied"
	msgCSRFExpired      = "valid csrf token expired or not supplied"
	msgRefreshInvalid   = "valid refresh token not supplied"
	msgRefreshExpired   = "refresh token expired"
	msgAccessInvalid    = "valid access token not supplied"
	msgAccessExpired    = "access token expired, please refresh access token"
	msgInternal         = "internal error"
)

// ErrorBody is the JSON shape of every failure response.
type ErrorBody struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// WriteJSON writes v with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes {"status":"error","message":msg}.
func WriteError(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, ErrorBody{Status: "error", Message: msg})
}

// StatusFor maps an engine error to its HTTP status.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, goGuard.ErrMissingCredential),
		errors.Is(err, goGuard.ErrBindingExpired),
		errors.Is(err, goGuard.ErrCommitmentMismatch):
		return http.StatusForbidden
	case errors.Is(err, goGuard.ErrRefreshMissing),
		errors.Is(err, goGuard.ErrRefreshExpired),
		errors.Is(err, goGuard.ErrRefreshInvalid),
		errors.Is(err, goGuard.ErrTokenExpired),
		errors.Is(err, goGuard.ErrTokenInvalid),
		errors.Is(err, goGuard.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, goGuard.ErrAccountExists):
		return http.StatusConflict
	case errors.Is(err, goGuard.ErrAccountInvalid):
		return http.StatusBadRequest
	case errors.Is(err, goGuard.ErrLoginRateLimited),
		errors.Is(err, goGuard.ErrRefreshRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func anonymousMessage(err error) string {
	switch {
	case errors.Is(err, goGuard.ErrBindingExpired):
		return msgAnonymousExpired
	case errors.Is(err, goGuard.ErrMissingCredential),
		errors.Is(err, goGuard.ErrCommitmentMismatch):
		return msgAnonymousInvalid
	default:
		return msgInternal
	}
}

// authorizedMessage also reports whether both cookies must be cleared.
func authorizedMessage(err error) (string, bool) {
	switch {
	case errors.Is(err, goGuard.ErrBindingExpired):
		return msgCSRFExpired, true
	case errors.Is(err, goGuard.ErrMissingCredential),
		errors.Is(err, goGuard.ErrCommitmentMismatch):
		return msgCSRFInvalid, true
	case errors.Is(err, goGuard.ErrRefreshExpired):
		return msgRefreshExpired, true
	case errors.Is(err, goGuard.ErrRefreshMissing),
		errors.Is(err, goGuard.ErrRefreshInvalid):
		return msgRefreshInvalid, true
	default:
		return msgInternal, false
	}
}

func accessMessage(err error) string {
	switch {
	case errors.Is(err, goGuard.ErrTokenExpired):
		return msgAccessExpired
	case errors.Is(err, goGuard.ErrTokenInvalid):
		return msgAccessInvalid
	default:
		return msgInternal
	}
}
