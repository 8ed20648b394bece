package flows

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/goGuard/binding"
	"github.com/MrEthical07/goGuard/internal"
	"github.com/MrEthical07/goGuard/jwt"
)

// VerifyFailureKind classifies CSRF verification failures for root-level mapping.
type VerifyFailureKind int

const (
	VerifyFailureNone VerifyFailureKind = iota
	VerifyFailureMissingCredential
	VerifyFailureRefreshMissing
	VerifyFailureRefreshExpired
	VerifyFailureRefreshInvalid
	VerifyFailureBindingExpired
	VerifyFailureStore
	VerifyFailureMismatch
)

// VerifyResult carries the bound key on success. Claims is set only by
// RunVerifyAuthorized.
type VerifyResult struct {
	Failure VerifyFailureKind
	Err     error
	Key     string
	Claims  *jwt.Claims
}

// VerifyDeps captures CSRF verification dependencies.
type VerifyDeps struct {
	Store         binding.Store
	Matches       func(key, token, commitment string) bool
	VerifyRefresh func(token string) (*jwt.Claims, error)
	AnonymousTTL  time.Duration
	AuthorizedTTL time.Duration
	Warn          func(msg string, err error)
}

// RunVerifyAnonymous checks a commitment cookie and header token against the
// binding stored under the header token. A header that could never have been
// issued is reported as an expired binding without touching the store.
func RunVerifyAnonymous(ctx context.Context, commitment, headerToken string, deps VerifyDeps) VerifyResult {
	if commitment == "" || headerToken == "" {
		return VerifyResult{Failure: VerifyFailureMissingCredential}
	}
	if !internal.IsCSRFToken(headerToken) {
		return VerifyResult{Failure: VerifyFailureBindingExpired, Err: binding.ErrMiss}
	}
	return checkBinding(ctx, headerToken, commitment, headerToken, deps.AnonymousTTL, deps)
}

// RunVerifyAuthorized checks the refresh token first, then the binding stored
// under it, using the header token to recompute the commitment.
func RunVerifyAuthorized(ctx context.Context, commitment, headerToken, refreshToken string, deps VerifyDeps) VerifyResult {
	if commitment == "" || headerToken == "" {
		return VerifyResult{Failure: VerifyFailureMissingCredential}
	}
	if refreshToken == "" {
		return VerifyResult{Failure: VerifyFailureRefreshMissing}
	}

	claims, err := deps.VerifyRefresh(refreshToken)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return VerifyResult{Failure: VerifyFailureRefreshExpired, Err: err}
		}
		return VerifyResult{Failure: VerifyFailureRefreshInvalid, Err: err}
	}

	res := checkBinding(ctx, refreshToken, commitment, headerToken, deps.AuthorizedTTL, deps)
	res.Claims = claims
	return res
}

func checkBinding(ctx context.Context, storeKey, commitment, headerToken string, ttl time.Duration, deps VerifyDeps) VerifyResult {
	key, err := deps.Store.Get(ctx, storeKey)
	if err != nil {
		if errors.Is(err, binding.ErrMiss) {
			return VerifyResult{Failure: VerifyFailureBindingExpired, Err: err}
		}
		return VerifyResult{Failure: VerifyFailureStore, Err: err}
	}

	if !deps.Matches(key, headerToken, commitment) {
		return VerifyResult{Failure: VerifyFailureMismatch}
	}

	if err := deps.Store.Touch(ctx, storeKey, ttl); err != nil && deps.Warn != nil {
		deps.Warn("goGuard: binding touch failed", err)
	}

	return VerifyResult{Key: key}
}
