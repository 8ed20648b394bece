package flows

import (
	"context"
	"fmt"
	"time"

	"github.com/MrEthical07/goGuard/binding"
	"github.com/MrEthical07/goGuard/jwt"
)

// SessionFailureKind classifies rotation failures.
type SessionFailureKind int

const (
	SessionFailureNone SessionFailureKind = iota
	SessionFailureSign
	SessionFailureStore
	SessionFailureCanceled
)

// SessionResult carries minted tokens. RefreshToken is empty for refresh and
// revoke flows.
type SessionResult struct {
	Failure      SessionFailureKind
	Err          error
	AccessToken  string
	RefreshToken string
}

// SessionDeps captures establish, refresh and revoke dependencies.
type SessionDeps struct {
	Store           binding.Store
	Sign            func(jwt.TokenRequest) (string, error)
	RefreshTTL      time.Duration
	ExtendOnRefresh bool
	Warn            func(msg string, err error)
}

// EstablishInput is a verified anonymous binding plus the user it now belongs to.
type EstablishInput struct {
	Identity  jwt.Identity
	CSRFToken string
	Key       string
}

// RunEstablish performs the Anonymous -> Authenticated transition: mint both
// tokens, then move key from the CSRF token to the refresh token. The
// anonymous entry never outlives a successful call.
func RunEstablish(ctx context.Context, in EstablishInput, deps SessionDeps) SessionResult {
	refreshToken, err := deps.Sign(jwt.RefreshTokenRequest{Identity: in.Identity})
	if err != nil {
		return SessionResult{Failure: SessionFailureSign, Err: err}
	}
	accessToken, err := deps.Sign(jwt.AccessTokenRequest{Identity: in.Identity, BindingSecret: in.CSRFToken})
	if err != nil {
		return SessionResult{Failure: SessionFailureSign, Err: err}
	}

	if err := ctx.Err(); err != nil {
		return SessionResult{Failure: SessionFailureCanceled, Err: err}
	}

	if err := rebind(ctx, deps, in.CSRFToken, refreshToken, in.Key); err != nil {
		return SessionResult{Failure: SessionFailureStore, Err: err}
	}

	return SessionResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}
}

func rebind(ctx context.Context, deps SessionDeps, oldKey, newKey, value string) error {
	if r, ok := deps.Store.(binding.Rebinder); ok {
		return r.Rebind(ctx, oldKey, newKey, value, deps.RefreshTTL)
	}

	if err := deps.Store.Set(ctx, newKey, value, deps.RefreshTTL); err != nil {
		return err
	}
	if err := deps.Store.Delete(ctx, oldKey); err != nil {
		if rbErr := deps.Store.Delete(ctx, newKey); rbErr != nil && deps.Warn != nil {
			deps.Warn("goGuard: rebind rollback failed", rbErr)
		}
		return fmt.Errorf("delete stale binding: %w", err)
	}
	return nil
}

// RefreshInput is an authorized session as proven by RunVerifyAuthorized.
type RefreshInput struct {
	Claims       *jwt.Claims
	RefreshToken string
	CSRFToken    string
}

// RunRefresh mints a new access token bound to the CSRF token in use and,
// when configured, pushes the refresh binding expiry forward.
func RunRefresh(ctx context.Context, in RefreshInput, deps SessionDeps) SessionResult {
	accessToken, err := deps.Sign(jwt.AccessTokenRequest{
		Identity:      in.Claims.Identity(),
		BindingSecret: in.CSRFToken,
	})
	if err != nil {
		return SessionResult{Failure: SessionFailureSign, Err: err}
	}

	if deps.ExtendOnRefresh {
		if err := deps.Store.Touch(ctx, in.RefreshToken, deps.RefreshTTL); err != nil && deps.Warn != nil {
			deps.Warn("goGuard: refresh binding touch failed", err)
		}
	}

	return SessionResult{AccessToken: accessToken}
}

// RunRevoke deletes the binding stored under refreshToken.
func RunRevoke(ctx context.Context, refreshToken string, deps SessionDeps) SessionResult {
	if refreshToken == "" {
		return SessionResult{}
	}
	if err := deps.Store.Delete(ctx, refreshToken); err != nil {
		return SessionResult{Failure: SessionFailureStore, Err: err}
	}
	return SessionResult{}
}
