package goGuard

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/goGuard/internal/flows"
	"github.com/MrEthical07/goGuard/internal/rate"
	"go.uber.org/zap"
)

// EstablishSession moves a verified anonymous binding onto a freshly minted
// refresh token and returns both tokens. The access token is keyed by the
// JWT secret and the CSRF token of the binding.
//
// The anonymous entry is gone after a successful call. On error no tokens
// are returned and the caller must not set cookies.
func (e *Engine) EstablishSession(ctx context.Context, b AnonymousBinding, id Identity) (SessionTokens, error) {
	if !e.ready() {
		return SessionTokens{}, ErrEngineNotReady
	}
	if b.token == "" || b.key == "" {
		return SessionTokens{}, ErrMissingCredential
	}

	res := e.flows.Establish(ctx, flows.EstablishInput{
		Identity:  id,
		CSRFToken: b.token,
		Key:       b.key,
	})

	switch res.Failure {
	case flows.SessionFailureNone:
	case flows.SessionFailureSign:
		e.metricInc(MetricSessionEstablishFailure)
		e.logger.Error("session token signing failed", zap.Error(res.Err))
		return SessionTokens{}, fmt.Errorf("%w: %v", ErrSigningFailed, res.Err)
	case flows.SessionFailureCanceled:
		e.metricInc(MetricSessionEstablishFailure)
		return SessionTokens{}, res.Err
	default:
		e.metricInc(MetricSessionEstablishFailure)
		return SessionTokens{}, e.storeFailure("rebind", res.Err)
	}

	e.metricInc(MetricSessionEstablished)
	e.emitAudit(ctx, auditEventSessionEstablished, true, id.UserID, nil, func() map[string]string {
		return map[string]string{"store": e.storeName}
	})

	return SessionTokens{
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
	}, nil
}

// RefreshSession mints a new access token for a session that passed
// [Engine.VerifyAuthorized]. The refresh token and CSRF binding are not
// rotated.
func (e *Engine) RefreshSession(ctx context.Context, s AuthorizedSession) (string, error) {
	if !e.ready() {
		return "", ErrEngineNotReady
	}
	if s.claims == nil || s.refreshToken == "" || s.csrfToken == "" {
		return "", ErrMissingCredential
	}

	if e.rateLimiter != nil && e.config.Security.EnableRefreshThrottle {
		if err := e.rateLimiter.CheckRefresh(ctx, s.claims.UserID); err != nil {
			if errors.Is(err, rate.ErrRateLimited) {
				e.metricInc(MetricRefreshRateLimited)
				e.emitRateLimit(ctx, "refresh", s.claims.UserID, ErrRefreshRateLimited)
				return "", ErrRefreshRateLimited
			}
			e.logger.Warn("refresh limiter unavailable", zap.Error(err))
		}
	}

	res := e.flows.Refresh(ctx, flows.RefreshInput{
		Claims:       s.claims,
		RefreshToken: s.refreshToken,
		CSRFToken:    s.csrfToken,
	})
	if res.Failure != flows.SessionFailureNone {
		e.metricInc(MetricRefreshFailure)
		e.logger.Error("access token signing failed", zap.Error(res.Err))
		return "", fmt.Errorf("%w: %v", ErrSigningFailed, res.Err)
	}

	e.metricInc(MetricRefreshSuccess)
	e.emitAudit(ctx, auditEventSessionRefreshed, true, s.claims.UserID, nil, nil)
	return res.AccessToken, nil
}

// RevokeSession deletes the binding held by refreshToken. Revoking an
// unknown or empty token is not an error. Access tokens already issued stay
// valid until they expire.
func (e *Engine) RevokeSession(ctx context.Context, refreshToken string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}

	res := e.flows.Revoke(ctx, refreshToken)
	if res.Failure != flows.SessionFailureNone {
		return e.storeFailure("delete", res.Err)
	}

	if refreshToken != "" {
		e.metricInc(MetricSessionRevoked)
		e.emitAudit(ctx, auditEventSessionRevoked, true, "", nil, nil)
	}
	return nil
}

// VerifyAccess checks a bearer access token against the CSRF token sent in
// the request header. It never touches the binding store.
func (e *Engine) VerifyAccess(ctx context.Context, bearer, csrfToken string) (*Claims, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	res := e.flows.VerifyAccess(bearer, csrfToken)
	switch res.Failure {
	case flows.AccessFailureNone:
		e.metricInc(MetricAccessVerifySuccess)
		return res.Claims, nil
	case flows.AccessFailureExpired:
		e.metricInc(MetricAccessExpired)
		e.emitAudit(ctx, auditEventAccessRejected, false, "", ErrTokenExpired, nil)
		return nil, ErrTokenExpired
	default:
		e.metricInc(MetricAccessInvalid)
		e.emitAudit(ctx, auditEventAccessRejected, false, "", ErrTokenInvalid, nil)
		return nil, ErrTokenInvalid
	}
}
