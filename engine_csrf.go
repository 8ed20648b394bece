package goGuard

import (
	"context"
	"fmt"
	"time"

	"github.com/MrEthical07/goGuard/internal/flows"
	"go.uber.org/zap"
)

// IssueCSRF creates an anonymous binding and returns the client token with
// its commitment. On error nothing is returned and the caller must not set
// a cookie.
func (e *Engine) IssueCSRF(ctx context.Context) (CSRFIssue, error) {
	if !e.ready() {
		return CSRFIssue{}, ErrEngineNotReady
	}

	res := e.flows.Issue(ctx)
	switch res.Failure {
	case flows.IssueFailureNone:
	case flows.IssueFailureRandom:
		e.metricInc(MetricCSRFIssueFailure)
		e.logger.Error("csrf random source failed", zap.Error(res.Err))
		return CSRFIssue{}, fmt.Errorf("%w: %v", ErrSigningFailed, res.Err)
	default:
		e.metricInc(MetricCSRFIssueFailure)
		e.metricInc(MetricStoreError)
		e.logger.Error("csrf binding write failed", zap.String("op", "set"), zap.Error(res.Err))
		return CSRFIssue{}, fmt.Errorf("%w: %v", ErrBindingStore, res.Err)
	}

	e.metricInc(MetricCSRFIssued)
	e.emitAudit(ctx, auditEventCSRFIssued, true, "", nil, nil)

	return CSRFIssue{
		Token:      res.Token,
		Commitment: res.Commitment,
	}, nil
}

// VerifyAnonymous checks the commitment cookie and header token of an
// anonymous request. On success the binding's TTL has been extended (best
// effort) and the returned proof can be passed to [Engine.EstablishSession].
func (e *Engine) VerifyAnonymous(ctx context.Context, commitment, headerToken string) (AnonymousBinding, error) {
	if !e.ready() {
		return AnonymousBinding{}, ErrEngineNotReady
	}

	res := e.flows.VerifyAnonymous(ctx, commitment, headerToken)
	if res.Failure != flows.VerifyFailureNone {
		e.metricInc(MetricAnonymousVerifyFailure)
		err := e.verifyError(res, "get")
		e.emitAudit(ctx, auditEventAnonymousRejected, false, "", err, nil)
		return AnonymousBinding{}, err
	}

	e.metricInc(MetricAnonymousVerifySuccess)
	return AnonymousBinding{token: headerToken, key: res.Key}, nil
}

// VerifyAuthorized checks the commitment cookie, header token and refresh
// token of an authenticated request, in that order. The commitment is
// recomputed from the key bound to the refresh token and the header token.
func (e *Engine) VerifyAuthorized(ctx context.Context, commitment, headerToken, refreshToken string) (AuthorizedSession, error) {
	if !e.ready() {
		return AuthorizedSession{}, ErrEngineNotReady
	}
	if e.metrics.LatencyEnabled() {
		start := time.Now()
		defer func() {
			e.metrics.Observe(MetricAuthorizedVerifyLatency, time.Since(start))
		}()
	}

	res := e.flows.VerifyAuthorized(ctx, commitment, headerToken, refreshToken)
	if res.Failure != flows.VerifyFailureNone {
		e.metricInc(MetricAuthorizedVerifyFailure)
		err := e.verifyError(res, "get")

		event := auditEventAuthorizedRejected
		switch res.Failure {
		case flows.VerifyFailureRefreshMissing, flows.VerifyFailureRefreshExpired, flows.VerifyFailureRefreshInvalid:
			event = auditEventRefreshRejected
		}
		userID := ""
		if res.Claims != nil {
			userID = res.Claims.UserID
		}
		e.emitAudit(ctx, event, false, userID, err, nil)
		return AuthorizedSession{}, err
	}

	e.metricInc(MetricAuthorizedVerifySuccess)
	return AuthorizedSession{
		claims:       res.Claims,
		refreshToken: refreshToken,
		csrfToken:    headerToken,
	}, nil
}

func (e *Engine) verifyError(res flows.VerifyResult, op string) error {
	switch res.Failure {
	case flows.VerifyFailureMissingCredential:
		return ErrMissingCredential
	case flows.VerifyFailureRefreshMissing:
		return ErrRefreshMissing
	case flows.VerifyFailureRefreshExpired:
		return ErrRefreshExpired
	case flows.VerifyFailureRefreshInvalid:
		e.logger.Debug("refresh token rejected", zap.Error(res.Err))
		return ErrRefreshInvalid
	case flows.VerifyFailureBindingExpired:
		return ErrBindingExpired
	case flows.VerifyFailureMismatch:
		return ErrCommitmentMismatch
	case flows.VerifyFailureStore:
		return e.storeFailure(op, res.Err)
	default:
		return ErrEngineNotReady
	}
}
