package goGuard

import (
	"context"
	"errors"

	internalaudit "github.com/MrEthical07/goGuard/internal/audit"
)

const (
	auditEventCSRFIssued         = internalaudit.KindCSRFIssued
	auditEventAnonymousRejected  = internalaudit.KindAnonymousRejected
	auditEventAuthorizedRejected = internalaudit.KindAuthorizedRejected
	auditEventRefreshRejected    = internalaudit.KindRefreshRejected
	auditEventSessionEstablished = internalaudit.KindSessionEstablished
	auditEventSessionRefreshed   = internalaudit.KindSessionRefreshed
	auditEventSessionRevoked     = internalaudit.KindSessionRevoked
	auditEventAccessRejected     = internalaudit.KindAccessRejected
	auditEventAccountCreated     = internalaudit.KindAccountCreated
	auditEventAccountDuplicate   = internalaudit.KindAccountDuplicate
	auditEventLoginSuccess       = internalaudit.KindLoginSuccess
	auditEventLoginFailure       = internalaudit.KindLoginFailure
	auditEventRateLimitTriggered = internalaudit.KindRateLimitTriggered
)

// AuditErrorCode is the stable error label attached to failed audit events.
type AuditErrorCode string

const (
	auditErrMissingCredential  AuditErrorCode = "missing_credential"
	auditErrBindingExpired     AuditErrorCode = "binding_expired"
	auditErrCommitmentMismatch AuditErrorCode = "commitment_mismatch"
	auditErrRefreshMissing     AuditErrorCode = "refresh_missing"
	auditErrRefreshExpired     AuditErrorCode = "refresh_expired"
	auditErrInvalidToken       AuditErrorCode = "invalid_token"
	auditErrTokenExpired       AuditErrorCode = "token_expired"
	auditErrInvalidCredentials AuditErrorCode = "invalid_credentials"
	auditErrDuplicate          AuditErrorCode = "duplicate"
	auditErrRateLimited        AuditErrorCode = "rate_limited"
	auditErrUnavailable        AuditErrorCode = "backend_unavailable"
	auditErrInternal           AuditErrorCode = "internal_error"
)

// emitAudit queues one event. The dispatcher stamps time, stage, request ID
// and client IP.
func (e *Engine) emitAudit(
	ctx context.Context,
	kind AuditKind,
	success bool,
	userID string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Kind:     kind,
		UserID:   userID,
		Success:  success,
		Metadata: metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func (e *Engine) emitRateLimit(ctx context.Context, scope, subject string, err error) {
	e.emitAudit(ctx, auditEventRateLimitTriggered, false, "", err, func() map[string]string {
		return map[string]string{
			"scope":   scope,
			"subject": subject,
		}
	})
}

// enrichAudit copies request-scoped context values onto an event.
func enrichAudit(ctx context.Context, event *AuditEvent) {
	event.RequestID = requestIDFromContext(ctx)
	event.IP = clientIPFromContext(ctx)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrMissingCredential):
		return auditErrMissingCredential
	case errors.Is(err, ErrBindingExpired):
		return auditErrBindingExpired
	case errors.Is(err, ErrCommitmentMismatch):
		return auditErrCommitmentMismatch
	case errors.Is(err, ErrRefreshMissing):
		return auditErrRefreshMissing
	case errors.Is(err, ErrRefreshExpired):
		return auditErrRefreshExpired
	case errors.Is(err, ErrTokenExpired):
		return auditErrTokenExpired
	case errors.Is(err, ErrRefreshInvalid),
		errors.Is(err, ErrTokenInvalid):
		return auditErrInvalidToken
	case errors.Is(err, ErrInvalidCredentials):
		return auditErrInvalidCredentials
	case errors.Is(err, ErrAccountExists):
		return auditErrDuplicate
	case errors.Is(err, ErrLoginRateLimited),
		errors.Is(err, ErrRefreshRateLimited):
		return auditErrRateLimited
	case errors.Is(err, ErrStoreUnavailable),
		errors.Is(err, ErrBindingStore),
		errors.Is(err, ErrUserProvider):
		return auditErrUnavailable
	default:
		return auditErrInternal
	}
}
