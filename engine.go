package goGuard

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/goGuard/binding"
	"github.com/MrEthical07/goGuard/internal"
	internalaudit "github.com/MrEthical07/goGuard/internal/audit"
	"github.com/MrEthical07/goGuard/internal/flows"
	"github.com/MrEthical07/goGuard/internal/rate"
	"github.com/MrEthical07/goGuard/jwt"
	"github.com/MrEthical07/goGuard/password"
	"go.uber.org/zap"
)

// Engine issues and verifies CSRF bindings and session tokens.
//
// Engine instances are built once by [Builder] and are safe for concurrent
// use. The binding store and token secrets are the only shared state.
type Engine struct {
	config       Config
	store        binding.Store
	userCache    binding.Store
	storeName    string
	atomicRebind bool
	committer    *internal.Committer
	tokens       *jwt.Manager
	rateLimiter  *rate.Limiter
	passwordHash *password.Argon2
	dummyHash    string
	userProvider UserProvider
	flows        flows.Service
	audit        *internalaudit.Dispatcher
	metrics      *Metrics
	logger       *zap.Logger
}

// Close flushes and stops the audit dispatcher. It does not close the
// binding store or Redis client; their owner does.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// Config returns a copy of the effective configuration.
func (e *Engine) Config() Config {
	if e == nil {
		return Config{}
	}
	return cloneConfig(e.config)
}

// AuditDropped returns how many audit events were discarded because the
// dispatcher buffer was full or the emitting request gave up waiting.
func (e *Engine) AuditDropped() uint64 {
	if e == nil {
		return 0
	}
	return e.audit.Dropped()
}

// AuditDroppedByEvent breaks AuditDropped down by event name. Every event
// name is present, with zero when nothing was dropped.
func (e *Engine) AuditDroppedByEvent() map[string]uint64 {
	var d *internalaudit.Dispatcher
	if e != nil {
		d = e.audit
	}
	byKind := d.DroppedByKind()
	out := make(map[string]uint64, len(byKind))
	for k, n := range byKind {
		out[string(k)] = n
	}
	return out
}

// MetricsSnapshot copies the current counters and latency buckets. A nil
// engine or disabled metrics yield empty maps, never nil ones.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return emptySnapshot()
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) ready() bool {
	return e != nil && e.flows.Initialized()
}

func (e *Engine) warnTouch(msg string, err error) {
	e.metricInc(MetricBindingTouchFailure)
	e.logger.Warn(msg, zap.Error(err))
}

func (e *Engine) storeFailure(op string, err error) error {
	e.metricInc(MetricStoreError)
	e.logger.Error("binding store failure", zap.String("op", op), zap.Error(err))
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}

func (e *Engine) flowDeps() flows.Deps {
	deps := flows.Deps{
		Issue: flows.IssueDeps{
			NewKey:   internal.NewCSRFKey,
			NewToken: internal.NewCSRFToken,
			Commit:   e.committer.Commit,
			Store:    e.store,
			TTL:      e.config.CSRF.TTL,
		},
		Verify: flows.VerifyDeps{
			Store:   e.store,
			Matches: e.committer.Matches,
			VerifyRefresh: func(token string) (*jwt.Claims, error) {
				return e.tokens.Verify(jwt.KindRefresh, token, "")
			},
			AnonymousTTL:  e.config.CSRF.TTL,
			AuthorizedTTL: e.config.JWT.RefreshTTL,
			Warn:          e.warnTouch,
		},
		Session: flows.SessionDeps{
			Store:           e.store,
			Sign:            e.tokens.Sign,
			RefreshTTL:      e.config.JWT.RefreshTTL,
			ExtendOnRefresh: e.config.CSRF.ExtendOnRefresh,
			Warn:            e.warnTouch,
		},
		Access: flows.AccessDeps{
			VerifyAccess: func(token, csrfToken string) (*jwt.Claims, error) {
				return e.tokens.Verify(jwt.KindAccess, token, csrfToken)
			},
		},
	}

	if e.userProvider != nil && e.passwordHash != nil {
		deps.Account = e.accountDeps()
	}

	return deps
}

func (e *Engine) accountDeps() flows.AccountDeps {
	deps := flows.AccountDeps{
		HashPassword:   e.passwordHash.Hash,
		VerifyPassword: e.passwordHash.Verify,
		DummyHash:      e.dummyHash,
		CreateUser: func(ctx context.Context, in flows.AccountCreateUserInput) (flows.AccountUserRecord, error) {
			u, err := e.userProvider.CreateUser(ctx, CreateUserInput{
				Email:        in.Email,
				Name:         in.Name,
				PasswordHash: in.PasswordHash,
			})
			return toFlowUser(u), err
		},
		GetUserByEmail: func(ctx context.Context, email string) (flows.AccountUserRecord, error) {
			u, err := e.userProvider.GetUserByEmail(ctx, email)
			return toFlowUser(u), err
		},
		CacheUser:           e.cacheUser,
		ErrAccountExists:    ErrAccountExists,
		ErrUserNotFound:     ErrUserNotFound,
		ClientIPFromContext: clientIPFromContext,
		ErrRateLimited:      rate.ErrRateLimited,
		Warn: func(msg string, err error) {
			e.logger.Warn(msg, zap.Error(err))
		},
	}

	if e.rateLimiter != nil && e.config.Security.EnableLoginThrottle {
		deps.CheckLoginLimit = e.rateLimiter.CheckLogin
		deps.RecordLoginFailure = e.rateLimiter.IncrementLogin
		deps.ResetLoginLimit = e.rateLimiter.ResetLogin
	}

	return deps
}

func toFlowUser(u UserRecord) flows.AccountUserRecord {
	return flows.AccountUserRecord{
		UserID:       u.UserID,
		Email:        u.Email,
		Name:         u.Name,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
	}
}

func fromFlowUser(u flows.AccountUserRecord) UserRecord {
	return UserRecord{
		UserID:       u.UserID,
		Email:        u.Email,
		Name:         u.Name,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
	}
}

// IsClientError reports whether err is one of the credential or binding
// errors that map to a 4xx response.
func IsClientError(err error) bool {
	switch {
	case errors.Is(err, ErrMissingCredential),
		errors.Is(err, ErrBindingExpired),
		errors.Is(err, ErrCommitmentMismatch),
		errors.Is(err, ErrRefreshMissing),
		errors.Is(err, ErrRefreshExpired),
		errors.Is(err, ErrRefreshInvalid),
		errors.Is(err, ErrTokenExpired),
		errors.Is(err, ErrTokenInvalid),
		errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrAccountExists),
		errors.Is(err, ErrAccountInvalid),
		errors.Is(err, ErrLoginRateLimited),
		errors.Is(err, ErrRefreshRateLimited):
		return true
	default:
		return false
	}
}
