package goGuard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/MrEthical07/goGuard/internal/flows"
	"github.com/MrEthical07/goGuard/password"
	"go.uber.org/zap"
)

// Register creates an account through the configured [UserProvider]. The
// email is normalized and the password hashed with argon2id before the
// provider sees it.
func (e *Engine) Register(ctx context.Context, req RegisterRequest) (UserRecord, error) {
	if !e.ready() || e.userProvider == nil {
		return UserRecord{}, ErrEngineNotReady
	}

	res := e.flows.Register(ctx, flows.RegisterRequest{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
	})

	switch res.Failure {
	case flows.AccountFailureNone:
	case flows.AccountFailureInvalid:
		return UserRecord{}, ErrAccountInvalid
	case flows.AccountFailureExists:
		e.metricInc(MetricAccountDuplicate)
		e.emitAudit(ctx, auditEventAccountDuplicate, false, "", ErrAccountExists, nil)
		return UserRecord{}, ErrAccountExists
	case flows.AccountFailureHash:
		if errors.Is(res.Err, password.ErrPasswordLength) {
			return UserRecord{}, ErrAccountInvalid
		}
		e.logger.Error("password hashing failed", zap.Error(res.Err))
		return UserRecord{}, res.Err
	default:
		e.logger.Error("user provider failed", zap.String("op", "create"), zap.Error(res.Err))
		return UserRecord{}, fmt.Errorf("%w: %v", ErrUserProvider, res.Err)
	}

	user := fromFlowUser(res.User)
	e.metricInc(MetricAccountCreated)
	e.emitAudit(ctx, auditEventAccountCreated, true, user.UserID, nil, nil)
	return user, nil
}

// Login checks an email and password. Unknown emails and wrong passwords
// both return ErrInvalidCredentials after comparable work.
//
// Login does not issue tokens; pass the returned record's Identity to
// [Engine.EstablishSession] together with a verified anonymous binding.
func (e *Engine) Login(ctx context.Context, email, pw string) (UserRecord, error) {
	if !e.ready() || e.userProvider == nil {
		return UserRecord{}, ErrEngineNotReady
	}

	res := e.flows.Login(ctx, email, pw)
	switch res.Failure {
	case flows.AccountFailureNone:
	case flows.AccountFailureInvalid, flows.AccountFailureInvalidCredentials:
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, "", ErrInvalidCredentials, nil)
		return UserRecord{}, ErrInvalidCredentials
	case flows.AccountFailureRateLimited:
		e.metricInc(MetricLoginRateLimited)
		e.emitRateLimit(ctx, "login", flows.NormalizeEmail(email), ErrLoginRateLimited)
		return UserRecord{}, ErrLoginRateLimited
	case flows.AccountFailureHash:
		if errors.Is(res.Err, password.ErrPasswordLength) {
			e.metricInc(MetricLoginFailure)
			return UserRecord{}, ErrInvalidCredentials
		}
		e.logger.Error("password verification failed", zap.Error(res.Err))
		return UserRecord{}, res.Err
	default:
		e.logger.Error("user provider failed", zap.String("op", "lookup"), zap.Error(res.Err))
		return UserRecord{}, fmt.Errorf("%w: %v", ErrUserProvider, res.Err)
	}

	user := fromFlowUser(res.User)
	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, auditEventLoginSuccess, true, user.UserID, nil, nil)
	return user, nil
}

type cachedUser struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// userCacheSpace keeps cached users out of the binding key space, so a user
// ID can never be presented as a CSRF token.
const userCacheSpace = "u"

// cacheUser writes the public part of a user record under <prefix>:u:<id>.
// Stores without namespaces skip the cache. Failures are logged only.
func (e *Engine) cacheUser(ctx context.Context, u flows.AccountUserRecord) {
	if e.userCache == nil || e.config.Store.UserCacheTTL <= 0 || u.UserID == "" {
		return
	}
	raw, err := json.Marshal(cachedUser{Email: u.Email, Name: u.Name})
	if err != nil {
		return
	}
	if err := e.userCache.Set(ctx, u.UserID, string(raw), e.config.Store.UserCacheTTL); err != nil {
		e.logger.Warn("user cache write failed", zap.String("user_id", u.UserID), zap.Error(err))
	}
}
