package flows

import (
	"context"
	"errors"
	"strings"
	"time"
)

type AccountUserRecord struct {
	UserID       string
	Email        string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
}

type AccountCreateUserInput struct {
	Email        string
	Name         string
	PasswordHash string
}

type RegisterRequest struct {
	Email    string
	Name     string
	Password string
}

// AccountFailureKind classifies register and login failures.
type AccountFailureKind int

const (
	AccountFailureNone AccountFailureKind = iota
	AccountFailureInvalid
	AccountFailureExists
	AccountFailureInvalidCredentials
	AccountFailureRateLimited
	AccountFailureProvider
	AccountFailureHash
)

type AccountResult struct {
	Failure AccountFailureKind
	Err     error
	User    AccountUserRecord
}

// AccountDeps captures the user provider, password hasher and login limiter.
// Limiter hooks may be nil when throttling is disabled.
type AccountDeps struct {
	HashPassword   func(string) (string, error)
	VerifyPassword func(password, hash string) (bool, error)
	DummyHash      string

	CreateUser     func(context.Context, AccountCreateUserInput) (AccountUserRecord, error)
	GetUserByEmail func(context.Context, string) (AccountUserRecord, error)
	CacheUser      func(context.Context, AccountUserRecord)

	ErrAccountExists error
	ErrUserNotFound  error

	ClientIPFromContext func(context.Context) string
	CheckLoginLimit     func(ctx context.Context, email, ip string) error
	RecordLoginFailure  func(ctx context.Context, email, ip string) error
	ResetLoginLimit     func(ctx context.Context, email, ip string) error
	ErrRateLimited      error
	Warn                func(msg string, err error)
}

// NormalizeEmail lower-cases and trims an email so lookups and uniqueness
// agree.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// RunRegister hashes the password and creates the user. The record is cached
// best-effort.
func RunRegister(ctx context.Context, req RegisterRequest, deps AccountDeps) AccountResult {
	email := NormalizeEmail(req.Email)
	name := strings.TrimSpace(req.Name)
	if email == "" || name == "" || req.Password == "" || !strings.Contains(email, "@") {
		return AccountResult{Failure: AccountFailureInvalid}
	}

	hash, err := deps.HashPassword(req.Password)
	if err != nil {
		return AccountResult{Failure: AccountFailureHash, Err: err}
	}

	user, err := deps.CreateUser(ctx, AccountCreateUserInput{
		Email:        email,
		Name:         name,
		PasswordHash: hash,
	})
	if err != nil {
		if deps.ErrAccountExists != nil && errors.Is(err, deps.ErrAccountExists) {
			return AccountResult{Failure: AccountFailureExists, Err: err}
		}
		return AccountResult{Failure: AccountFailureProvider, Err: err}
	}

	if deps.CacheUser != nil {
		deps.CacheUser(ctx, user)
	}
	return AccountResult{User: user}
}

// RunLogin checks credentials. Unknown email and wrong password are
// indistinguishable to the caller.
func RunLogin(ctx context.Context, email, password string, deps AccountDeps) AccountResult {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return AccountResult{Failure: AccountFailureInvalid}
	}

	ip := ""
	if deps.ClientIPFromContext != nil {
		ip = deps.ClientIPFromContext(ctx)
	}

	if deps.CheckLoginLimit != nil {
		if err := deps.CheckLoginLimit(ctx, email, ip); err != nil {
			if deps.ErrRateLimited != nil && errors.Is(err, deps.ErrRateLimited) {
				return AccountResult{Failure: AccountFailureRateLimited, Err: err}
			}
			return AccountResult{Failure: AccountFailureProvider, Err: err}
		}
	}

	user, err := deps.GetUserByEmail(ctx, email)
	if err != nil {
		if deps.ErrUserNotFound != nil && errors.Is(err, deps.ErrUserNotFound) {
			if deps.DummyHash != "" {
				_, _ = deps.VerifyPassword(password, deps.DummyHash)
			}
			return loginFailed(ctx, email, ip, deps)
		}
		return AccountResult{Failure: AccountFailureProvider, Err: err}
	}

	ok, err := deps.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return AccountResult{Failure: AccountFailureHash, Err: err}
	}
	if !ok {
		return loginFailed(ctx, email, ip, deps)
	}

	if deps.ResetLoginLimit != nil {
		if err := deps.ResetLoginLimit(ctx, email, ip); err != nil && deps.Warn != nil {
			deps.Warn("goGuard: login limiter reset failed", err)
		}
	}
	return AccountResult{User: user}
}

func loginFailed(ctx context.Context, email, ip string, deps AccountDeps) AccountResult {
	if deps.RecordLoginFailure != nil {
		if err := deps.RecordLoginFailure(ctx, email, ip); err != nil && deps.Warn != nil &&
			(deps.ErrRateLimited == nil || !errors.Is(err, deps.ErrRateLimited)) {
			deps.Warn("goGuard: login limiter increment failed", err)
		}
	}
	return AccountResult{Failure: AccountFailureInvalidCredentials}
}
