package goGuard

import "errors"

var (
	// ErrMissingCredential is returned when the commitment cookie or the
	// x-csrf-token header is absent.
	ErrMissingCredential = errors.New("csrf credential missing")
	// ErrBindingExpired is returned when no live binding exists for the
	// presented token. A never-issued token looks the same.
	ErrBindingExpired = errors.New("csrf binding expired")
	// ErrCommitmentMismatch is returned when the recomputed commitment differs
	// from the cookie.
	ErrCommitmentMismatch = errors.New("csrf commitment mismatch")
	// ErrRefreshMissing is returned when an authorized check finds no refresh cookie.
	ErrRefreshMissing = errors.New("refresh token missing")
	// ErrRefreshExpired is returned for a well-formed refresh token past its expiry.
	ErrRefreshExpired = errors.New("refresh token expired")
	// ErrRefreshInvalid is returned for any other refresh token failure.
	ErrRefreshInvalid = errors.New("invalid refresh token")
	// ErrTokenExpired is returned for an expired access token.
	ErrTokenExpired = errors.New("access token expired")
	// ErrTokenInvalid is returned for a missing, malformed, forged or
	// wrongly bound access token.
	ErrTokenInvalid = errors.New("invalid access token")
	// ErrStoreUnavailable wraps binding store failures other than a miss.
	ErrStoreUnavailable = errors.New("binding store unavailable")
	// ErrBindingStore is returned when CSRF issuance cannot persist its binding.
	ErrBindingStore = errors.New("binding store write failed")
	// ErrSigningFailed wraps token signing and random source failures.
	ErrSigningFailed = errors.New("signing failed")
	// ErrInvalidCredentials is returned by Login for an unknown email or wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserNotFound must be returned by UserProvider.GetUserByEmail on a miss.
	ErrUserNotFound = errors.New("user not found")
	// ErrAccountExists must be returned by UserProvider.CreateUser for a duplicate email.
	ErrAccountExists = errors.New("account already exists")
	// ErrAccountInvalid is returned by Register and Login when a required field is empty.
	ErrAccountInvalid = errors.New("invalid account request")
	// ErrUserProvider wraps unexpected user provider failures.
	ErrUserProvider = errors.New("user provider failure")
	// ErrLoginRateLimited is returned once the failed-login budget is spent.
	ErrLoginRateLimited = errors.New("login rate limited")
	// ErrRefreshRateLimited is returned once the per-user refresh budget is spent.
	ErrRefreshRateLimited = errors.New("refresh rate limited")
	// ErrEngineNotReady is returned when an operation needs a dependency the
	// engine was built without.
	ErrEngineNotReady = errors.New("engine not initialized")
)
