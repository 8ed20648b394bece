package goGuard

import (
	"fmt"
	"strings"
	"time"
)

// LintSeverity ranks a [LintWarning].
type LintSeverity int

const (
	LintInfo LintSeverity = iota
	LintWarn
	LintHigh
)

func (s LintSeverity) String() string {
	switch s {
	case LintInfo:
		return "INFO"
	case LintWarn:
		return "WARN"
	case LintHigh:
		return "HIGH"
	default:
		return "UNKNOWN"
	}
}

// LintWarning is a configuration that passes Validate but is likely a mistake
// in production.
type LintWarning struct {
	Code     string
	Severity LintSeverity
	Message  string
}

// LintResult is the ordered list returned by [Config.Lint].
type LintResult []LintWarning

// Codes returns the warning codes in order.
func (r LintResult) Codes() []string {
	out := make([]string, 0, len(r))
	for _, w := range r {
		out = append(out, w.Code)
	}
	return out
}

// BySeverity returns warnings at or above min.
func (r LintResult) BySeverity(min LintSeverity) LintResult {
	var out LintResult
	for _, w := range r {
		if w.Severity >= min {
			out = append(out, w)
		}
	}
	return out
}

// AsError returns nil unless some warning is at or above min.
func (r LintResult) AsError(min LintSeverity) error {
	hits := r.BySeverity(min)
	if len(hits) == 0 {
		return nil
	}
	msgs := make([]string, 0, len(hits))
	for _, w := range hits {
		msgs = append(msgs, fmt.Sprintf("[%s] %s: %s", w.Severity, w.Code, w.Message))
	}
	return fmt.Errorf("config lint: %s", strings.Join(msgs, "; "))
}

// Lint reports risky but valid settings. It never mutates c.
func (c *Config) Lint() LintResult {
	var ws LintResult
	add := func(code string, sev LintSeverity, msg string) {
		ws = append(ws, LintWarning{Code: code, Severity: sev, Message: msg})
	}

	if !c.Cookie.Secure {
		add("cookie_insecure", LintHigh, "cookies are sent without the Secure attribute; __Host- cookies are rejected by browsers")
	}
	if len(c.JWT.Secret) < 32 {
		add("jwt_secret_short", LintHigh, "JWT secret shorter than 32 bytes")
	}
	if len(c.Cookie.HashKey) < 32 {
		add("cookie_key_short", LintWarn, "cookie hash key shorter than 32 bytes")
	}
	if c.CSRF.CommitmentMode == CommitmentSHA256 {
		add("commitment_unkeyed", LintInfo, "sha256 commitments are unkeyed; hmac mode is preferred when clients do not recompute them")
	}
	if c.JWT.AccessTTL > 15*time.Minute {
		add("access_ttl_long", LintWarn, "access tokens live longer than 15m")
	}
	if c.JWT.RefreshTTL > 30*24*time.Hour {
		add("refresh_ttl_long", LintWarn, "refresh tokens live longer than 30 days")
	}
	if c.CSRF.TTL > time.Hour {
		add("csrf_ttl_long", LintWarn, "anonymous CSRF bindings live longer than 1h")
	}
	if c.JWT.Leeway > time.Minute {
		add("leeway_large", LintWarn, "JWT leeway above 1m")
	}
	if !c.Security.EnableLoginThrottle {
		add("login_throttle_disabled", LintWarn, "failed logins are not throttled")
	}
	if c.Password.Memory < 32*1024 {
		add("argon2_memory_low", LintWarn, "argon2 memory below 32 MB")
	}
	if !c.Audit.Enabled {
		add("audit_disabled", LintInfo, "audit events are not dispatched")
	}

	return ws
}
