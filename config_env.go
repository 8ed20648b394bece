package goGuard

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ConfigFromEnv starts from [DefaultConfig] and applies, when set:
// JWT_SECRET, COOKIE_SECRET, COOKIE_BLOCK_KEY, DOMAIN, ACCESS_TTL,
// REFRESH_TTL, CSRF_TTL, COMMITMENT_MODE, COMMITMENT_SECRET, COOKIE_SECURE,
// STORE_PREFIX, LOGIN_MAX_ATTEMPTS, LOGIN_COOLDOWN, AUDIT_ENABLED.
//
// COMMITMENT_SECRET falls back to COOKIE_SECRET in hmac mode. The result is
// validated before it is returned.
func ConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.JWT.Secret = []byte(v)
	}
	if v := os.Getenv("COOKIE_SECRET"); v != "" {
		cfg.Cookie.HashKey = []byte(v)
	}
	if v := os.Getenv("COOKIE_BLOCK_KEY"); v != "" {
		cfg.Cookie.BlockKey = []byte(v)
	}
	if v := os.Getenv("DOMAIN"); v != "" {
		cfg.Cookie.Domain = v
	}
	if v := os.Getenv("STORE_PREFIX"); v != "" {
		cfg.Store.Prefix = v
	}

	durations := []struct {
		env string
		dst *time.Duration
	}{
		{"ACCESS_TTL", &cfg.JWT.AccessTTL},
		{"REFRESH_TTL", &cfg.JWT.RefreshTTL},
		{"CSRF_TTL", &cfg.CSRF.TTL},
		{"LOGIN_COOLDOWN", &cfg.Security.LoginCooldownDuration},
	}
	for _, d := range durations {
		v := os.Getenv(d.env)
		if v == "" {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", d.env, err)
		}
		*d.dst = parsed
	}

	if v := os.Getenv("COMMITMENT_MODE"); v != "" {
		cfg.CSRF.CommitmentMode = CommitmentMode(strings.ToLower(v))
	}
	if cfg.CSRF.CommitmentMode == CommitmentHMAC {
		secret := os.Getenv("COMMITMENT_SECRET")
		if secret == "" {
			secret = os.Getenv("COOKIE_SECRET")
		}
		cfg.CSRF.CommitmentSecret = []byte(secret)
	}

	if v := os.Getenv("COOKIE_SECURE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid COOKIE_SECURE: %w", err)
		}
		cfg.Cookie.Secure = b
	}
	if v := os.Getenv("AUDIT_ENABLED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid AUDIT_ENABLED: %w", err)
		}
		cfg.Audit.Enabled = b
	}
	if v := os.Getenv("LOGIN_MAX_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid LOGIN_MAX_ATTEMPTS: %w", err)
		}
		cfg.Security.MaxLoginAttempts = n
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
