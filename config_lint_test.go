package goGuard

import (
	"testing"
	"time"
)

func TestLint_TestConfigNoHighWarnings(t *testing.T) {
	cfg := testConfig()
	if err := cfg.Lint().AsError(LintHigh); err != nil {
		t.Errorf("test config should not fail AsError(LintHigh): %v", err)
	}
}

func TestLint_Codes(t *testing.T) {
	tests := []struct {
		code   string
		mutate func(*Config)
	}{
		{"cookie_insecure", func(c *Config) { c.Cookie.Secure = false }},
		{"jwt_secret_short", func(c *Config) { c.JWT.Secret = []byte("short") }},
		{"cookie_key_short", func(c *Config) { c.Cookie.HashKey = []byte("short") }},
		{"access_ttl_long", func(c *Config) { c.JWT.AccessTTL = 20 * time.Minute }},
		{"refresh_ttl_long", func(c *Config) { c.JWT.RefreshTTL = 60 * 24 * time.Hour }},
		{"csrf_ttl_long", func(c *Config) { c.CSRF.TTL = 2 * time.Hour }},
		{"leeway_large", func(c *Config) { c.JWT.Leeway = 90 * time.Second }},
		{"login_throttle_disabled", func(c *Config) { c.Security.EnableLoginThrottle = false }},
		{"argon2_memory_low", func(c *Config) { c.Password.Memory = 16 * 1024 }},
		{"audit_disabled", func(c *Config) { c.Audit.Enabled = false }},
	}

	for _, tc := range tests {
		t.Run(tc.code, func(t *testing.T) {
			cfg := testConfig()
			cfg.Password.Memory = 64 * 1024
			cfg.Audit.Enabled = true
			if containsCode(cfg.Lint().Codes(), tc.code) {
				t.Fatalf("baseline already reports %q", tc.code)
			}
			tc.mutate(&cfg)
			if !containsCode(cfg.Lint().Codes(), tc.code) {
				t.Fatalf("expected %q warning", tc.code)
			}
		})
	}
}

func TestLint_CommitmentModeInfo(t *testing.T) {
	cfg := testConfig()
	if !containsCode(cfg.Lint().Codes(), "commitment_unkeyed") {
		t.Error("expected commitment_unkeyed for sha256 mode")
	}
	cfg.CSRF.CommitmentMode = CommitmentHMAC
	cfg.CSRF.CommitmentSecret = []byte("secret")
	if containsCode(cfg.Lint().Codes(), "commitment_unkeyed") {
		t.Error("hmac mode should not report commitment_unkeyed")
	}
}

func TestLint_AsError(t *testing.T) {
	cfg := testConfig()
	cfg.Cookie.Secure = false
	if err := cfg.Lint().AsError(LintHigh); err == nil {
		t.Error("expected AsError(LintHigh) to return error for insecure cookies")
	}
}

func TestLint_BySeverity(t *testing.T) {
	cfg := testConfig()
	cfg.Cookie.Secure = false
	cfg.JWT.Leeway = 90 * time.Second
	ws := cfg.Lint()

	high := ws.BySeverity(LintHigh)
	if len(high) != 1 || high[0].Code != "cookie_insecure" {
		t.Errorf("expected only cookie_insecure at HIGH, got %v", high.Codes())
	}
	for _, w := range ws.BySeverity(LintWarn) {
		if w.Severity < LintWarn {
			t.Errorf("BySeverity(LintWarn) returned warning with severity %s", w.Severity)
		}
	}
}

// helpers

func containsCode(codes []string, code string) bool {
	for _, c := range codes {
		if c == code {
			return true
		}
	}
	return false
}
