package goGuard

import (
	"errors"
	"time"

	"github.com/MrEthical07/goGuard/internal"
)

// Config is the complete engine configuration. Build one with
// [DefaultConfig] or [ConfigFromEnv] and adjust fields before passing it to
// [Builder.WithConfig]. The engine keeps its own copy.
type Config struct {
	JWT      JWTConfig
	CSRF     CSRFConfig
	Cookie   CookieConfig
	Store    StoreConfig
	Password PasswordConfig
	Security SecurityConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig holds the static signing secret and the two expiry policies.
// Access tokens are additionally keyed by the CSRF token in use.
type JWTConfig struct {
	Secret     []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Issuer     string
	Audience   string
	Leeway     time.Duration
}

/*
====================================
CSRF CONFIG
====================================
*/

// CommitmentMode selects how the commitment cookie value is computed.
type CommitmentMode string

const (
	// CommitmentSHA256 is sha256(key ++ token), hex encoded.
	CommitmentSHA256 CommitmentMode = CommitmentMode(internal.CommitSHA256)
	// CommitmentHMAC is HMAC-SHA256(CommitmentSecret, key ++ token), hex encoded.
	CommitmentHMAC CommitmentMode = CommitmentMode(internal.CommitHMAC)
)

// CSRFConfig controls anonymous bindings. TTL is used both when a binding is
// created and when an anonymous check extends it.
type CSRFConfig struct {
	TTL              time.Duration
	CommitmentMode   CommitmentMode
	CommitmentSecret []byte
	ExtendOnRefresh  bool
}

/*
====================================
COOKIE CONFIG
====================================
*/

// CookieConfig is consumed by middleware.NewCookieCodec. HashKey signs
// cookie values; BlockKey, when set, also encrypts them.
type CookieConfig struct {
	Domain   string
	HashKey  []byte
	BlockKey []byte
	Secure   bool
}

// StoreConfig namespaces binding store keys.
type StoreConfig struct {
	Prefix       string
	UserCacheTTL time.Duration
}

// PasswordConfig holds argon2id parameters.
type PasswordConfig struct {
	Memory      uint32 // in KB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

/*
====================================
SECURITY CONFIG
====================================
*/

// SecurityConfig controls Redis-backed login and refresh throttling.
type SecurityConfig struct {
	EnableLoginThrottle     bool
	EnableIPThrottle        bool
	MaxLoginAttempts        int
	LoginCooldownDuration   time.Duration
	EnableRefreshThrottle   bool
	MaxRefreshAttempts      int
	RefreshCooldownDuration time.Duration
}

// AuditConfig controls the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls in-process counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns every default except the secrets, which have none.
func DefaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			AccessTTL:  5 * time.Minute,
			RefreshTTL: 7 * 24 * time.Hour,
		},
		CSRF: CSRFConfig{
			TTL:             5 * time.Minute,
			CommitmentMode:  CommitmentSHA256,
			ExtendOnRefresh: true,
		},
		Cookie: CookieConfig{
			Domain: "api.com",
			Secure: true,
		},
		Store: StoreConfig{
			Prefix:       "gg",
			UserCacheTTL: 60 * time.Second,
		},
		Password: PasswordConfig{
			Memory:      65536,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
		},
		Security: SecurityConfig{
			EnableLoginThrottle:     true,
			EnableIPThrottle:        false,
			MaxLoginAttempts:        5,
			LoginCooldownDuration:   15 * time.Minute,
			EnableRefreshThrottle:   false,
			MaxRefreshAttempts:      30,
			RefreshCooldownDuration: time.Minute,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.Secret = cloneBytes(cfg.JWT.Secret)
	out.CSRF.CommitmentSecret = cloneBytes(cfg.CSRF.CommitmentSecret)
	out.Cookie.HashKey = cloneBytes(cfg.Cookie.HashKey)
	out.Cookie.BlockKey = cloneBytes(cfg.Cookie.BlockKey)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first inconsistency in c.
func (c *Config) Validate() error {
	// JWT
	if len(c.JWT.Secret) == 0 {
		return errors.New("JWT Secret must be set")
	}
	if c.JWT.AccessTTL <= 0 {
		return errors.New("JWT AccessTTL must be > 0")
	}
	if c.JWT.RefreshTTL <= 0 {
		return errors.New("JWT RefreshTTL must be > 0")
	}
	if c.JWT.AccessTTL >= c.JWT.RefreshTTL {
		return errors.New("JWT AccessTTL must be < RefreshTTL")
	}
	if c.JWT.Leeway < 0 || c.JWT.Leeway > 2*time.Minute {
		return errors.New("JWT Leeway must be between 0 and 2m")
	}

	// CSRF
	if c.CSRF.TTL <= 0 {
		return errors.New("CSRF TTL must be > 0")
	}
	if c.CSRF.TTL > c.JWT.RefreshTTL {
		return errors.New("CSRF TTL must be <= JWT RefreshTTL")
	}
	switch c.CSRF.CommitmentMode {
	case CommitmentSHA256:
	case CommitmentHMAC:
		if len(c.CSRF.CommitmentSecret) == 0 {
			return errors.New("CSRF CommitmentSecret required in hmac mode")
		}
	default:
		return errors.New("CSRF CommitmentMode must be 'sha256' or 'hmac'")
	}

	// Cookie
	if c.Cookie.Domain == "" {
		return errors.New("Cookie Domain must be set")
	}
	if len(c.Cookie.HashKey) == 0 {
		return errors.New("Cookie HashKey must be set")
	}
	switch len(c.Cookie.BlockKey) {
	case 0, 16, 24, 32:
	default:
		return errors.New("Cookie BlockKey must be 16, 24 or 32 bytes")
	}

	// Store
	if c.Store.Prefix == "" {
		return errors.New("Store Prefix must be set")
	}
	if c.Store.UserCacheTTL < 0 {
		return errors.New("Store UserCacheTTL must be >= 0")
	}

	// Password
	if c.Password.Memory < 8*1024 {
		return errors.New("Password Memory must be >= 8192 KB")
	}
	if c.Password.Time < 1 {
		return errors.New("Password Time must be >= 1")
	}
	if c.Password.Parallelism < 1 {
		return errors.New("Password Parallelism must be >= 1")
	}
	if c.Password.SaltLength < 16 {
		return errors.New("Password SaltLength must be >= 16")
	}
	if c.Password.KeyLength < 16 {
		return errors.New("Password KeyLength must be >= 16")
	}

	// Security
	if c.Security.EnableLoginThrottle {
		if c.Security.MaxLoginAttempts <= 0 {
			return errors.New("Security MaxLoginAttempts must be > 0")
		}
		if c.Security.LoginCooldownDuration <= 0 {
			return errors.New("Security LoginCooldownDuration must be > 0")
		}
	}
	if c.Security.EnableRefreshThrottle {
		if c.Security.MaxRefreshAttempts <= 0 {
			return errors.New("Security MaxRefreshAttempts must be > 0")
		}
		if c.Security.RefreshCooldownDuration <= 0 {
			return errors.New("Security RefreshCooldownDuration must be > 0")
		}
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0")
	}

	return nil
}
