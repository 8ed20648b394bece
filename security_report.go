package goGuard

import "time"

// SecurityReport summarizes the effective security posture of a built engine.
// It holds no secrets and is safe to log.
type SecurityReport struct {
	CommitmentMode        CommitmentMode
	BindingStore          string
	AtomicRebind          bool
	AccessTTL             time.Duration
	RefreshTTL            time.Duration
	CSRFTTL               time.Duration
	CookieSecure          bool
	CookieEncrypted       bool
	LoginThrottleActive   bool
	RefreshThrottleActive bool
	AuditEnabled          bool
	Argon2                PasswordConfigReport
}

type PasswordConfigReport struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

func (e *Engine) SecurityReport() SecurityReport {
	if e == nil {
		return SecurityReport{}
	}

	return SecurityReport{
		CommitmentMode:        e.config.CSRF.CommitmentMode,
		BindingStore:          e.storeName,
		AtomicRebind:          e.atomicRebind,
		AccessTTL:             e.config.JWT.AccessTTL,
		RefreshTTL:            e.config.JWT.RefreshTTL,
		CSRFTTL:               e.config.CSRF.TTL,
		CookieSecure:          e.config.Cookie.Secure,
		CookieEncrypted:       len(e.config.Cookie.BlockKey) > 0,
		LoginThrottleActive:   e.rateLimiter != nil && e.config.Security.EnableLoginThrottle,
		RefreshThrottleActive: e.rateLimiter != nil && e.config.Security.EnableRefreshThrottle,
		AuditEnabled:          e.audit != nil,
		Argon2: PasswordConfigReport{
			Memory:      e.config.Password.Memory,
			Time:        e.config.Password.Time,
			Parallelism: e.config.Password.Parallelism,
			SaltLength:  e.config.Password.SaltLength,
			KeyLength:   e.config.Password.KeyLength,
		},
	}
}
