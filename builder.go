package goGuard

import (
	"errors"
	"time"

	"github.com/MrEthical07/goGuard/binding"
	"github.com/MrEthical07/goGuard/internal"
	internalaudit "github.com/MrEthical07/goGuard/internal/audit"
	"github.com/MrEthical07/goGuard/internal/flows"
	"github.com/MrEthical07/goGuard/internal/rate"
	"github.com/MrEthical07/goGuard/jwt"
	"github.com/MrEthical07/goGuard/password"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Builder assembles an [Engine]. Each Builder produces at most one engine.
//
//	engine, err := goGuard.New().
//		WithConfig(cfg).
//		WithRedis(rdb).
//		WithUserProvider(users).
//		WithLogger(logger).
//		Build()
type Builder struct {
	config Config
	redis  redis.UniversalClient
	store  binding.Store

	userProvider UserProvider
	auditSink    AuditSink
	logger       *zap.Logger
	now          func() time.Time

	built bool
}

// New returns a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the whole configuration. The Builder keeps a copy.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis sets the client used for login/refresh throttling and, unless
// [Builder.WithBindingStore] is also called, for the binding store.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithBindingStore sets an explicit binding store, for example a
// binding.MemcachedStore.
func (b *Builder) WithBindingStore(store binding.Store) *Builder {
	b.store = store
	return b
}

// WithUserProvider enables [Engine.Register] and [Engine.Login].
func (b *Builder) WithUserProvider(up UserProvider) *Builder {
	b.userProvider = up
	return b
}

// WithAuditSink sets where audit events go. Audit.Enabled must also be true.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithLogger sets the engine logger. A nil logger discards output.
func (b *Builder) WithLogger(logger *zap.Logger) *Builder {
	b.logger = logger
	return b
}

// WithClock overrides the clock used for token issue and expiry checks.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and wires every component.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// -------- BINDING STORE --------
	store := b.store
	if store == nil {
		if b.redis == nil {
			return nil, errors.New("binding store or redis client required")
		}
		store = binding.NewRedisStore(b.redis, cfg.Store.Prefix)
	}
	if b.redis == nil && (cfg.Security.EnableLoginThrottle || cfg.Security.EnableRefreshThrottle) {
		return nil, errors.New("login and refresh throttling require redis client")
	}

	committer, err := internal.NewCommitter(internal.CommitMode(cfg.CSRF.CommitmentMode), cfg.CSRF.CommitmentSecret)
	if err != nil {
		return nil, err
	}

	tokens, err := jwt.NewManager(jwt.Config{
		Secret:     cloneBytes(cfg.JWT.Secret),
		AccessTTL:  cfg.JWT.AccessTTL,
		RefreshTTL: cfg.JWT.RefreshTTL,
		Issuer:     cfg.JWT.Issuer,
		Audience:   cfg.JWT.Audience,
		Leeway:     cfg.JWT.Leeway,
		Now:        b.now,
	})
	if err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	engine := &Engine{
		config:       cloneConfig(cfg),
		store:        store,
		storeName:    storeName(store),
		committer:    committer,
		tokens:       tokens,
		userProvider: b.userProvider,
		logger:       logger.Named("goguard"),
	}
	_, engine.atomicRebind = store.(binding.Rebinder)
	if ns, ok := store.(binding.Namespacer); ok {
		engine.userCache = ns.Namespace(userCacheSpace)
	}

	if b.redis != nil {
		engine.rateLimiter = rate.New(b.redis, rate.Config{
			Prefix:                  cfg.Store.Prefix,
			EnableIPThrottle:        cfg.Security.EnableIPThrottle,
			EnableRefreshThrottle:   cfg.Security.EnableRefreshThrottle,
			MaxLoginAttempts:        cfg.Security.MaxLoginAttempts,
			LoginCooldownDuration:   cfg.Security.LoginCooldownDuration,
			MaxRefreshAttempts:      cfg.Security.MaxRefreshAttempts,
			RefreshCooldownDuration: cfg.Security.RefreshCooldownDuration,
		})
	}

	if b.userProvider != nil {
		ph, err := password.NewArgon2(password.Config{
			Memory:      cfg.Password.Memory,
			Time:        cfg.Password.Time,
			Parallelism: cfg.Password.Parallelism,
			SaltLength:  cfg.Password.SaltLength,
			KeyLength:   cfg.Password.KeyLength,
		})
		if err != nil {
			return nil, err
		}
		engine.passwordHash = ph

		// Unknown emails are verified against this hash so both login
		// failures cost one argon2 evaluation.
		dummy, err := internal.NewCSRFToken()
		if err != nil {
			return nil, err
		}
		if engine.dummyHash, err = ph.Hash(dummy); err != nil {
			return nil, err
		}
	}

	engine.audit = internalaudit.NewDispatcher(internalaudit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
		Enrich:     enrichAudit,
	}, b.auditSink)
	engine.metrics = NewMetrics(cfg.Metrics)
	engine.flows = flows.New(engine.flowDeps())

	b.built = true

	return engine, nil
}

func storeName(store binding.Store) string {
	switch store.(type) {
	case *binding.RedisStore:
		return "redis"
	case *binding.MemcachedStore:
		return "memcached"
	default:
		return "custom"
	}
}
