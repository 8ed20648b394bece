// Command goguard serves the goGuard auth endpoints.
//
// Configuration comes from the environment, optionally seeded from a .env
// file in the working directory. PORT is required. See goGuard.ConfigFromEnv
// for the engine variables; the server additionally reads:
//
//	BINDING_BACKEND   redis (default) | memcached
//	REDIS_ADDR        default localhost:6379; also backs login throttling
//	REDIS_PASSWORD
//	MEMCACHED_ADDR    comma separated, default localhost:11211
//	DATABASE_DRIVER   postgres | sqlite
//	DATABASE_URL
//	TRUST_PROXY       honour X-Forwarded-For for client IPs
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	goGuard "github.com/MrEthical07/goGuard"
	"github.com/MrEthical07/goGuard/binding"
	"github.com/MrEthical07/goGuard/httpapi"
	"github.com/MrEthical07/goGuard/internal/logging"
	"github.com/MrEthical07/goGuard/metrics/export/prometheus"
	"github.com/MrEthical07/goGuard/middleware"
	"github.com/MrEthical07/goGuard/userstore"
	"github.com/bradfitz/gomemcache/memcache"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const shutdownGrace = 10 * time.Second

func main() {
	// best effort: a missing .env just means the real environment is used
	_ = godotenv.Load()

	lg, err := logging.New(logging.ConfigFromEnv())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = lg.Sync() }()

	if err := run(lg); err != nil {
		lg.Error("goguard exited", zap.Error(err))
		_ = lg.Sync()
		os.Exit(1)
	}
}

func run(lg *zap.Logger) error {
	port, err := portFromEnv()
	if err != nil {
		return err
	}

	cfg, err := goGuard.ConfigFromEnv()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	for _, w := range cfg.Lint() {
		lg.Warn("config lint", zap.String("code", w.Code), zap.Stringer("severity", w.Severity), zap.String("message", w.Message))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb := redis.NewClient(&redis.Options{
		Addr:     envOr("REDIS_ADDR", "localhost:6379"),
		Password: os.Getenv("REDIS_PASSWORD"),
	})
	defer func() { _ = rdb.Close() }()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}

	users, err := openUsers(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = users.Close() }()

	builder := goGuard.New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithUserProvider(users).
		WithLogger(lg)
	if cfg.Audit.Enabled {
		builder = builder.WithAuditSink(goGuard.NewZapSink(lg.Named("audit")))
	}

	health := func(ctx context.Context) error {
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		return users.Ping(ctx)
	}

	switch backend := envOr("BINDING_BACKEND", "redis"); backend {
	case "redis":
	case "memcached":
		mc := memcache.New(strings.Split(envOr("MEMCACHED_ADDR", "localhost:11211"), ",")...)
		if err := mc.Ping(); err != nil {
			return fmt.Errorf("memcached ping: %w", err)
		}
		builder = builder.WithBindingStore(binding.NewMemcachedStore(mc, cfg.Store.Prefix))
		redisHealth := health
		health = func(ctx context.Context) error {
			if err := mc.Ping(); err != nil {
				return fmt.Errorf("memcached: %w", err)
			}
			return redisHealth(ctx)
		}
	default:
		return fmt.Errorf("unknown BINDING_BACKEND %q", backend)
	}

	engine, err := builder.Build()
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}
	defer engine.Close()

	report := engine.SecurityReport()
	lg.Info("engine ready",
		zap.String("commitment", string(report.CommitmentMode)),
		zap.String("store", report.BindingStore),
		zap.Bool("atomic_rebind", report.AtomicRebind),
		zap.Duration("access_ttl", report.AccessTTL),
		zap.Duration("refresh_ttl", report.RefreshTTL),
		zap.Duration("csrf_ttl", report.CSRFTTL),
		zap.Bool("cookie_secure", report.CookieSecure),
		zap.Bool("login_throttle", report.LoginThrottleActive),
	)

	guard := middleware.NewGuard(engine, middleware.NewCookieCodec(cfg), lg)
	handler := httpapi.NewRouter(engine, guard, httpapi.Options{
		Logger:     lg,
		Metrics:    prometheus.NewPrometheusExporter(engine).Handler(),
		Health:     health,
		AuthLimit:  httpapi.DefaultAuthLimit,
		TrustProxy: envBool("TRUST_PROXY"),
	})

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		lg.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	lg.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Warn("http server shutdown failed", zap.Error(err))
	}
	lg.Info("goodbye")
	return nil
}

func openUsers(ctx context.Context) (*userstore.Store, error) {
	driver := os.Getenv("DATABASE_DRIVER")
	dsn := os.Getenv("DATABASE_URL")
	if driver == "" || dsn == "" {
		return nil, errors.New("DATABASE_DRIVER and DATABASE_URL are required")
	}

	users, err := userstore.Open(ctx, userstore.Dialect(driver), dsn)
	if err != nil {
		return nil, fmt.Errorf("open user store: %w", err)
	}
	if err := users.Migrate(); err != nil {
		_ = users.Close()
		return nil, fmt.Errorf("migrate user store: %w", err)
	}
	return users, nil
}

// portFromEnv requires a positive PORT.
func portFromEnv() (int, error) {
	raw := os.Getenv("PORT")
	if raw == "" {
		return 0, errors.New("PORT is required")
	}
	port, err := strconv.Atoi(raw)
	if err != nil || port <= 0 || port > 65535 {
		return 0, fmt.Errorf("invalid PORT %q", raw)
	}
	return port, nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envBool(key string) bool {
	b, _ := strconv.ParseBool(os.Getenv(key))
	return b
}
