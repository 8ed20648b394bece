package httpapi

import (
	"context"
	"net/http"

	goGuard "github.com/MrEthical07/goGuard"
	"github.com/MrEthical07/goGuard/middleware"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Options configures NewRouter. The zero value serves every auth route with
// no IP limit, no /metrics and an unconditional /healthz.
type Options struct {
	Logger *zap.Logger
	// Metrics is mounted at GET /metrics when non-nil.
	Metrics http.Handler
	// Health backs GET /healthz; a non-nil error answers 503.
	Health func(ctx context.Context) error
	// AuthLimit throttles token, register and login per client IP.
	// RequestsPerWindow <= 0 disables it.
	AuthLimit RateLimitConfig
	// TrustProxy makes X-Forwarded-For and X-Real-IP authoritative for the
	// client IP. Enable only behind a proxy that overwrites them.
	TrustProxy bool
}

// NewRouter wires the auth endpoints to engine and guard.
func NewRouter(engine *goGuard.Engine, guard *middleware.Guard, opts Options) *mux.Router {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("http")

	h := &handlers{
		engine:  engine,
		cookies: guard.Cookies(),
		logger:  logger,
		health:  opts.Health,
	}
	ips := clientIPFunc(opts.TrustProxy)
	limit := RateLimitByIP(opts.AuthLimit, ips, logger)

	r := mux.NewRouter()
	r.Use(RequestContext(ips), LoggingMiddleware(logger), SecurityHeadersMiddleware())
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		middleware.WriteError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		middleware.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.HandleFunc("/healthz", h.healthz).Methods(http.MethodGet)
	if opts.Metrics != nil {
		r.Handle("/metrics", opts.Metrics).Methods(http.MethodGet)
	}

	auth := r.PathPrefix("/auth").Subrouter()
	auth.Handle("/token", limit(http.HandlerFunc(h.token))).Methods(http.MethodGet)
	auth.Handle("/register", limit(guard.CheckAnonymousCSRF(http.HandlerFunc(h.register)))).Methods(http.MethodPost)
	auth.Handle("/login", limit(guard.CheckAnonymousCSRF(http.HandlerFunc(h.login)))).Methods(http.MethodPost)
	auth.Handle("/refresh", guard.CheckAuthorizedCSRF(http.HandlerFunc(h.refresh))).Methods(http.MethodPost)
	auth.Handle("/check", guard.CheckAuthorizedCSRF(guard.CheckAccessToken(http.HandlerFunc(h.check)))).Methods(http.MethodGet)
	auth.Handle("/logout", guard.CheckAuthorizedCSRF(http.HandlerFunc(h.logout))).Methods(http.MethodPost)

	return r
}
