package middleware

import (
	"context"
	"net/http"
	"strings"

	goGuard "github.com/MrEthical07/goGuard"
	"go.uber.org/zap"
)

// HeaderCSRFToken carries the client half of the CSRF pair on every guarded
// request.
const HeaderCSRFToken = "x-csrf-token"

// Guard binds an engine to the cookie codec used to read and clear its
// cookies.
type Guard struct {
	engine  *goGuard.Engine
	cookies *CookieCodec
	logger  *zap.Logger
}

// NewGuard returns a Guard. A nil logger discards output.
func NewGuard(engine *goGuard.Engine, cookies *CookieCodec, logger *zap.Logger) *Guard {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Guard{
		engine:  engine,
		cookies: cookies,
		logger:  logger.Named("middleware"),
	}
}

// Cookies returns the codec the guard reads from.
func (g *Guard) Cookies() *CookieCodec { return g.cookies }

// CheckAnonymousCSRF rejects requests whose commitment cookie and header do
// not match a live anonymous binding. Failures never touch cookies.
func (g *Guard) CheckAnonymousCSRF(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if g.engine == nil {
			WriteError(w, http.StatusInternalServerError, msgInternal)
			return
		}

		commitment, err := g.cookies.Commitment(r)
		if err != nil {
			g.logger.Debug("commitment cookie rejected", zap.String("path", r.URL.Path), zap.Error(err))
			commitment = ""
		}

		b, err := g.engine.VerifyAnonymous(r.Context(), commitment, r.Header.Get(HeaderCSRFToken))
		if err != nil {
			g.fail(w, r, err, anonymousMessage(err), false)
			return
		}

		ctx := context.WithValue(r.Context(), anonymousContextKey{}, b)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// CheckAuthorizedCSRF rejects requests that do not carry a commitment, header
// token and refresh token bound together. Forged or stale pairs clear both
// cookies so the client has to authenticate again.
func (g *Guard) CheckAuthorizedCSRF(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if g.engine == nil {
			WriteError(w, http.StatusInternalServerError, msgInternal)
			return
		}

		commitment, err := g.cookies.Commitment(r)
		if err != nil {
			g.fail(w, r, goGuard.ErrCommitmentMismatch, msgCSRFInvalid, true)
			return
		}
		header := r.Header.Get(HeaderCSRFToken)
		if commitment == "" || header == "" {
			g.fail(w, r, goGuard.ErrMissingCredential, msgCSRFInvalid, true)
			return
		}
		refresh, err := g.cookies.Refresh(r)
		if err != nil {
			g.fail(w, r, goGuard.ErrRefreshInvalid, msgRefreshInvalid, true)
			return
		}

		s, err := g.engine.VerifyAuthorized(r.Context(), commitment, header, refresh)
		if err != nil {
			msg, clearCookies := authorizedMessage(err)
			g.fail(w, r, err, msg, clearCookies)
			return
		}

		ctx := context.WithValue(r.Context(), sessionContextKey{}, s)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// CheckAccessToken verifies the Authorization bearer token against the
// x-csrf-token header. Cookies are left alone on failure; the refresh session
// stays usable.
func (g *Guard) CheckAccessToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if g.engine == nil {
			WriteError(w, http.StatusInternalServerError, msgInternal)
			return
		}

		token, _ := bearerToken(r.Header.Get("Authorization"))
		claims, err := g.engine.VerifyAccess(r.Context(), token, r.Header.Get(HeaderCSRFToken))
		if err != nil {
			g.fail(w, r, err, accessMessage(err), false)
			return
		}

		ctx := context.WithValue(r.Context(), claimsContextKey{}, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (g *Guard) fail(w http.ResponseWriter, r *http.Request, err error, msg string, clearCookies bool) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		g.logger.Error("guard failure", zap.String("path", r.URL.Path), zap.Error(err))
		WriteError(w, status, msgInternal)
		return
	}
	if clearCookies {
		g.cookies.Clear(w)
	}
	g.logger.Debug("guard rejected request", zap.String("path", r.URL.Path), zap.Error(err))
	WriteError(w, status, msg)
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}

	return token, true
}
