package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	goGuard "github.com/MrEthical07/goGuard"
	"github.com/MrEthical07/goGuard/middleware"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 16

var errNoBinding = errors.New("httpapi: anonymous binding missing from request context")

const (
	msgMalformedBody  = "malformed request body"
	msgAccountExists  = "user already exists"
	msgAccountInvalid = "email, name and password are required"
	msgBadCredentials = "invalid email or password"
	msgLoginLimited   = "too many login attempts, try again later"
	msgRefreshLimited = "too many refresh attempts, try again later"
	msgMissingSession = "valid csrf token not supplied"
	msgInternal       = "internal error"
)

type handlers struct {
	engine  *goGuard.Engine
	cookies *middleware.CookieCodec
	logger  *zap.Logger
	health  func(ctx context.Context) error
}

type csrfResponse struct {
	CSRFToken string `json:"csrfToken"`
}

type userView struct {
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

type sessionResponse struct {
	Status      string     `json:"status"`
	Message     string     `json:"message"`
	AccessToken string     `json:"accessToken,omitempty"`
	Datas       []userView `json:"datas,omitempty"`
}

type claimsView struct {
	UserID    string    `json:"userId"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type checkResponse struct {
	Status string       `json:"status"`
	Datas  []claimsView `json:"datas"`
}

type registerBody struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type loginBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *handlers) healthz(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		if err := h.health(r.Context()); err != nil {
			h.logger.Warn("health check failed", zap.Error(err))
			middleware.WriteError(w, http.StatusServiceUnavailable, "unavailable")
			return
		}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handlers) token(w http.ResponseWriter, r *http.Request) {
	issue, err := h.engine.IssueCSRF(r.Context())
	if err != nil {
		h.fail(w, r, err, msgInternal)
		return
	}
	if err := h.cookies.SetCommitment(w, issue.Commitment); err != nil {
		h.fail(w, r, err, msgInternal)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, csrfResponse{CSRFToken: issue.Token})
}

func (h *handlers) register(w http.ResponseWriter, r *http.Request) {
	var body registerBody
	if !decodeBody(w, r, &body) {
		return
	}

	user, err := h.engine.Register(r.Context(), goGuard.RegisterRequest{
		Email:    body.Email,
		Name:     body.Name,
		Password: body.Password,
	})
	if err != nil {
		h.fail(w, r, err, accountMessage(err))
		return
	}

	tokens, ok := h.establish(w, r, user)
	if !ok {
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, sessionResponse{
		Status:      "success",
		Message:     "user created",
		AccessToken: tokens.AccessToken,
		Datas:       []userView{{Email: user.Email, Name: user.Name, CreatedAt: user.CreatedAt}},
	})
}

func (h *handlers) login(w http.ResponseWriter, r *http.Request) {
	var body loginBody
	if !decodeBody(w, r, &body) {
		return
	}

	user, err := h.engine.Login(r.Context(), body.Email, body.Password)
	if err != nil {
		h.fail(w, r, err, accountMessage(err))
		return
	}

	tokens, ok := h.establish(w, r, user)
	if !ok {
		return
	}
	middleware.WriteJSON(w, http.StatusOK, sessionResponse{
		Status:      "success",
		Message:     "logged in",
		AccessToken: tokens.AccessToken,
	})
}

// establish consumes the anonymous binding verified by the guard and sets
// the refresh cookie. It writes the error response itself.
func (h *handlers) establish(w http.ResponseWriter, r *http.Request, user goGuard.UserRecord) (goGuard.SessionTokens, bool) {
	b, ok := middleware.AnonymousBindingFromContext(r.Context())
	if !ok {
		h.fail(w, r, errNoBinding, msgInternal)
		return goGuard.SessionTokens{}, false
	}

	tokens, err := h.engine.EstablishSession(r.Context(), b, user.Identity())
	if err != nil {
		h.fail(w, r, err, msgInternal)
		return goGuard.SessionTokens{}, false
	}
	if err := h.cookies.SetRefresh(w, tokens.RefreshToken); err != nil {
		h.fail(w, r, err, msgInternal)
		return goGuard.SessionTokens{}, false
	}
	return tokens, true
}

func (h *handlers) refresh(w http.ResponseWriter, r *http.Request) {
	s, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		middleware.WriteError(w, http.StatusForbidden, msgMissingSession)
		return
	}

	access, err := h.engine.RefreshSession(r.Context(), s)
	if err != nil {
		msg := msgInternal
		if errors.Is(err, goGuard.ErrRefreshRateLimited) {
			msg = msgRefreshLimited
		}
		h.fail(w, r, err, msg)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, sessionResponse{
		Status:      "success",
		Message:     "access token refreshed",
		AccessToken: access,
	})
}

func (h *handlers) check(w http.ResponseWriter, r *http.Request) {
	c, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		middleware.WriteError(w, http.StatusUnauthorized, "valid access token not supplied")
		return
	}

	view := claimsView{UserID: c.UserID, Email: c.UserEmail, Name: c.UserName}
	if c.ExpiresAt != nil {
		view.ExpiresAt = c.ExpiresAt.Time
	}
	middleware.WriteJSON(w, http.StatusOK, checkResponse{Status: "success", Datas: []claimsView{view}})
}

func (h *handlers) logout(w http.ResponseWriter, r *http.Request) {
	s, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		middleware.WriteError(w, http.StatusForbidden, msgMissingSession)
		return
	}

	if err := h.engine.RevokeSession(r.Context(), s.RefreshToken()); err != nil {
		h.fail(w, r, err, msgInternal)
		return
	}
	h.cookies.Clear(w)
	middleware.WriteJSON(w, http.StatusOK, sessionResponse{Status: "success", Message: "logged out"})
}

// fail writes err with the status the middleware package assigns to it.
// Server-side failures are logged and answered with a generic message.
func (h *handlers) fail(w http.ResponseWriter, r *http.Request, err error, msg string) {
	status := middleware.StatusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("request_id", requestIDFrom(r)),
			zap.Error(err),
		)
		msg = msgInternal
	}
	middleware.WriteError(w, status, msg)
}

func accountMessage(err error) string {
	switch {
	case errors.Is(err, goGuard.ErrAccountExists):
		return msgAccountExists
	case errors.Is(err, goGuard.ErrAccountInvalid):
		return msgAccountInvalid
	case errors.Is(err, goGuard.ErrInvalidCredentials):
		return msgBadCredentials
	case errors.Is(err, goGuard.ErrLoginRateLimited):
		return msgLoginLimited
	default:
		return msgInternal
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, msgMalformedBody)
		return false
	}
	return true
}
