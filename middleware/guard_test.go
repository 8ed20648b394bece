package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	goGuard "github.com/MrEthical07/goGuard"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type guardFixture struct {
	engine *goGuard.Engine
	guard  *Guard
	mr     *miniredis.Miniredis
	clock  *fixedClock
}

func testEngineConfig() goGuard.Config {
	cfg := goGuard.DefaultConfig()
	cfg.JWT.Secret = []byte("middleware-jwt-secret-0123456789")
	cfg.Cookie.HashKey = []byte("middleware-cookie-hash-key-01234")
	cfg.Security.EnableLoginThrottle = false
	return cfg
}

func newGuardFixture(t *testing.T) *guardFixture {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	clock := &fixedClock{now: time.Now()}
	cfg := testEngineConfig()
	engine, err := goGuard.New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithClock(clock.Now).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	return &guardFixture{
		engine: engine,
		guard:  NewGuard(engine, NewCookieCodec(cfg), nil),
		mr:     mr,
		clock:  clock,
	}
}

type clientState struct {
	csrfToken   string
	accessToken string
	cookies     []*http.Cookie
}

// anonymous issues a CSRF pair and captures the commitment cookie.
func (f *guardFixture) anonymous(t *testing.T) clientState {
	t.Helper()
	issued, err := f.engine.IssueCSRF(context.Background())
	if err != nil {
		t.Fatalf("IssueCSRF failed: %v", err)
	}
	rec := httptest.NewRecorder()
	if err := f.guard.Cookies().SetCommitment(rec, issued.Commitment); err != nil {
		t.Fatalf("SetCommitment failed: %v", err)
	}
	return clientState{csrfToken: issued.Token, cookies: rec.Result().Cookies()}
}

// authenticated runs the anonymous to authenticated transition.
func (f *guardFixture) authenticated(t *testing.T) clientState {
	t.Helper()
	st := f.anonymous(t)
	ctx := context.Background()

	var commitment string
	for _, c := range st.cookies {
		if c.Name == f.guard.Cookies().CSRFCookieName() {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.AddCookie(c)
			commitment, _ = f.guard.Cookies().Commitment(req)
		}
	}
	b, err := f.engine.VerifyAnonymous(ctx, commitment, st.csrfToken)
	if err != nil {
		t.Fatalf("VerifyAnonymous failed: %v", err)
	}
	sess, err := f.engine.EstablishSession(ctx, b, goGuard.Identity{UserID: "u1", Email: "a@example.com", Name: "A"})
	if err != nil {
		t.Fatalf("EstablishSession failed: %v", err)
	}
	rec := httptest.NewRecorder()
	if err := f.guard.Cookies().SetRefresh(rec, sess.RefreshToken); err != nil {
		t.Fatalf("SetRefresh failed: %v", err)
	}
	st.cookies = append(st.cookies, rec.Result().Cookies()...)
	st.accessToken = sess.AccessToken
	return st
}

func (st clientState) request(header string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/protected", nil)
	for _, c := range st.cookies {
		req.AddCookie(c)
	}
	if header != "" {
		req.Header.Set(HeaderCSRFToken, header)
	}
	if st.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+st.accessToken)
	}
	return req
}

func okHandler(t *testing.T, check func(*http.Request)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			check(r)
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorBody {
	t.Helper()
	var body ErrorBody
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Status != "error" {
		t.Fatalf("expected status error, got %q", body.Status)
	}
	return body
}

func clearedCookies(rec *httptest.ResponseRecorder) int {
	n := 0
	for _, c := range rec.Result().Cookies() {
		if c.MaxAge < 0 {
			n++
		}
	}
	return n
}

func TestCheckAnonymousCSRF(t *testing.T) {
	f := newGuardFixture(t)
	st := f.anonymous(t)

	rec := httptest.NewRecorder()
	f.guard.CheckAnonymousCSRF(okHandler(t, func(r *http.Request) {
		b, ok := AnonymousBindingFromContext(r.Context())
		if !ok || b.Token() != st.csrfToken {
			t.Fatal("expected binding in context")
		}
	})).ServeHTTP(rec, st.request(st.csrfToken))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	f.guard.CheckAnonymousCSRF(okHandler(t, nil)).ServeHTTP(rec, st.request(""))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if body := decodeError(t, rec); body.Message != msgAnonymousInvalid {
		t.Fatalf("unexpected message %q", body.Message)
	}
	if clearedCookies(rec) != 0 {
		t.Fatal("anonymous failures must not clear cookies")
	}

	f.mr.FastForward(6 * time.Minute)
	rec = httptest.NewRecorder()
	f.guard.CheckAnonymousCSRF(okHandler(t, nil)).ServeHTTP(rec, st.request(st.csrfToken))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if body := decodeError(t, rec); body.Message != msgAnonymousExpired {
		t.Fatalf("unexpected message %q", body.Message)
	}
}

func TestCheckAuthorizedCSRFSwappedHeaderClearsCookies(t *testing.T) {
	f := newGuardFixture(t)
	st := f.authenticated(t)
	other := f.anonymous(t)

	rec := httptest.NewRecorder()
	f.guard.CheckAuthorizedCSRF(okHandler(t, nil)).ServeHTTP(rec, st.request(other.csrfToken))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if body := decodeError(t, rec); body.Message != msgCSRFInvalid {
		t.Fatalf("unexpected message %q", body.Message)
	}
	if clearedCookies(rec) != 2 {
		t.Fatalf("expected both cookies cleared, got %d", clearedCookies(rec))
	}
}

func TestCheckAuthorizedCSRFAndAccessToken(t *testing.T) {
	f := newGuardFixture(t)
	st := f.authenticated(t)

	chain := f.guard.CheckAuthorizedCSRF(f.guard.CheckAccessToken(okHandler(t, func(r *http.Request) {
		s, ok := SessionFromContext(r.Context())
		if !ok || s.Claims().UserID != "u1" {
			t.Fatal("expected session in context")
		}
		c, ok := ClaimsFromContext(r.Context())
		if !ok || c.UserEmail != "a@example.com" {
			t.Fatal("expected access claims in context")
		}
	})))

	rec := httptest.NewRecorder()
	chain.ServeHTTP(rec, st.request(st.csrfToken))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestCheckAccessTokenExpiredKeepsCookies(t *testing.T) {
	f := newGuardFixture(t)
	st := f.authenticated(t)
	f.clock.advance(10 * time.Minute)

	rec := httptest.NewRecorder()
	f.guard.CheckAccessToken(okHandler(t, nil)).ServeHTTP(rec, st.request(st.csrfToken))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if body := decodeError(t, rec); body.Message != msgAccessExpired {
		t.Fatalf("unexpected message %q", body.Message)
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Fatal("access failures must not touch cookies")
	}
}

func TestCheckAccessTokenMissingBearer(t *testing.T) {
	f := newGuardFixture(t)
	st := f.authenticated(t)
	st.accessToken = ""

	rec := httptest.NewRecorder()
	f.guard.CheckAccessToken(okHandler(t, nil)).ServeHTTP(rec, st.request(st.csrfToken))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if body := decodeError(t, rec); body.Message != msgAccessInvalid {
		t.Fatalf("unexpected message %q", body.Message)
	}
}

func TestRefreshExpiredClearsCookies(t *testing.T) {
	f := newGuardFixture(t)
	st := f.authenticated(t)
	f.clock.advance(8 * 24 * time.Hour)

	rec := httptest.NewRecorder()
	f.guard.CheckAuthorizedCSRF(okHandler(t, nil)).ServeHTTP(rec, st.request(st.csrfToken))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if body := decodeError(t, rec); body.Message != msgRefreshExpired {
		t.Fatalf("unexpected message %q", body.Message)
	}
	if clearedCookies(rec) != 2 {
		t.Fatal("expected both cookies cleared")
	}
}

func TestStoreFailureIsGeneric500(t *testing.T) {
	f := newGuardFixture(t)
	st := f.anonymous(t)
	f.mr.SetError("LOADING")
	defer f.mr.SetError("")

	rec := httptest.NewRecorder()
	f.guard.CheckAnonymousCSRF(okHandler(t, nil)).ServeHTTP(rec, st.request(st.csrfToken))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if body := decodeError(t, rec); body.Message != msgInternal {
		t.Fatalf("unexpected message %q", body.Message)
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Fatal("store failures must not touch cookies")
	}
}

func TestCheckAuthorizedCSRFMissingHeaderBeforeRefreshCookie(t *testing.T) {
	f := newGuardFixture(t)
	st := f.authenticated(t)

	for i, c := range st.cookies {
		if c.Name == f.guard.Cookies().RefreshCookieName() {
			tampered := *c
			tampered.Value = c.Value[:len(c.Value)-4] + "AAAA"
			st.cookies[i] = &tampered
		}
	}

	rec := httptest.NewRecorder()
	f.guard.CheckAuthorizedCSRF(okHandler(t, nil)).ServeHTTP(rec, st.request(""))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if body := decodeError(t, rec); body.Message != msgCSRFInvalid {
		t.Fatalf("unexpected message %q", body.Message)
	}
	if clearedCookies(rec) != 2 {
		t.Fatalf("expected both cookies cleared, got %d", clearedCookies(rec))
	}

	rec = httptest.NewRecorder()
	f.guard.CheckAuthorizedCSRF(okHandler(t, nil)).ServeHTTP(rec, st.request(st.csrfToken))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("tampered refresh cookie with header: expected 401, got %d", rec.Code)
	}
	if body := decodeError(t, rec); body.Message != msgRefreshInvalid {
		t.Fatalf("unexpected message %q", body.Message)
	}
}
