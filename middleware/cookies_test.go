package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	goGuard "github.com/MrEthical07/goGuard"
)

func TestCookieCodecRoundTrip(t *testing.T) {
	cfg := testEngineConfig()
	cfg.Cookie.BlockKey = []byte("0123456789abcdef0123456789abcdef")
	codec := NewCookieCodec(cfg)

	if codec.CSRFCookieName() != "__Host-api.com.x-csrf-token" {
		t.Fatalf("unexpected csrf cookie name %q", codec.CSRFCookieName())
	}
	if codec.RefreshCookieName() != "__Host-api.com.x-refresh-token" {
		t.Fatalf("unexpected refresh cookie name %q", codec.RefreshCookieName())
	}

	rec := httptest.NewRecorder()
	if err := codec.SetCommitment(rec, "commitment-value"); err != nil {
		t.Fatalf("SetCommitment failed: %v", err)
	}
	if err := codec.SetRefresh(rec, "refresh-value"); err != nil {
		t.Fatalf("SetRefresh failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		if !c.HttpOnly || c.Path != "/" || c.SameSite != http.SameSiteLaxMode || !c.Secure {
			t.Fatalf("unexpected cookie attributes %+v", c)
		}
		if c.Value == "commitment-value" || c.Value == "refresh-value" {
			t.Fatal("cookie value stored in clear")
		}
		req.AddCookie(c)
	}

	got, err := codec.Commitment(req)
	if err != nil || got != "commitment-value" {
		t.Fatalf("Commitment = %q, %v", got, err)
	}
	got, err = codec.Refresh(req)
	if err != nil || got != "refresh-value" {
		t.Fatalf("Refresh = %q, %v", got, err)
	}
}

func TestCookieCodecMissingAndTampered(t *testing.T) {
	codec := NewCookieCodec(testEngineConfig())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if got, err := codec.Commitment(req); got != "" || err != nil {
		t.Fatalf("expected empty commitment without error, got %q, %v", got, err)
	}

	req.AddCookie(&http.Cookie{Name: codec.CSRFCookieName(), Value: "forged"})
	if _, err := codec.Commitment(req); !errors.Is(err, ErrCookieTampered) {
		t.Fatalf("expected ErrCookieTampered, got %v", err)
	}

	other := testEngineConfig()
	other.Cookie.HashKey = []byte("another-cookie-hash-key-01234567")
	rec := httptest.NewRecorder()
	if err := NewCookieCodec(other).SetRefresh(rec, "refresh-value"); err != nil {
		t.Fatalf("SetRefresh failed: %v", err)
	}
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	if _, err := codec.Refresh(req); !errors.Is(err, ErrCookieTampered) {
		t.Fatalf("expected ErrCookieTampered for foreign key, got %v", err)
	}
}

func TestClearExpiresBothCookies(t *testing.T) {
	codec := NewCookieCodec(testEngineConfig())
	rec := httptest.NewRecorder()
	codec.Clear(rec)

	if n := clearedCookies(rec); n != 2 {
		t.Fatalf("expected 2 cleared cookies, got %d", n)
	}
}

func TestStatusFor(t *testing.T) {
	cases := map[error]int{
		nil:                           http.StatusOK,
		goGuard.ErrMissingCredential:  http.StatusForbidden,
		goGuard.ErrBindingExpired:     http.StatusForbidden,
		goGuard.ErrCommitmentMismatch: http.StatusForbidden,
		goGuard.ErrRefreshExpired:     http.StatusUnauthorized,
		goGuard.ErrTokenInvalid:       http.StatusUnauthorized,
		goGuard.ErrAccountExists:      http.StatusConflict,
		goGuard.ErrAccountInvalid:     http.StatusBadRequest,
		goGuard.ErrLoginRateLimited:   http.StatusTooManyRequests,
		goGuard.ErrStoreUnavailable:   http.StatusInternalServerError,
		goGuard.ErrSigningFailed:      http.StatusInternalServerError,
		errors.New("unknown"):         http.StatusInternalServerError,
	}
	for err, want := range cases {
		if got := StatusFor(err); got != want {
			t.Fatalf("StatusFor(%v) = %d, want %d", err, got, want)
		}
	}
}
