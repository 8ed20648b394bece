package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	goGuard "github.com/MrEthical07/goGuard"
	"github.com/gorilla/securecookie"
)

// ErrCookieTampered is returned when a cookie is present but fails signature,
// decryption or age checks.
var ErrCookieTampered = errors.New("cookie signature invalid")

const (
	csrfCookieSuffix    = ".x-csrf-token"
	refreshCookieSuffix = ".x-refresh-token"
)

// CookieCodec signs, sets, reads and clears the commitment and refresh
// cookies. Cookies are httpOnly, path "/", SameSite=Lax and carry the
// __Host- prefix, so they are never scoped with a Domain attribute.
type CookieCodec struct {
	sc          *securecookie.SecureCookie
	csrfName    string
	refreshName string
	secure      bool
	maxAge      time.Duration
}

// NewCookieCodec builds a codec from the engine configuration. BlockKey may
// be empty, in which case cookie values are signed but not encrypted.
func NewCookieCodec(cfg goGuard.Config) *CookieCodec {
	var blockKey []byte
	if len(cfg.Cookie.BlockKey) > 0 {
		blockKey = cfg.Cookie.BlockKey
	}
	sc := securecookie.New(cfg.Cookie.HashKey, blockKey)
	sc.MaxAge(int(cfg.JWT.RefreshTTL / time.Second))

	return &CookieCodec{
		sc:          sc,
		csrfName:    "__Host-" + cfg.Cookie.Domain + csrfCookieSuffix,
		refreshName: "__Host-" + cfg.Cookie.Domain + refreshCookieSuffix,
		secure:      cfg.Cookie.Secure,
		maxAge:      cfg.JWT.RefreshTTL,
	}
}

func (c *CookieCodec) CSRFCookieName() string    { return c.csrfName }
func (c *CookieCodec) RefreshCookieName() string { return c.refreshName }

// SetCommitment writes the signed commitment cookie. It outlives the
// anonymous binding because the same commitment stays valid after login.
func (c *CookieCodec) SetCommitment(w http.ResponseWriter, commitment string) error {
	return c.set(w, c.csrfName, commitment, c.maxAge)
}

// SetRefresh writes the signed refresh token cookie.
func (c *CookieCodec) SetRefresh(w http.ResponseWriter, refreshToken string) error {
	return c.set(w, c.refreshName, refreshToken, c.maxAge)
}

// Commitment returns the verified commitment, "" when the cookie is absent,
// or ErrCookieTampered.
func (c *CookieCodec) Commitment(r *http.Request) (string, error) {
	return c.read(r, c.csrfName)
}

// Refresh returns the verified refresh token, "" when the cookie is absent,
// or ErrCookieTampered.
func (c *CookieCodec) Refresh(r *http.Request) (string, error) {
	return c.read(r, c.refreshName)
}

// Clear expires both cookies.
func (c *CookieCodec) Clear(w http.ResponseWriter) {
	for _, name := range []string{c.csrfName, c.refreshName} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			Expires:  time.Unix(0, 0),
			HttpOnly: true,
			Secure:   c.secure,
			SameSite: http.SameSiteLaxMode,
		})
	}
}

func (c *CookieCodec) set(w http.ResponseWriter, name, value string, ttl time.Duration) error {
	encoded, err := c.sc.Encode(name, value)
	if err != nil {
		return fmt.Errorf("encode cookie %s: %w", name, err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    encoded,
		Path:     "/",
		MaxAge:   int(ttl / time.Second),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (c *CookieCodec) read(r *http.Request, name string) (string, error) {
	cookie, err := r.Cookie(name)
	if err != nil || cookie.Value == "" {
		return "", nil
	}
	var value string
	if err := c.sc.Decode(name, cookie.Value, &value); err != nil {
		return "", fmt.Errorf("%w: %v", ErrCookieTampered, err)
	}
	return value, nil
}
