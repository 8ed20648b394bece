package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrTokenExpired is returned when a token is past its expiry.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid covers every other signature, format, or claim failure.
	ErrTokenInvalid = errors.New("token invalid")
	// ErrSigning is returned when the underlying signer fails.
	ErrSigning = errors.New("token signing failed")
	// ErrBindingSecretRequired is returned when an access token is requested
	// or verified without the CSRF token it is bound to.
	ErrBindingSecretRequired = errors.New("access token requires binding secret")
)

// Kind distinguishes the two token families.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

// Config holds signing material and expiry policy.
type Config struct {
	Secret       []byte
	AccessTTL    time.Duration
	RefreshTTL   time.Duration
	Issuer       string
	Audience     string
	Leeway       time.Duration
	MaxFutureIAT time.Duration
	// Now overrides the clock; nil means time.Now.
	Now func() time.Time
}

// Identity is the user data embedded in both token kinds.
type Identity struct {
	UserID string
	Email  string
	Name   string
}

// Claims is the decoded payload of either token kind.
type Claims struct {
	UserID    string `json:"userId"`
	UserEmail string `json:"userEmail"`
	UserName  string `json:"userName"`
	Kind      Kind   `json:"kind"`
	jwt.RegisteredClaims
}

// Identity returns the user fields carried by c.
func (c *Claims) Identity() Identity {
	return Identity{UserID: c.UserID, Email: c.UserEmail, Name: c.UserName}
}

// TokenRequest is implemented only by [AccessTokenRequest] and
// [RefreshTokenRequest].
type TokenRequest interface {
	tokenKind() Kind
	tokenIdentity() Identity
	bindingSecret() string
}

// AccessTokenRequest mints an access token bound to a CSRF token.
type AccessTokenRequest struct {
	Identity      Identity
	BindingSecret string
}

func (r AccessTokenRequest) tokenKind() Kind         { return KindAccess }
func (r AccessTokenRequest) tokenIdentity() Identity { return r.Identity }
func (r AccessTokenRequest) bindingSecret() string   { return r.BindingSecret }

// RefreshTokenRequest mints a refresh token keyed by the static secret.
type RefreshTokenRequest struct {
	Identity Identity
}

func (r RefreshTokenRequest) tokenKind() Kind         { return KindRefresh }
func (r RefreshTokenRequest) tokenIdentity() Identity { return r.Identity }
func (r RefreshTokenRequest) bindingSecret() string   { return "" }

// Manager signs and verifies tokens. It is immutable after construction and
// safe for concurrent use.
type Manager struct {
	config Config
}

// NewManager validates cfg and returns a Manager.
func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("jwt secret required")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if cfg.AccessTTL >= cfg.RefreshTTL {
		return nil, errors.New("access TTL must be shorter than refresh TTL")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	if cfg.MaxFutureIAT == 0 {
		cfg.MaxFutureIAT = 10 * time.Minute
	}
	if cfg.MaxFutureIAT < 0 || cfg.MaxFutureIAT > 24*time.Hour {
		return nil, errors.New("invalid MaxFutureIAT configuration")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	secret := make([]byte, len(cfg.Secret))
	copy(secret, cfg.Secret)
	cfg.Secret = secret

	return &Manager{config: cfg}, nil
}

// Sign mints a token of the kind selected by req.
func (m *Manager) Sign(req TokenRequest) (string, error) {
	if req == nil {
		return "", fmt.Errorf("%w: nil request", ErrSigning)
	}
	kind := req.tokenKind()
	key, err := m.keyFor(kind, req.bindingSecret())
	if err != nil {
		return "", err
	}

	ttl := m.config.RefreshTTL
	if kind == KindAccess {
		ttl = m.config.AccessTTL
	}

	id := req.tokenIdentity()
	now := m.config.Now()
	claims := Claims{
		UserID:    id.UserID,
		UserEmail: id.Email,
		UserName:  id.Name,
		Kind:      kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			Issuer:    m.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			// jti keeps two tokens minted in the same second for the same
			// user distinct; refresh tokens double as binding keys.
			ID: uuid.NewString(),
		},
	}
	if m.config.Audience != "" {
		claims.Audience = jwt.ClaimStrings{m.config.Audience}
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSigning, err)
	}
	return signed, nil
}

// Verify checks signature, expiry, issuer, audience and kind. For
// [KindAccess] the binding secret must be the CSRF token the access token was
// minted with; for [KindRefresh] it is ignored.
func (m *Manager) Verify(kind Kind, token, bindingSecret string) (*Claims, error) {
	key, err := m.keyFor(kind, bindingSecret)
	if err != nil {
		return nil, err
	}

	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.config.Now),
	}
	if m.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(m.config.Leeway))
	}
	if m.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(m.config.Issuer))
	}
	if m.config.Audience != "" {
		options = append(options, jwt.WithAudience(m.config.Audience))
	}

	parsed, err := jwt.NewParser(options...).ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
		}
		return key, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %v", ErrTokenExpired, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrTokenInvalid
	}
	if claims.Kind != kind {
		return nil, fmt.Errorf("%w: expected %s token, got %q", ErrTokenInvalid, kind, claims.Kind)
	}
	if claims.IssuedAt != nil {
		maxAllowed := m.config.Now().Add(m.config.MaxFutureIAT)
		if claims.IssuedAt.Time.After(maxAllowed) {
			return nil, fmt.Errorf("%w: iat too far in the future", ErrTokenInvalid)
		}
	}

	return claims, nil
}

// AccessTTL reports the configured access-token lifetime.
func (m *Manager) AccessTTL() time.Duration { return m.config.AccessTTL }

// RefreshTTL reports the configured refresh-token lifetime.
func (m *Manager) RefreshTTL() time.Duration { return m.config.RefreshTTL }

func (m *Manager) keyFor(kind Kind, bindingSecret string) ([]byte, error) {
	switch kind {
	case KindRefresh:
		return m.config.Secret, nil
	case KindAccess:
		if bindingSecret == "" {
			return nil, ErrBindingSecretRequired
		}
		key := make([]byte, 0, len(m.config.Secret)+len(bindingSecret))
		key = append(key, m.config.Secret...)
		key = append(key, bindingSecret...)
		return key, nil
	default:
		return nil, fmt.Errorf("%w: unknown token kind %q", ErrTokenInvalid, kind)
	}
}
