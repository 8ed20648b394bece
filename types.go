package goGuard

import (
	"context"
	"time"

	internalaudit "github.com/MrEthical07/goGuard/internal/audit"
	"github.com/MrEthical07/goGuard/jwt"
)

// Identity is the user data embedded in both token kinds.
type Identity = jwt.Identity

// Claims is the verified content of an access or refresh token.
type Claims = jwt.Claims

// CSRFIssue is the result of [Engine.IssueCSRF]. Token goes to the client in
// the response body; Commitment goes into the signed CSRF cookie.
type CSRFIssue struct {
	Token      string
	Commitment string
}

// SessionTokens is the result of [Engine.EstablishSession]. The access token
// belongs in the response body, the refresh token in its httpOnly cookie.
type SessionTokens struct {
	AccessToken  string
	RefreshToken string
}

// AnonymousBinding is proof that a CSRF token passed [Engine.VerifyAnonymous].
// It can only be obtained from that call and is consumed by
// [Engine.EstablishSession].
type AnonymousBinding struct {
	token string
	key   string
}

// Token returns the CSRF token that was verified.
func (b AnonymousBinding) Token() string { return b.token }

// AuthorizedSession is proof that a request passed [Engine.VerifyAuthorized].
type AuthorizedSession struct {
	claims       *Claims
	refreshToken string
	csrfToken    string
}

// Claims returns the verified refresh token claims.
func (s AuthorizedSession) Claims() *Claims { return s.claims }

// RefreshToken returns the refresh token the session is keyed by.
func (s AuthorizedSession) RefreshToken() string { return s.refreshToken }

// CSRFToken returns the header token that matched the bound key.
func (s AuthorizedSession) CSRFToken() string { return s.csrfToken }

// UserProvider is the interface callers implement to back Register and Login
// with their user database. GetUserByEmail returns ErrUserNotFound on a miss
// and CreateUser returns ErrAccountExists for a duplicate email.
//
//	See: userstore.Store
type UserProvider interface {
	GetUserByEmail(ctx context.Context, email string) (UserRecord, error)
	CreateUser(ctx context.Context, input CreateUserInput) (UserRecord, error)
}

// UserRecord is the account record returned by [UserProvider].
type UserRecord struct {
	UserID       string
	Email        string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
}

// Identity projects the record onto the claims embedded in tokens.
func (u UserRecord) Identity() Identity {
	return Identity{UserID: u.UserID, Email: u.Email, Name: u.Name}
}

// CreateUserInput is passed to [UserProvider.CreateUser]. Email is already
// normalized and PasswordHash is an argon2id encoding.
type CreateUserInput struct {
	Email        string
	Name         string
	PasswordHash string
}

// RegisterRequest is the input to [Engine.Register].
type RegisterRequest struct {
	Email    string
	Name     string
	Password string
}

type (
	// AuditEvent is an alias of the internal audit event model.
	AuditEvent = internalaudit.Event
	// AuditKind names an audit event; see AuditEvent.Kind.
	AuditKind = internalaudit.Kind
	// AuditStage is the lifecycle step that produced an event.
	AuditStage = internalaudit.Stage
	// AuditSink receives audit events from the engine dispatcher.
	AuditSink = internalaudit.Sink
	// NoOpSink drops all audit events.
	NoOpSink = internalaudit.NoOpSink
	// ChannelSink buffers audit events into a channel.
	ChannelSink = internalaudit.ChannelSink
	// JSONWriterSink writes one JSON audit event per line.
	JSONWriterSink = internalaudit.JSONWriterSink
	// ZapSink writes audit events as structured log lines.
	ZapSink = internalaudit.ZapSink
)
