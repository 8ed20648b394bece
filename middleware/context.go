package middleware

import (
	"context"

	goGuard "github.com/MrEthical07/goGuard"
)

type anonymousContextKey struct{}
type sessionContextKey struct{}
type claimsContextKey struct{}

// AnonymousBindingFromContext returns the binding verified by
// CheckAnonymousCSRF.
func AnonymousBindingFromContext(ctx context.Context) (goGuard.AnonymousBinding, bool) {
	b, ok := ctx.Value(anonymousContextKey{}).(goGuard.AnonymousBinding)
	return b, ok
}

// SessionFromContext returns the session verified by CheckAuthorizedCSRF.
func SessionFromContext(ctx context.Context) (goGuard.AuthorizedSession, bool) {
	s, ok := ctx.Value(sessionContextKey{}).(goGuard.AuthorizedSession)
	return s, ok
}

// ClaimsFromContext returns the access token claims verified by
// CheckAccessToken.
func ClaimsFromContext(ctx context.Context) (*goGuard.Claims, bool) {
	c, ok := ctx.Value(claimsContextKey{}).(*goGuard.Claims)
	return c, ok
}
