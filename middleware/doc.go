// Package middleware adapts goGuard.Engine to net/http.
//
// # Guards
//
//   - [Guard.CheckAnonymousCSRF]: commitment cookie plus x-csrf-token header
//     against an anonymous binding.
//   - [Guard.CheckAuthorizedCSRF]: commitment cookie, header and refresh
//     cookie against the binding held by the refresh token.
//   - [Guard.CheckAccessToken]: bearer access token keyed by the header CSRF
//     token. Chain it after CheckAuthorizedCSRF.
//
// Each guard stores what it verified in the request context; read it back with
// [AnonymousBindingFromContext], [SessionFromContext] and [ClaimsFromContext].
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls and owns the
// cookies. It does NOT implement CSRF or token logic itself.
//
// # What this package must NOT do
//
//   - Parse or create JWTs directly (delegates to Engine).
//   - Access the binding store.
//   - Leak store or signing failures to the client.
package middleware
