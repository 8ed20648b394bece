// Package goGuard provides CSRF double-submit protection tied to a dual-secret
// JWT session lifecycle.
//
// A client first receives an anonymous CSRF token. The server keeps a random
// key bound to that token and puts sha256(key ++ token) in a signed cookie.
// On login the key moves from the CSRF token to a freshly minted refresh
// token, and access tokens are signed with the JWT secret concatenated with
// the CSRF token. A stolen access token is useless without the matching
// x-csrf-token header, and a forged request cannot reproduce the commitment.
//
// Engine methods are safe to call from multiple goroutines after
// initialization through [Builder.Build].
//
// # Architecture boundaries
//
// goGuard is the public surface. It exposes [Engine], [Builder], [Config] and
// value types such as [CSRFIssue] and [SessionTokens]. Flow orchestration,
// commitments, rate limiting and audit dispatch live under internal/.
// Binding storage is pluggable through [binding.Store]; the middleware and
// httpapi packages adapt the engine to net/http.
//
// # What this package must NOT do
//
//   - Set cookies or write HTTP responses. That belongs to middleware.
//   - Return tokens together with an error.
//   - Import any sub-package that re-imports goGuard.
package goGuard
