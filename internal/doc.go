// Package internal contains helpers that are private to goGuard: CSRF key and
// token generation and the commitment function that binds them.
//
// # Sub-packages
//
//   - audit: async event dispatch (Dispatcher + Sink implementations)
//   - flows: pure-function orchestrators for every Engine operation
//   - logging: zap logger construction from environment
//   - rate: Redis-backed login failure throttle
//
// # What this package must NOT do
//
//   - Export types that appear in the public goGuard API.
//   - Be imported by any package outside the goGuard module.
package internal
