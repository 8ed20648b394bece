// Package rate provides Redis-backed fixed-window counters for login and
// refresh throttling.
//
// # Window semantics
//
// Fixed-window counters: INCR + conditional EXPIRE on first hit. Keys are
// namespaced under the configured prefix:
//   - <prefix>:al:  login per-email
//   - <prefix>:ali: login per-IP
//   - <prefix>:ar:  refresh per-user
//
// # What this package must NOT do
//
//   - Decide HTTP status codes (the root package maps ErrRateLimited).
//   - Be imported outside the goGuard module.
package rate
