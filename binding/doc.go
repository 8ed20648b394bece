// Package binding stores CSRF keys under the token (or refresh token) they are
// bound to. Entries are ephemeral: every write carries a TTL, reads never
// extend it, and Touch is the only way to push expiry forward.
//
// # Error contract
//
// Adapters return a closed error set. A missing or expired entry is always
// [ErrMiss]; every other backend failure wraps [ErrUnavailable]. Callers
// discriminate with errors.Is and never by message text.
//
// # Adapters
//
//   - [RedisStore]: go-redis UniversalClient, supports atomic [Rebinder]
//   - [MemcachedStore]: gomemcache client
//
// Both adapters implement [Namespacer]; the engine keeps its user cache in a
// separate namespace so cached records can never be read back as bindings.
//
// # What this package must NOT do
//
//   - Interpret stored values.
//   - Apply implicit TTL refresh on reads.
package binding
