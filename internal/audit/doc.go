// Package audit delivers security events from the engine to a caller-chosen
// sink without putting sink latency on the request path.
//
// Events carry a [Kind] from a closed set and the [Stage] of the session
// lifecycle that produced them (anonymous, authorized, access, account). The
// [Dispatcher] stamps and enriches each event with request-scoped fields,
// queues it, and hands it to the sink from one goroutine. Drops are counted
// per Kind so an exporter can tell which events went missing.
//
// # What this package must NOT do
//
//   - Decide which events to emit. The engine does.
//   - Import goGuard or any sibling internal package.
//   - Carry credentials. Tokens, commitments and passwords never reach an Event.
package audit
