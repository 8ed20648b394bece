// Package flows contains pure-function orchestrators for every Engine operation.
//
// Each flow function (RunIssue, RunVerifyAnonymous, RunEstablish, etc.) accepts
// a typed dependency struct and returns a result carrying a failure kind. The
// root package maps failure kinds to its public errors, metrics and audit
// events.
//
// # Architecture boundaries
//
// Flow functions coordinate calls to the binding store and the token manager.
// They do NOT own either resource; ownership stays with the Engine.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import goGuard (to avoid import cycles).
//   - Perform I/O directly; all I/O is mediated through dependency interfaces.
package flows
