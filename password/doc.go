// Package password implements password hashing and verification with Argon2id defaults.
//
// # Output format
//
// Hashes are encoded in PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// Verification reads the cost parameters from the encoded hash, so hashes
// produced under older settings keep verifying after a config change.
//
// # Architecture boundaries
//
// This package owns hashing and verification only. Beyond rejecting empty and
// oversized input it applies no password policy.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords; callers supply plaintext and receive hashes.
//   - Import any other goGuard package.
//   - Log plaintext passwords or hash parameters at runtime.
package password
