// Package jwt signs and verifies the two session credentials: short-lived
// access tokens and long-lived refresh tokens.
//
// Both kinds are HS256. Refresh tokens are keyed by the static secret alone;
// access tokens are keyed by the static secret concatenated with the CSRF
// token that was presented when they were minted, so an access token is only
// verifiable alongside that same CSRF token.
//
// Callers pick the kind through the request type: [AccessTokenRequest]
// carries its binding secret, [RefreshTokenRequest] carries none.
package jwt
