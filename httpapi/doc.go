// Package httpapi exposes a goGuard engine as JSON endpoints on a gorilla/mux
// router.
//
// Routes:
//
//	GET  /auth/token     issue an anonymous CSRF pair
//	POST /auth/register  anonymous CSRF; create account, start session
//	POST /auth/login     anonymous CSRF; check password, start session
//	POST /auth/refresh   authorized CSRF; mint a new access token
//	GET  /auth/check     authorized CSRF + bearer; echo access claims
//	POST /auth/logout    authorized CSRF; revoke session, clear cookies
//	GET  /healthz
//	GET  /metrics        when Options.Metrics is set
//
// A typical browser exchange:
//
//	curl -c jar http://localhost:8080/auth/token
//	curl -b jar -c jar -H 'x-csrf-token: <csrfToken>' \
//	  -d '{"email":"a@b.c","password":"pw"}' http://localhost:8080/auth/login
//	curl -b jar -H 'x-csrf-token: <csrfToken>' \
//	  -H 'Authorization: Bearer <accessToken>' http://localhost:8080/auth/check
//
// Every route runs behind request logging and security headers. Token
// issuance, register and login are additionally limited per client IP.
package httpapi
