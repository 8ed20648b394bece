// Package userstore is a relational [goGuard.UserProvider] backed by sqlx.
//
// Postgres (lib/pq) and SQLite (modernc.org/sqlite) are supported. The
// schema ships as embedded golang-migrate migrations, one directory per
// dialect; call [Store.Migrate] once at startup.
package userstore
