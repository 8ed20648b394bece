package userstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	goGuard "github.com/MrEthical07/goGuard"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Dialect names a supported database/sql driver.
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

// ErrUnsupportedDialect is returned by Open for any other driver name.
var ErrUnsupportedDialect = errors.New("unsupported database dialect")

type userRow struct {
	ID           string    `db:"id"`
	Email        string    `db:"email"`
	Name         string    `db:"name"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
}

// Store implements goGuard.UserProvider.
type Store struct {
	db      *sqlx.DB
	dialect Dialect
	now     func() time.Time
}

var _ goGuard.UserProvider = (*Store)(nil)

// Open connects with the given dialect and DSN and verifies the connection.
func Open(ctx context.Context, dialect Dialect, dsn string) (*Store, error) {
	switch dialect {
	case Postgres, SQLite:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDialect, dialect)
	}

	db, err := sqlx.Open(string(dialect), dsn)
	if err != nil {
		return nil, err
	}
	if dialect == SQLite {
		// One writer keeps SQLite from returning SQLITE_BUSY under load.
		db.SetMaxOpenConns(1)
		if _, err := db.ExecContext(ctx, `PRAGMA foreign_keys = ON;`); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return New(db, dialect), nil
}

// New wraps an existing connection.
func New(db *sqlx.DB, dialect Dialect) *Store {
	return &Store{db: db, dialect: dialect, now: time.Now}
}

func (s *Store) Close() error { return s.db.Close() }

// Ping verifies the database connection is still alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// GetUserByEmail returns goGuard.ErrUserNotFound when no row matches.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (goGuard.UserRecord, error) {
	var row userRow
	q := s.db.Rebind(`SELECT id, email, name, password_hash, created_at FROM users WHERE email = ?`)
	if err := s.db.GetContext(ctx, &row, q, normalizeEmail(email)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return goGuard.UserRecord{}, goGuard.ErrUserNotFound
		}
		return goGuard.UserRecord{}, err
	}
	return row.record(), nil
}

// CreateUser inserts a user with a fresh UUID. A duplicate email returns
// goGuard.ErrAccountExists.
func (s *Store) CreateUser(ctx context.Context, in goGuard.CreateUserInput) (goGuard.UserRecord, error) {
	row := userRow{
		ID:           uuid.NewString(),
		Email:        normalizeEmail(in.Email),
		Name:         in.Name,
		PasswordHash: in.PasswordHash,
		CreatedAt:    s.now().UTC().Truncate(time.Microsecond),
	}

	_, err := s.db.NamedExecContext(ctx,
		`INSERT INTO users (id, email, name, password_hash, created_at)
		 VALUES (:id, :email, :name, :password_hash, :created_at)`, row)
	if err != nil {
		if isUniqueViolation(err) {
			return goGuard.UserRecord{}, goGuard.ErrAccountExists
		}
		return goGuard.UserRecord{}, err
	}
	return row.record(), nil
}

func (r userRow) record() goGuard.UserRecord {
	return goGuard.UserRecord{
		UserID:       r.ID,
		Email:        r.Email,
		Name:         r.Name,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		case sqlite3.SQLITE_CONSTRAINT:
			return strings.Contains(liteErr.Error(), "UNIQUE")
		}
	}
	return false
}
