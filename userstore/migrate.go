package userstore

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations
var migrations embed.FS

// Migrate applies every pending up migration for the store's dialect.
func (s *Store) Migrate() error {
	var (
		driver database.Driver
		err    error
	)
	switch s.dialect {
	case Postgres:
		driver, err = postgres.WithInstance(s.db.DB, &postgres.Config{})
	case SQLite:
		driver, err = sqlite.WithInstance(s.db.DB, &sqlite.Config{})
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedDialect, s.dialect)
	}
	if err != nil {
		return err
	}

	source, err := iofs.New(migrations, "migrations/"+string(s.dialect))
	if err != nil {
		return err
	}

	instance, err := migrate.NewWithInstance("iofs", source, string(s.dialect), driver)
	if err != nil {
		return err
	}

	if err := instance.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}
