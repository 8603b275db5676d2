package sqlstore

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/rs/zerolog/log"

	"github.com/Rrens/kb-assistant/migrations"
)

// Migrate applies the embedded schema to the store's database
func Migrate(s *Store) error {
	var (
		driver database.Driver
		err    error
	)
	switch s.dialect {
	case DialectMySQL:
		driver, err = migratemysql.WithInstance(s.db, &migratemysql.Config{})
	case DialectSQLite:
		driver, err = migratesqlite.WithInstance(s.db, &migratesqlite.Config{})
	default:
		return fmt.Errorf("unsupported dialect: %s", s.dialect)
	}
	if err != nil {
		return fmt.Errorf("failed to create migrate driver: %w", err)
	}

	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("failed to open embedded migrations: %w", err)
	}

	// m is not closed: its driver would close the store's *sql.DB
	m, err := migrate.NewWithInstance("iofs", src, string(s.dialect), driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Info().Str("dialect", string(s.dialect)).Msg("Database migration: no changes")
			return nil
		}
		return fmt.Errorf("failed to run migrate up: %w", err)
	}

	log.Info().Str("dialect", string(s.dialect)).Msg("Database migration: success")
	return nil
}
