// Package repository opens the leave store selected by configuration.
package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/Rrens/kb-assistant/internal/config"
	"github.com/Rrens/kb-assistant/internal/domain"
	"github.com/Rrens/kb-assistant/internal/repository/mongo"
	"github.com/Rrens/kb-assistant/internal/repository/postgres"
	"github.com/Rrens/kb-assistant/internal/repository/sqlstore"
)

// Supported leave store drivers
const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite"
	DriverMongo    = "mongodb"
)

// postgresStore ties the repository to the pool it must close
type postgresStore struct {
	*postgres.LeaveRepository
	db *postgres.DB
}

func (s postgresStore) Close() error {
	s.db.Close()
	return nil
}

// OpenLeaveStore connects to the configured leave store, migrating the schema
// first when auto_migrate is set.
func OpenLeaveStore(ctx context.Context, cfg *config.Config) (domain.LeaveRepository, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.LeaveStore.Driver))
	logger := log.With().Str("driver", driver).Logger()

	switch driver {
	case DriverPostgres, "":
		if cfg.LeaveStore.AutoMigrateOnStart {
			if err := postgres.RunMigrations(cfg.Database.DSN(), cfg.LeaveStore.MigrationsPath); err != nil {
				return nil, err
			}
		}
		db, err := postgres.NewDB(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		logger.Info().Str("host", cfg.Database.Host).Msg("Leave store connected")
		return postgresStore{LeaveRepository: postgres.NewLeaveRepository(db.Pool), db: db}, nil

	case DriverMySQL, DriverSQLite:
		var (
			s   *sqlstore.Store
			err error
		)
		if driver == DriverMySQL {
			s, err = sqlstore.OpenMySQL(ctx, cfg.LeaveStore.DSN)
		} else {
			s, err = sqlstore.OpenSQLite(ctx, cfg.LeaveStore.DSN)
		}
		if err != nil {
			return nil, err
		}
		if cfg.LeaveStore.AutoMigrateOnStart {
			if err := sqlstore.Migrate(s); err != nil {
				s.Close()
				return nil, err
			}
		}
		logger.Info().Msg("Leave store connected")
		return s, nil

	case DriverMongo, "mongo":
		r, err := mongo.Connect(ctx, cfg.LeaveStore.DSN, cfg.LeaveStore.MongoDatabase)
		if err != nil {
			return nil, err
		}
		if err := r.EnsureIndexes(ctx); err != nil {
			r.Close()
			return nil, err
		}
		logger.Info().Str("database", cfg.LeaveStore.MongoDatabase).Msg("Leave store connected")
		return r, nil
	}

	return nil, fmt.Errorf("unsupported leave store driver: %s", cfg.LeaveStore.Driver)
}
