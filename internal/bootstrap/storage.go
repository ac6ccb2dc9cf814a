package bootstrap

import (
	"context"
	"fmt"

	"github.com/Domenick1991/airbooker/config"
	"github.com/Domenick1991/airbooker/internal/repository"
	"github.com/Domenick1991/airbooker/internal/repository/memory"
	"github.com/Domenick1991/airbooker/internal/repository/postgres"
	"github.com/Domenick1991/airbooker/internal/repository/sqlite"
	"github.com/Domenick1991/airbooker/migrations"
	"github.com/jackc/pgx/v5/pgxpool"
)

// OpenStorage connects the adapter selected by cfg.Driver and makes sure
// its schema exists.
func OpenStorage(ctx context.Context, cfg config.DatabaseConfig) (repository.Storage, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		pool, err := pgxpool.New(ctx, cfg.DSN())
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("ping postgres: %w", err)
		}
		if err := migrations.Apply(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("apply migrations: %w", err)
		}
		return postgres.NewStorage(pool), nil
	case config.DriverSQLite:
		s, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		return s, nil
	case config.DriverMemory:
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}
