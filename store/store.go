// Package store defines the data-access contract shared by every backend and
// picks the concrete backend from configuration.
//
// All variants behave the same: each operation is a single statement, a
// missing row is reported as models.ErrNotFound and any other failure is
// wrapped in a *models.StoreError.
package store

import (
	"context"
	"fmt"
	"log/slog"

	"tasklist/config"
	"tasklist/models"
	"tasklist/store/gormstore"
	"tasklist/store/pgstore"
	"tasklist/store/postgreststore"
	"tasklist/store/sqlstore"
)

// Store is the data-access contract used by the request handlers.
type Store interface {
	// List returns every task, newest first.
	List(ctx context.Context) ([]models.Task, error)
	// Create inserts a task with done=false and returns it with its
	// store-assigned id and creation time.
	Create(ctx context.Context, title string) (models.Task, error)
	// SetDone sets done to the given value and returns the updated task.
	SetDone(ctx context.Context, id string, done bool) (models.Task, error)
	// Toggle flips done in a single statement.
	Toggle(ctx context.Context, id string) (models.Task, error)
	// Delete removes the task.
	Delete(ctx context.Context, id string) error
	// Close releases the connection pool.
	Close() error
}

// Migrator is implemented by stores that can create their own schema.
type Migrator interface {
	Migrate(ctx context.Context) error
}

var (
	_ Store = (*sqlstore.Store)(nil)
	_ Store = (*pgstore.Store)(nil)
	_ Store = (*gormstore.Store)(nil)
	_ Store = (*postgreststore.Store)(nil)
)

// Open creates the backend selected by cfg.Driver. The returned store owns the
// connection pool and must be closed by the caller on shutdown.
func Open(ctx context.Context, cfg config.StoreConfig, logger *slog.Logger) (Store, error) {
	var (
		s   Store
		err error
	)

	switch cfg.Driver {
	case config.DriverSQLite:
		s, err = sqlstore.OpenSQLite(ctx, cfg.Path, cfg.Pool)
	case config.DriverMySQL:
		s, err = sqlstore.OpenMySQL(ctx, cfg.DSN, cfg.Pool)
	case config.DriverPostgres:
		s, err = pgstore.Open(ctx, cfg.DSN, cfg.Pool)
	case config.DriverGorm:
		s, err = gormstore.Open(ctx, cfg.DSN, cfg.Pool)
	case config.DriverPostgREST:
		s, err = postgreststore.New(postgreststore.Options{
			URL:    cfg.PostgREST.URL,
			APIKey: cfg.PostgREST.APIKey,
			Schema: cfg.PostgREST.Schema,
			Table:  cfg.PostgREST.Table,
		})
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s store: %w", cfg.Driver, err)
	}

	logger.Info("store opened", "driver", cfg.Driver)
	return WithLogging(s, logger), nil
}
