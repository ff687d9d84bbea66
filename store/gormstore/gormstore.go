// Package gormstore implements the task store with gorm's raw SQL templates:
// statements are written once with named @parameters and gorm binds them.
package gormstore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"tasklist/config"
	"tasklist/models"
	"tasklist/store/pgstore"
)

const (
	listSQL   = `SELECT id::text AS id, title, done, "createdAt" FROM tasks ORDER BY ` + pgstore.ListOrder
	insertSQL = `INSERT INTO tasks (title, done, "createdAt") VALUES (@title, false, now())
		RETURNING id::text AS id, title, done, "createdAt"`
	setDoneSQL = `UPDATE tasks SET done = @done WHERE id = @id
		RETURNING id::text AS id, title, done, "createdAt"`
	toggleSQL = `UPDATE tasks SET done = NOT done WHERE id = @id
		RETURNING id::text AS id, title, done, "createdAt"`
	deleteSQL = `DELETE FROM tasks WHERE id = @id`
)

// Store implements the task store on a *gorm.DB.
type Store struct {
	db *gorm.DB
}

type taskRow struct {
	ID        string    `gorm:"column:id"`
	Title     string    `gorm:"column:title"`
	Done      bool      `gorm:"column:done"`
	CreatedAt time.Time `gorm:"column:createdAt"`
}

func (r taskRow) task() models.Task {
	return models.Task{ID: r.ID, Title: r.Title, Done: r.Done, CreatedAt: r.CreatedAt}
}

// Open connects to Postgres through gorm, applies the pool limits to the
// underlying *sql.DB and ensures the schema exists. The connection is built
// with pgx so the connect timeout applies to every dial.
func Open(ctx context.Context, dsn string, pool config.PoolConfig) (*Store, error) {
	connCfg, err := connConfig(dsn, pool)
	if err != nil {
		return nil, err
	}

	sqlDB := stdlib.OpenDB(*connCfg)
	if pool.MaxConns > 0 {
		sqlDB.SetMaxOpenConns(pool.MaxConns)
		sqlDB.SetMaxIdleConns(pool.MaxConns)
	}
	if pool.IdleTimeout > 0 {
		sqlDB.SetConnMaxIdleTime(pool.IdleTimeout)
	}

	pingCtx := ctx
	if pool.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, pool.ConnectTimeout)
		defer cancel()
	}
	if err := sqlDB.PingContext(pingCtx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger:               logger.Default.LogMode(logger.Silent),
		DisableAutomaticPing: true,
	})
	if err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.Migrate(ctx); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return s, nil
}

func connConfig(dsn string, pool config.PoolConfig) (*pgx.ConnConfig, error) {
	cfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing postgres dsn: %w", err)
	}
	if pool.ConnectTimeout > 0 {
		cfg.ConnectTimeout = pool.ConnectTimeout
	}
	return cfg, nil
}

// Migrate creates the tasks table if it doesn't exist.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range pgstore.Schema {
		if err := s.db.WithContext(ctx).Exec(stmt).Error; err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
	}
	return nil
}

// DB exposes the gorm handle.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// List returns all tasks, newest first.
func (s *Store) List(ctx context.Context) ([]models.Task, error) {
	var rows []taskRow
	if err := s.db.WithContext(ctx).Raw(listSQL).Scan(&rows).Error; err != nil {
		return nil, models.Fault("list", err)
	}

	tasks := make([]models.Task, 0, len(rows))
	for _, r := range rows {
		tasks = append(tasks, r.task())
	}
	return tasks, nil
}

// Create inserts a task; Postgres assigns id and createdAt.
func (s *Store) Create(ctx context.Context, title string) (models.Task, error) {
	title, err := models.NormalizeTitle(title)
	if err != nil {
		return models.Task{}, err
	}
	task, err := s.one(ctx, insertSQL, map[string]any{"title": title})
	return task, models.Fault("create", err)
}

// SetDone sets done for the task with the given id.
func (s *Store) SetDone(ctx context.Context, id string, done bool) (models.Task, error) {
	if err := checkID(id); err != nil {
		return models.Task{}, err
	}
	task, err := s.one(ctx, setDoneSQL, map[string]any{"done": done, "id": id})
	return task, models.Fault("set_done", err)
}

// Toggle flips done in a single statement.
func (s *Store) Toggle(ctx context.Context, id string) (models.Task, error) {
	if err := checkID(id); err != nil {
		return models.Task{}, err
	}
	task, err := s.one(ctx, toggleSQL, map[string]any{"id": id})
	return task, models.Fault("toggle", err)
}

// Delete removes the task with the given id.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	result := s.db.WithContext(ctx).Exec(deleteSQL, map[string]any{"id": id})
	if result.Error != nil {
		return models.Fault("delete", result.Error)
	}
	if result.RowsAffected == 0 {
		return models.ErrNotFound
	}
	return nil
}

// Close releases every pooled connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) one(ctx context.Context, query string, args map[string]any) (models.Task, error) {
	var rows []taskRow
	if err := s.db.WithContext(ctx).Raw(query, args).Scan(&rows).Error; err != nil {
		return models.Task{}, err
	}
	if len(rows) == 0 {
		return models.Task{}, models.ErrNotFound
	}
	return rows[0].task(), nil
}

// checkID rejects a missing id and reports a malformed one as not found, since
// no row can carry it.
func checkID(id string) error {
	if err := models.ValidateID(id); err != nil {
		return err
	}
	if _, err := uuid.Parse(id); err != nil {
		return models.ErrNotFound
	}
	return nil
}
