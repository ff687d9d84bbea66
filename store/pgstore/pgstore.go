// Package pgstore implements the task store on a pgx connection pool with
// hand-written SQL.
package pgstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"tasklist/config"
	"tasklist/models"
)

// Schema is the Postgres DDL shared by every Postgres-backed variant. seq
// orders tasks created within the same microsecond.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS tasks (
    id          UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    seq         BIGSERIAL NOT NULL,
    title       TEXT NOT NULL CHECK (btrim(title) <> ''),
    done        BOOLEAN NOT NULL DEFAULT false,
    "createdAt" TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
	`ALTER TABLE tasks ADD COLUMN IF NOT EXISTS seq BIGSERIAL`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_created_seq ON tasks ("createdAt" DESC, seq DESC)`,
}

// ListOrder is the ORDER BY clause for newest-first listings.
const ListOrder = `"createdAt" DESC, seq DESC`

const returnColumns = `id::text AS id, title, done, "createdAt"`

// Store implements the task store backed by Postgres.
type Store struct {
	pool *pgxpool.Pool
}

type taskRow struct {
	ID        string    `db:"id"`
	Title     string    `db:"title"`
	Done      bool      `db:"done"`
	CreatedAt time.Time `db:"createdAt"`
}

func (r taskRow) task() models.Task {
	return models.Task{ID: r.ID, Title: r.Title, Done: r.Done, CreatedAt: r.CreatedAt}
}

// Open creates the pool, verifies connectivity and ensures the schema exists.
func Open(ctx context.Context, dsn string, pool config.PoolConfig) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing postgres dsn: %w", err)
	}
	if pool.MaxConns > 0 {
		cfg.MaxConns = int32(pool.MaxConns)
	}
	if pool.IdleTimeout > 0 {
		cfg.MaxConnIdleTime = pool.IdleTimeout
	}
	if pool.ConnectTimeout > 0 {
		cfg.ConnConfig.ConnectTimeout = pool.ConnectTimeout
	}

	p, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating pool: %w", err)
	}
	if err := p.Ping(ctx); err != nil {
		p.Close()
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}

	s := New(p)
	if err := s.Migrate(ctx); err != nil {
		p.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an existing pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Migrate creates the tasks table and index if they don't exist.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range Schema {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure task schema: %w", err)
		}
	}
	return nil
}

// Pool exposes the underlying pool.
func (s *Store) Pool() *pgxpool.Pool {
	return s.pool
}

// List returns all tasks, newest first.
func (s *Store) List(ctx context.Context) ([]models.Task, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+returnColumns+` FROM tasks ORDER BY `+ListOrder)
	if err != nil {
		return nil, models.Fault("list", err)
	}
	found, err := pgx.CollectRows(rows, pgx.RowToStructByName[taskRow])
	if err != nil {
		return nil, models.Fault("list", err)
	}

	tasks := make([]models.Task, 0, len(found))
	for _, r := range found {
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
	task, err := s.one(ctx,
		`INSERT INTO tasks (title, done, "createdAt") VALUES ($1, false, now()) RETURNING `+returnColumns,
		title)
	return task, models.Fault("create", err)
}

// SetDone sets done for the task with the given id.
func (s *Store) SetDone(ctx context.Context, id string, done bool) (models.Task, error) {
	if err := checkID(id); err != nil {
		return models.Task{}, err
	}
	task, err := s.one(ctx,
		`UPDATE tasks SET done = $1 WHERE id = $2 RETURNING `+returnColumns,
		done, id)
	return task, models.Fault("set_done", err)
}

// Toggle flips done in a single statement.
func (s *Store) Toggle(ctx context.Context, id string) (models.Task, error) {
	if err := checkID(id); err != nil {
		return models.Task{}, err
	}
	task, err := s.one(ctx,
		`UPDATE tasks SET done = NOT done WHERE id = $1 RETURNING `+returnColumns,
		id)
	return task, models.Fault("toggle", err)
}

// Delete removes the task with the given id.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return models.Fault("delete", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// Close releases every pooled connection.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) one(ctx context.Context, query string, args ...any) (models.Task, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return models.Task{}, err
	}
	r, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[taskRow])
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Task{}, models.ErrNotFound
	}
	if err != nil {
		return models.Task{}, err
	}
	return r.task(), nil
}

// checkID rejects a missing id. A value that is not a UUID cannot match any
// row, so it is reported as not found instead of letting Postgres fail the cast.
func checkID(id string) error {
	if err := models.ValidateID(id); err != nil {
		return err
	}
	if _, err := uuid.Parse(id); err != nil {
		return models.ErrNotFound
	}
	return nil
}
