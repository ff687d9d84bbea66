package store

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"tasklist/models"
)

// loggedStore records every statement with its duration and row count.
type loggedStore struct {
	next   Store
	logger *slog.Logger
}

// WithLogging wraps s so that each operation, faults included, is traced at
// debug level.
func WithLogging(s Store, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &loggedStore{next: s, logger: logger.With("component", "store")}
}

// Unwrap returns the wrapped store.
func (s *loggedStore) Unwrap() Store { return s.next }

func (s *loggedStore) observe(ctx context.Context, op string, start time.Time, rows int, err error) {
	duration := time.Since(start)
	switch {
	case err == nil:
		s.logger.DebugContext(ctx, "executed query", "op", op, "duration", duration, "rows", rows)
	case errors.Is(err, models.ErrNotFound), errors.Is(err, models.ErrUnsupported):
		s.logger.DebugContext(ctx, "executed query", "op", op, "duration", duration, "rows", 0, "outcome", err.Error())
	default:
		// Handlers report faults at error level.
		s.logger.DebugContext(ctx, "database query error", "op", op, "duration", duration, "error", err)
	}
}

func (s *loggedStore) List(ctx context.Context) ([]models.Task, error) {
	start := time.Now()
	tasks, err := s.next.List(ctx)
	s.observe(ctx, "list", start, len(tasks), err)
	return tasks, err
}

func (s *loggedStore) Create(ctx context.Context, title string) (models.Task, error) {
	start := time.Now()
	task, err := s.next.Create(ctx, title)
	s.observe(ctx, "create", start, 1, err)
	return task, err
}

func (s *loggedStore) SetDone(ctx context.Context, id string, done bool) (models.Task, error) {
	start := time.Now()
	task, err := s.next.SetDone(ctx, id, done)
	s.observe(ctx, "set_done", start, 1, err)
	return task, err
}

func (s *loggedStore) Toggle(ctx context.Context, id string) (models.Task, error) {
	start := time.Now()
	task, err := s.next.Toggle(ctx, id)
	s.observe(ctx, "toggle", start, 1, err)
	return task, err
}

func (s *loggedStore) Delete(ctx context.Context, id string) error {
	start := time.Now()
	err := s.next.Delete(ctx, id)
	s.observe(ctx, "delete", start, 1, err)
	return err
}

// Migrate forwards to the wrapped store when it supports migrations.
func (s *loggedStore) Migrate(ctx context.Context) error {
	m, ok := s.next.(Migrator)
	if !ok {
		return models.ErrUnsupported
	}
	start := time.Now()
	err := m.Migrate(ctx)
	s.observe(ctx, "migrate", start, 0, err)
	return err
}

func (s *loggedStore) Close() error {
	return s.next.Close()
}
