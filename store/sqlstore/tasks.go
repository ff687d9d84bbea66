package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"tasklist/models"
)

const taskColumns = "id, title, done, createdAt"

// List returns all tasks, newest first.
func (s *Store) List(ctx context.Context) ([]models.Task, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+taskColumns+" FROM tasks ORDER BY "+s.dialect.orderBy)
	if err != nil {
		return nil, models.Fault("list", err)
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, models.Fault("list", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, models.Fault("list", err)
	}
	return tasks, nil
}

// Create inserts a new task. The id and createdAt are assigned here so the
// insert needs no read-back.
func (s *Store) Create(ctx context.Context, title string) (models.Task, error) {
	title, err := models.NormalizeTitle(title)
	if err != nil {
		return models.Task{}, err
	}

	task := models.Task{
		ID:        uuid.NewString(),
		Title:     title,
		Done:      false,
		CreatedAt: s.now().UTC().Truncate(time.Microsecond),
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO tasks (id, title, done, createdAt) VALUES (?, ?, ?, ?)",
		task.ID, task.Title, task.Done, task.CreatedAt,
	)
	if err != nil {
		return models.Task{}, models.Fault("create", err)
	}
	return task, nil
}

// SetDone sets done for the task with the given id.
func (s *Store) SetDone(ctx context.Context, id string, done bool) (models.Task, error) {
	if err := models.ValidateID(id); err != nil {
		return models.Task{}, err
	}
	task, err := s.updateReturning(ctx, "UPDATE tasks SET done = ? WHERE id = ?", id, done, id)
	return task, models.Fault("set_done", err)
}

// Toggle flips done in the database, so concurrent toggles never lose an update.
func (s *Store) Toggle(ctx context.Context, id string) (models.Task, error) {
	if err := models.ValidateID(id); err != nil {
		return models.Task{}, err
	}
	task, err := s.updateReturning(ctx, "UPDATE tasks SET done = NOT done WHERE id = ?", id, id)
	return task, models.Fault("toggle", err)
}

func (s *Store) updateReturning(ctx context.Context, query, id string, args ...any) (models.Task, error) {
	if s.dialect.returning {
		row := s.db.QueryRowContext(ctx, query+" RETURNING "+taskColumns, args...)
		task, err := scanTask(row)
		if errors.Is(err, sql.ErrNoRows) {
			return models.Task{}, models.ErrNotFound
		}
		return task, err
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return models.Task{}, err
	}
	return s.get(ctx, id)
}

func (s *Store) get(ctx context.Context, id string) (models.Task, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+taskColumns+" FROM tasks WHERE id = ?", id)
	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Task{}, models.ErrNotFound
	}
	return task, err
}

// Delete removes the task with the given id.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := models.ValidateID(id); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id)
	if err != nil {
		return models.Fault("delete", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return models.Fault("delete", err)
	}
	if n == 0 {
		return models.ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(sc scanner) (models.Task, error) {
	var (
		task      models.Task
		createdAt sqlTime
	)
	if err := sc.Scan(&task.ID, &task.Title, &task.Done, &createdAt); err != nil {
		return models.Task{}, err
	}
	task.CreatedAt = createdAt.Time
	return task, nil
}

// sqlTime scans DATETIME values whether the driver hands back a time.Time or
// the stored text. modernc only converts columns with a declared type, which
// RETURNING results do not always carry.
type sqlTime struct {
	time.Time
}

var timeLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999 -0700 MST",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	time.RFC3339Nano,
}

func (t *sqlTime) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		t.Time = v.UTC()
		return nil
	case string:
		return t.parse(v)
	case []byte:
		return t.parse(string(v))
	case nil:
		t.Time = time.Time{}
		return nil
	default:
		return fmt.Errorf("unsupported createdAt type %T", src)
	}
}

func (t *sqlTime) parse(s string) error {
	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("unrecognized createdAt value %q", s)
}
