// Package postgreststore implements the task store against a hosted PostgREST
// endpoint such as Supabase, using the postgrest-go client.
//
// The table is expected to match pgstore.Schema. PostgREST cannot express
// `done = NOT done`, so Toggle reports models.ErrUnsupported.
package postgreststore

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/supabase-community/postgrest-go"

	"tasklist/models"
)

// Options configures the client.
type Options struct {
	// URL is the REST root, e.g. https://<project>.supabase.co/rest/v1.
	URL string
	// APIKey is sent as both the apikey header and the bearer token.
	APIKey string
	Schema string
	Table  string
}

// Store talks to PostgREST over HTTP. Connection reuse is handled by the
// client's HTTP transport.
type Store struct {
	client *postgrest.Client
	table  string
}

// New builds a client for the given endpoint.
func New(opts Options) (*Store, error) {
	if opts.URL == "" {
		return nil, errors.New("postgrest url is required")
	}
	if opts.Table == "" {
		opts.Table = "tasks"
	}

	headers := map[string]string{}
	if opts.APIKey != "" {
		headers["apikey"] = opts.APIKey
		headers["Authorization"] = "Bearer " + opts.APIKey
	}

	client := postgrest.NewClient(opts.URL, opts.Schema, headers)
	if client.ClientError != nil {
		return nil, fmt.Errorf("creating postgrest client: %w", client.ClientError)
	}
	return &Store{client: client, table: opts.Table}, nil
}

// List returns all tasks, newest first.
func (s *Store) List(_ context.Context) ([]models.Task, error) {
	tasks := []models.Task{}
	_, err := s.client.From(s.table).
		Select("id,title,done,createdAt", "", false).
		Order("createdAt", &postgrest.OrderOpts{Ascending: false}).
		ExecuteTo(&tasks)
	if err != nil {
		return nil, models.Fault("list", err)
	}
	return tasks, nil
}

// Create inserts a task and returns the row PostgREST sends back.
func (s *Store) Create(_ context.Context, title string) (models.Task, error) {
	title, err := models.NormalizeTitle(title)
	if err != nil {
		return models.Task{}, err
	}

	var rows []models.Task
	_, err = s.client.From(s.table).
		Insert(map[string]any{"title": title, "done": false}, false, "", "representation", "").
		ExecuteTo(&rows)
	if err != nil {
		return models.Task{}, models.Fault("create", err)
	}
	if len(rows) == 0 {
		return models.Task{}, models.Fault("create", errors.New("insert returned no row"))
	}
	return rows[0], nil
}

// SetDone sets done for the task with the given id.
func (s *Store) SetDone(_ context.Context, id string, done bool) (models.Task, error) {
	if err := checkID(id); err != nil {
		return models.Task{}, err
	}

	var rows []models.Task
	_, err := s.client.From(s.table).
		Update(map[string]any{"done": done}, "representation", "").
		Eq("id", id).
		ExecuteTo(&rows)
	if err != nil {
		return models.Task{}, models.Fault("set_done", err)
	}
	if len(rows) == 0 {
		return models.Task{}, models.ErrNotFound
	}
	return rows[0], nil
}

// Toggle is not available over plain PostgREST.
func (s *Store) Toggle(_ context.Context, id string) (models.Task, error) {
	if err := models.ValidateID(id); err != nil {
		return models.Task{}, err
	}
	return models.Task{}, models.ErrUnsupported
}

// Delete removes the task with the given id.
func (s *Store) Delete(_ context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}

	var rows []models.Task
	_, err := s.client.From(s.table).
		Delete("representation", "").
		Eq("id", id).
		ExecuteTo(&rows)
	if err != nil {
		return models.Fault("delete", err)
	}
	if len(rows) == 0 {
		return models.ErrNotFound
	}
	return nil
}

// Close is a no-op; the HTTP client holds no resources that need releasing.
func (s *Store) Close() error {
	return nil
}

func checkID(id string) error {
	if err := models.ValidateID(id); err != nil {
		return err
	}
	if _, err := uuid.Parse(id); err != nil {
		return models.ErrNotFound
	}
	return nil
}
