// Package apiclient talks to a running tasklist server over its JSON API.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"tasklist/models"
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
	Details string
}

func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("server error (%d): %s: %s", e.Status, e.Message, e.Details)
	}
	return fmt.Sprintf("server error (%d): %s", e.Status, e.Message)
}

// Unwrap maps 404 onto models.ErrNotFound and 501 onto models.ErrUnsupported
// so callers can branch with errors.Is.
func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusNotFound:
		return models.ErrNotFound
	case http.StatusNotImplemented:
		return models.ErrUnsupported
	}
	return nil
}

// Client calls the /api/tasks endpoint.
type Client struct {
	baseURL string
	client  *http.Client
}

// New creates a client for the server at baseURL. A nil httpClient uses
// http.DefaultClient.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  httpClient,
	}
}

// List returns every task, newest first.
func (c *Client) List(ctx context.Context) ([]models.Task, error) {
	tasks := []models.Task{}
	if err := c.do(ctx, http.MethodGet, "/api/tasks", nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// Create adds a task.
func (c *Client) Create(ctx context.Context, title string) (models.Task, error) {
	var task models.Task
	err := c.do(ctx, http.MethodPost, "/api/tasks", map[string]string{"title": title}, &task)
	return task, err
}

// SetDone sets the done flag of the task.
func (c *Client) SetDone(ctx context.Context, id string, done bool) (models.Task, error) {
	var task models.Task
	err := c.do(ctx, http.MethodPut, "/api/tasks", map[string]any{"id": id, "done": done}, &task)
	return task, err
}

// Toggle flips the done flag on the server.
func (c *Client) Toggle(ctx context.Context, id string) (models.Task, error) {
	var task models.Task
	err := c.do(ctx, http.MethodPost, "/api/tasks/toggle", map[string]string{"id": id}, &task)
	return task, err
}

// Delete removes the task.
func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/tasks", map[string]string{"id": id}, nil)
}

// Health reports whether the server answers its health check.
func (c *Client) Health(ctx context.Context) error {
	var resp struct {
		Status string `json:"status"`
	}
	if err := c.do(ctx, http.MethodGet, "/health", nil, &resp); err != nil {
		return err
	}
	if resp.Status != "ok" {
		return fmt.Errorf("unexpected health status %q", resp.Status)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	apiErr := &APIError{Status: resp.StatusCode}
	var payload struct {
		Error   string `json:"error"`
		Details string `json:"details"`
	}
	if json.Unmarshal(b, &payload) == nil && payload.Error != "" {
		apiErr.Message = payload.Error
		apiErr.Details = payload.Details
	} else {
		apiErr.Message = strings.TrimSpace(string(b))
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
	}
	return apiErr
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	return errors.Is(err, models.ErrNotFound)
}
