package apiclient_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tasklist/apiclient"
	"tasklist/config"
	"tasklist/handlers"
	"tasklist/models"
	"tasklist/store/sqlstore"
)

func newServer(t *testing.T) *apiclient.Client {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st, err := sqlstore.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "tasks.db"),
		config.PoolConfig{MaxConns: 4, ConnectTimeout: time.Second})
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	r, err := handlers.NewRouter(st, slog.New(slog.NewTextHandler(io.Discard, nil)), handlers.Options{})
	require.NoError(t, err)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return apiclient.New(srv.URL+"/", srv.Client())
}

func TestClient_RoundTrip(t *testing.T) {
	c := newServer(t)
	ctx := context.Background()

	require.NoError(t, c.Health(ctx))

	tasks, err := c.List(ctx)
	require.NoError(t, err)
	assert.NotNil(t, tasks)
	assert.Empty(t, tasks)

	created, err := c.Create(ctx, " call mom ")
	require.NoError(t, err)
	assert.Equal(t, "call mom", created.Title)

	updated, err := c.SetDone(ctx, created.ID, true)
	require.NoError(t, err)
	assert.True(t, updated.Done)

	toggled, err := c.Toggle(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, toggled.Done)

	require.NoError(t, c.Delete(ctx, created.ID))

	err = c.Delete(ctx, created.ID)
	require.Error(t, err)
	assert.True(t, apiclient.IsNotFound(err))
}

func TestClient_ValidationError(t *testing.T) {
	c := newServer(t)

	_, err := c.Create(context.Background(), "   ")
	var apiErr *apiclient.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "Title is required", apiErr.Message)
	assert.False(t, apiclient.IsNotFound(err))
}

func TestClient_ErrorBodies(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tasks/toggle":
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotImplemented)
			io.WriteString(w, `{"error":"Toggle is not supported by this store"}`)
		default:
			w.WriteHeader(http.StatusBadGateway)
			io.WriteString(w, "upstream down")
		}
	}))
	defer srv.Close()
	c := apiclient.New(srv.URL, nil)

	_, err := c.Toggle(context.Background(), "x")
	assert.True(t, errors.Is(err, models.ErrUnsupported))

	_, err = c.List(context.Background())
	var apiErr *apiclient.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, "upstream down", apiErr.Message)
}

func TestClient_ContextCanceled(t *testing.T) {
	c := newServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.List(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
