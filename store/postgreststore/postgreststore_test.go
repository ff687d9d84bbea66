package postgreststore_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tasklist/models"
	"tasklist/store"
	"tasklist/store/postgreststore"
	"tasklist/store/storetest"
)

// fakePostgREST serves the subset of the PostgREST API the store uses.
type fakePostgREST struct {
	mu      sync.Mutex
	rows    []fakeRow
	seq     int
	fail    bool
	headers []http.Header
	queries []string
}

type fakeRow struct {
	models.Task
	seq int
}

func (f *fakePostgREST) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.headers = append(f.headers, r.Header.Clone())
	f.queries = append(f.queries, r.Method+" "+r.URL.RawQuery)

	if !strings.HasSuffix(r.URL.Path, "/tasks") {
		writeJSON(w, http.StatusNotFound, map[string]string{"code": "42P01", "message": "relation does not exist"})
		return
	}
	if f.fail {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"code": "XX000", "message": "database unavailable"})
		return
	}

	id := strings.TrimPrefix(r.URL.Query().Get("id"), "eq.")

	switch r.Method {
	case http.MethodGet:
		out := make([]fakeRow, len(f.rows))
		copy(out, f.rows)
		sort.Slice(out, func(i, j int) bool {
			if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
				return out[i].CreatedAt.After(out[j].CreatedAt)
			}
			return out[i].seq > out[j].seq
		})
		writeJSON(w, http.StatusOK, tasksOf(out))

	case http.MethodPost:
		var body struct {
			Title string `json:"title"`
			Done  bool   `json:"done"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"code": "PGRST102", "message": err.Error()})
			return
		}
		f.seq++
		row := fakeRow{
			Task: models.Task{
				ID:        uuid.NewString(),
				Title:     body.Title,
				Done:      body.Done,
				CreatedAt: time.Now().UTC(),
			},
			seq: f.seq,
		}
		f.rows = append(f.rows, row)
		writeJSON(w, http.StatusCreated, []models.Task{row.Task})

	case http.MethodPatch:
		var body struct {
			Done bool `json:"done"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"code": "PGRST102", "message": err.Error()})
			return
		}
		updated := []models.Task{}
		for i := range f.rows {
			if f.rows[i].ID == id {
				f.rows[i].Done = body.Done
				updated = append(updated, f.rows[i].Task)
			}
		}
		writeJSON(w, http.StatusOK, updated)

	case http.MethodDelete:
		removed := []models.Task{}
		kept := f.rows[:0]
		for _, row := range f.rows {
			if row.ID == id {
				removed = append(removed, row.Task)
				continue
			}
			kept = append(kept, row)
		}
		f.rows = kept
		writeJSON(w, http.StatusOK, removed)

	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"code": "PGRST117", "message": "unsupported method"})
	}
}

func (f *fakePostgREST) setFail() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = true
}

func (f *fakePostgREST) requests() ([]http.Header, []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]http.Header(nil), f.headers...), append([]string(nil), f.queries...)
}

func tasksOf(rows []fakeRow) []models.Task {
	out := make([]models.Task, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Task)
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newFakeStore(t *testing.T) (*postgreststore.Store, *fakePostgREST) {
	t.Helper()

	fake := &fakePostgREST{}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	s, err := postgreststore.New(postgreststore.Options{
		URL:    srv.URL + "/rest/v1",
		APIKey: "anon-key",
		Schema: "public",
		Table:  "tasks",
	})
	require.NoError(t, err)
	return s, fake
}

func TestPostgRESTContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		s, _ := newFakeStore(t)
		return s
	})
}

func TestSendsAuthHeaders(t *testing.T) {
	s, fake := newFakeStore(t)

	_, err := s.List(context.Background())
	require.NoError(t, err)

	headers, queries := fake.requests()
	require.Len(t, headers, 1)
	h := headers[0]
	assert.Equal(t, "anon-key", h.Get("apikey"))
	assert.Equal(t, "Bearer anon-key", h.Get("Authorization"))
	assert.Equal(t, "public", h.Get("Accept-Profile"))
	assert.Contains(t, queries[0], "order=createdAt.desc")
}

func TestCreateAsksForRepresentation(t *testing.T) {
	s, fake := newFakeStore(t)

	_, err := s.Create(context.Background(), "hello")
	require.NoError(t, err)

	headers, _ := fake.requests()
	require.Len(t, headers, 1)
	assert.Contains(t, headers[0].Get("Prefer"), "return=representation")
}

func TestServerErrorIsStoreFault(t *testing.T) {
	s, fake := newFakeStore(t)
	fake.setFail()

	_, err := s.List(context.Background())
	var se *models.StoreError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "list", se.Op)

	_, err = s.SetDone(context.Background(), uuid.NewString(), true)
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "set_done", se.Op)
}

func TestToggleUnsupported(t *testing.T) {
	s, fake := newFakeStore(t)

	_, err := s.Toggle(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, models.ErrUnsupported)
	_, queries := fake.requests()
	assert.Empty(t, queries, "toggle must not reach the server")
}

func TestNew_RequiresURL(t *testing.T) {
	_, err := postgreststore.New(postgreststore.Options{})
	assert.Error(t, err)
}
