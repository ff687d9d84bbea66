// Package storetest is a contract test suite shared by every store backend.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tasklist/models"
	"tasklist/store"
)

// Factory returns an empty store. It is called once per subtest and should
// register its own cleanup.
type Factory func(t *testing.T) store.Store

// Run exercises the full store contract against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s store.Store)
	}{
		{"EmptyList", testEmptyList},
		{"CreateThenList", testCreateThenList},
		{"CreateRejectsBlankTitle", testCreateRejectsBlankTitle},
		{"SetDone", testSetDone},
		{"SetDoneNotFound", testSetDoneNotFound},
		{"Toggle", testToggle},
		{"DeleteTwice", testDeleteTwice},
		{"MissingID", testMissingID},
		{"ListOrder", testListOrder},
		{"RoundTrip", testRoundTrip},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, newStore(t))
		})
	}
}

func testEmptyList(t *testing.T, s store.Store) {
	tasks, err := s.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, tasks)
	assert.Empty(t, tasks)
}

func testCreateThenList(t *testing.T, s store.Store) {
	ctx := context.Background()

	created, err := s.Create(ctx, "  buy milk  ")
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "buy milk", created.Title)
	assert.False(t, created.Done)
	assert.False(t, created.CreatedAt.IsZero())

	tasks, err := s.List(ctx)
	require.NoError(t, err)

	matches := 0
	for _, task := range tasks {
		if task.ID == created.ID {
			matches++
			assert.Equal(t, "buy milk", task.Title)
			assert.False(t, task.Done)
		}
	}
	assert.Equal(t, 1, matches)
}

func testCreateRejectsBlankTitle(t *testing.T, s store.Store) {
	ctx := context.Background()

	_, err := s.Create(ctx, "keep me")
	require.NoError(t, err)

	for _, title := range []string{"", "   "} {
		_, err := s.Create(ctx, title)
		var ve *models.ValidationError
		require.ErrorAs(t, err, &ve, "title %q", title)
		assert.Equal(t, "title", ve.Field)
	}

	tasks, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, tasks, 1)
}

func testSetDone(t *testing.T, s store.Store) {
	ctx := context.Background()

	created, err := s.Create(ctx, "write tests")
	require.NoError(t, err)

	updated, err := s.SetDone(ctx, created.ID, true)
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.True(t, updated.Done)

	tasks, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.True(t, tasks[0].Done)

	// setting the same value again is not a toggle
	updated, err = s.SetDone(ctx, created.ID, true)
	require.NoError(t, err)
	assert.True(t, updated.Done)

	updated, err = s.SetDone(ctx, created.ID, false)
	require.NoError(t, err)
	assert.False(t, updated.Done)
}

func testSetDoneNotFound(t *testing.T, s store.Store) {
	ctx := context.Background()

	created, err := s.Create(ctx, "untouched")
	require.NoError(t, err)

	_, err = s.SetDone(ctx, uuid.NewString(), true)
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = s.SetDone(ctx, "not-a-uuid", true)
	assert.ErrorIs(t, err, models.ErrNotFound)

	tasks, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, created.ID, tasks[0].ID)
	assert.False(t, tasks[0].Done)
}

func testToggle(t *testing.T, s store.Store) {
	ctx := context.Background()

	created, err := s.Create(ctx, "flip me")
	require.NoError(t, err)

	toggled, err := s.Toggle(ctx, created.ID)
	if errors.Is(err, models.ErrUnsupported) {
		t.Skip("store does not support atomic toggle")
	}
	require.NoError(t, err)
	assert.True(t, toggled.Done)

	toggled, err = s.Toggle(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, toggled.Done)

	_, err = s.Toggle(ctx, uuid.NewString())
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func testDeleteTwice(t *testing.T, s store.Store) {
	ctx := context.Background()

	keep, err := s.Create(ctx, "keep")
	require.NoError(t, err)
	drop, err := s.Create(ctx, "drop")
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, drop.ID))
	assert.ErrorIs(t, s.Delete(ctx, drop.ID), models.ErrNotFound)

	tasks, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, keep.ID, tasks[0].ID)
}

func testMissingID(t *testing.T, s store.Store) {
	ctx := context.Background()
	var ve *models.ValidationError

	_, err := s.SetDone(ctx, "", true)
	assert.ErrorAs(t, err, &ve)

	_, err = s.Toggle(ctx, "")
	if !errors.Is(err, models.ErrUnsupported) {
		assert.ErrorAs(t, err, &ve)
	}

	assert.ErrorAs(t, s.Delete(ctx, ""), &ve)

	// a blank id is present, it just names no task
	_, err = s.SetDone(ctx, "   ", true)
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, "   "), models.ErrNotFound)
}

func testListOrder(t *testing.T, s store.Store) {
	ctx := context.Background()

	var ids []string
	for _, title := range []string{"first", "second", "third"} {
		task, err := s.Create(ctx, title)
		require.NoError(t, err)
		ids = append(ids, task.ID)
		time.Sleep(10 * time.Millisecond)
	}

	tasks, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 3)
	assert.Equal(t, []string{ids[2], ids[1], ids[0]}, []string{tasks[0].ID, tasks[1].ID, tasks[2].ID})
	assert.Equal(t, "third", tasks[0].Title)
	assert.Equal(t, "first", tasks[2].Title)
}

func testRoundTrip(t *testing.T, s store.Store) {
	ctx := context.Background()

	created, err := s.Create(ctx, "round trip")
	require.NoError(t, err)

	tasks, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 1)

	got := tasks[0]
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, created.Title, got.Title)
	assert.Equal(t, created.Done, got.Done)
	assert.True(t, created.CreatedAt.Equal(got.CreatedAt), "createdAt %v != %v", created.CreatedAt, got.CreatedAt)
}
