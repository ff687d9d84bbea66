package gormstore_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"tasklist/config"
	"tasklist/store"
	"tasklist/store/gormstore"
	"tasklist/store/storetest"
)

func TestGormContract(t *testing.T) {
	dsn := os.Getenv("TASKLIST_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TASKLIST_TEST_POSTGRES_DSN not set")
	}

	storetest.Run(t, func(t *testing.T) store.Store {
		s, err := gormstore.Open(context.Background(), dsn, config.PoolConfig{MaxConns: 4, IdleTimeout: time.Minute})
		require.NoError(t, err)
		require.NoError(t, s.DB().Exec("TRUNCATE tasks").Error)
		t.Cleanup(func() { s.Close() })
		return s
	})
}
