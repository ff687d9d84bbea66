package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_YAML(t *testing.T) {
	t.Setenv("TEST_DATABASE_URL", "postgres://u:p@db:5432/tasks")

	path := writeConfig(t, "config.yaml", `
server:
  addr: "127.0.0.1:8080"
  shutdown_timeout: "5s"
store:
  driver: postgres
  dsn: ${TEST_DATABASE_URL}
  pool:
    max_conns: 5
    idle_timeout: "1m"
api:
  expose_error_details: true
logging:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8080", cfg.Server.Addr)
	assert.Equal(t, 5*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, DriverPostgres, cfg.Store.Driver)
	assert.Equal(t, "postgres://u:p@db:5432/tasks", cfg.Store.DSN)
	assert.Equal(t, 5, cfg.Store.Pool.MaxConns)
	assert.Equal(t, time.Minute, cfg.Store.Pool.IdleTimeout)
	// not set in the file, kept from Default
	assert.Equal(t, 2*time.Second, cfg.Store.Pool.ConnectTimeout)
	assert.True(t, cfg.API.ExposeErrorDetails)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoad_TOML(t *testing.T) {
	path := writeConfig(t, "config.toml", `
[server]
addr = ":9000"

[store]
driver = "postgrest"

[store.postgrest]
url = "https://example.supabase.co/rest/v1"
api_key = "anon-key"
table = "todos"

[store.pool]
connect_timeout = "500ms"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, DriverPostgREST, cfg.Store.Driver)
	assert.Equal(t, "https://example.supabase.co/rest/v1", cfg.Store.PostgREST.URL)
	assert.Equal(t, "anon-key", cfg.Store.PostgREST.APIKey)
	assert.Equal(t, "todos", cfg.Store.PostgREST.Table)
	assert.Equal(t, "public", cfg.Store.PostgREST.Schema)
	assert.Equal(t, 500*time.Millisecond, cfg.Store.Pool.ConnectTimeout)
}

func TestLoad_InvalidDuration(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
store:
  pool:
    idle_timeout: "soon"
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.pool.idle_timeout")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config file")
}

func TestLoadOrDefault(t *testing.T) {
	t.Setenv("TASKLIST_ADDR", ":4000")

	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ":4000", cfg.Server.Addr)
	assert.Equal(t, DriverSQLite, cfg.Store.Driver)
	assert.Equal(t, "./tasks.db", cfg.Store.Path)
	assert.Equal(t, 20, cfg.Store.Pool.MaxConns)
	assert.Equal(t, 30*time.Second, cfg.Store.Pool.IdleTimeout)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("TASKLIST_STORE_DRIVER", "mysql")
	t.Setenv("TASKLIST_DATABASE_URL", "root:pw@tcp(localhost:3306)/tasks")
	t.Setenv("SUPABASE_URL", "https://x.supabase.co/rest/v1")
	t.Setenv("SUPABASE_ANON_KEY", "key")

	cfg := Default()
	cfg.ApplyEnv()

	assert.Equal(t, DriverMySQL, cfg.Store.Driver)
	assert.Equal(t, "root:pw@tcp(localhost:3306)/tasks", cfg.Store.DSN)
	assert.Equal(t, "https://x.supabase.co/rest/v1", cfg.Store.PostgREST.URL)
	assert.Equal(t, "key", cfg.Store.PostgREST.APIKey)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"default is valid", func(*Config) {}, ""},
		{"missing addr", func(c *Config) { c.Server.Addr = "" }, "server.addr"},
		{"unknown driver", func(c *Config) { c.Store.Driver = "oracle" }, "unknown store.driver"},
		{"empty driver", func(c *Config) { c.Store.Driver = "" }, "store.driver is required"},
		{"sqlite without path", func(c *Config) { c.Store.Path = "" }, "store.path"},
		{"postgres without dsn", func(c *Config) { c.Store.Driver = DriverPostgres }, "store.dsn"},
		{"gorm without dsn", func(c *Config) { c.Store.Driver = DriverGorm }, "store.dsn"},
		{"postgrest without url", func(c *Config) { c.Store.Driver = DriverPostgREST }, "store.postgrest.url"},
		{"postgrest without key", func(c *Config) {
			c.Store.Driver = DriverPostgREST
			c.Store.PostgREST.URL = "http://localhost:3000"
		}, "store.postgrest.api_key"},
		{"negative pool", func(c *Config) { c.Store.Pool.MaxConns = -1 }, "max_conns"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("TASKLIST_TEST_VAR", "value")
	assert.Equal(t, "a=value b=", expandEnvVars("a=${TASKLIST_TEST_VAR} b=${TASKLIST_TEST_UNSET_VAR}"))
}
