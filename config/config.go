// Package config loads tasklist settings from a YAML or TOML file, expands
// ${VAR} references from the environment and applies a small set of env
// overrides on top.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Store drivers.
const (
	DriverSQLite    = "sqlite"
	DriverMySQL     = "mysql"
	DriverPostgres  = "postgres"
	DriverGorm      = "gorm"
	DriverPostgREST = "postgrest"
)

// Config is the complete tasklist configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server" toml:"server"`
	Store   StoreConfig   `yaml:"store" toml:"store"`
	API     APIConfig     `yaml:"api" toml:"api"`
	Logging LoggingConfig `yaml:"logging" toml:"logging"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Addr            string        `yaml:"addr" toml:"addr"`
	ShutdownTimeout time.Duration `yaml:"-" toml:"-"`

	ShutdownTimeoutRaw string `yaml:"shutdown_timeout" toml:"shutdown_timeout"`
}

// StoreConfig selects the data-access variant and its connection settings.
type StoreConfig struct {
	Driver    string          `yaml:"driver" toml:"driver"`
	Path      string          `yaml:"path" toml:"path"`
	DSN       string          `yaml:"dsn" toml:"dsn"`
	PostgREST PostgRESTConfig `yaml:"postgrest" toml:"postgrest"`
	Pool      PoolConfig      `yaml:"pool" toml:"pool"`
}

// PostgRESTConfig points at a hosted PostgREST endpoint (e.g. Supabase).
type PostgRESTConfig struct {
	URL    string `yaml:"url" toml:"url"`
	APIKey string `yaml:"api_key" toml:"api_key"`
	Schema string `yaml:"schema" toml:"schema"`
	Table  string `yaml:"table" toml:"table"`
}

// PoolConfig bounds the connection pool shared by all requests.
type PoolConfig struct {
	MaxConns       int           `yaml:"max_conns" toml:"max_conns"`
	IdleTimeout    time.Duration `yaml:"-" toml:"-"`
	ConnectTimeout time.Duration `yaml:"-" toml:"-"`

	IdleTimeoutRaw    string `yaml:"idle_timeout" toml:"idle_timeout"`
	ConnectTimeoutRaw string `yaml:"connect_timeout" toml:"connect_timeout"`
}

// APIConfig controls response shaping.
type APIConfig struct {
	// ExposeErrorDetails adds the underlying error text to 500 responses.
	ExposeErrorDetails bool `yaml:"expose_error_details" toml:"expose_error_details"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// Default returns the configuration used when no file is present: a local
// SQLite database and the pool limits of a small hosted Postgres plan.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":3000",
			ShutdownTimeout: 10 * time.Second,
		},
		Store: StoreConfig{
			Driver: DriverSQLite,
			Path:   "./tasks.db",
			PostgREST: PostgRESTConfig{
				Schema: "public",
				Table:  "tasks",
			},
			Pool: PoolConfig{
				MaxConns:       20,
				IdleTimeout:    30 * time.Second,
				ConnectTimeout: 2 * time.Second,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Files ending in .toml are decoded as TOML, everything else as YAML.
// Environment variables in the format ${VAR_NAME} are expanded first, and
// unset fields keep the values from Default.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expanded := expandEnvVars(string(data))

	cfg := Default()
	// Raw duration strings start empty so parseDurations only touches what the file sets.
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(expanded, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	default:
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := parseDurations(cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	cfg.ApplyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// LoadOrDefault loads path if it exists and falls back to Default (with env
// overrides applied) otherwise.
func LoadOrDefault(path string) (*Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("checking config file: %w", err)
		}
	}

	cfg := Default()
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from well-known environment variables.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("TASKLIST_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("TASKLIST_STORE_DRIVER"); v != "" {
		c.Store.Driver = v
	}
	if v := os.Getenv("TASKLIST_DATABASE_URL"); v != "" {
		c.Store.DSN = v
	}
	if v := os.Getenv("SUPABASE_URL"); v != "" && c.Store.PostgREST.URL == "" {
		c.Store.PostgREST.URL = v
	}
	if v := os.Getenv("SUPABASE_ANON_KEY"); v != "" && c.Store.PostgREST.APIKey == "" {
		c.Store.PostgREST.APIKey = v
	}
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// Validate checks that the selected driver is known and has what it needs.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}

	switch c.Store.Driver {
	case DriverSQLite:
		if c.Store.Path == "" {
			return fmt.Errorf("store.path is required for the sqlite driver")
		}
	case DriverMySQL, DriverPostgres, DriverGorm:
		if c.Store.DSN == "" {
			return fmt.Errorf("store.dsn is required for the %s driver", c.Store.Driver)
		}
	case DriverPostgREST:
		if c.Store.PostgREST.URL == "" {
			return fmt.Errorf("store.postgrest.url is required for the postgrest driver")
		}
		if c.Store.PostgREST.APIKey == "" {
			return fmt.Errorf("store.postgrest.api_key is required for the postgrest driver")
		}
	case "":
		return fmt.Errorf("store.driver is required")
	default:
		return fmt.Errorf("unknown store.driver %q", c.Store.Driver)
	}

	if c.Store.Pool.MaxConns < 0 {
		return fmt.Errorf("store.pool.max_conns must not be negative")
	}
	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	fields := []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"server.shutdown_timeout", cfg.Server.ShutdownTimeoutRaw, &cfg.Server.ShutdownTimeout},
		{"store.pool.idle_timeout", cfg.Store.Pool.IdleTimeoutRaw, &cfg.Store.Pool.IdleTimeout},
		{"store.pool.connect_timeout", cfg.Store.Pool.ConnectTimeoutRaw, &cfg.Store.Pool.ConnectTimeout},
	}
	for _, f := range fields {
		if f.raw == "" {
			continue
		}
		d, err := time.ParseDuration(f.raw)
		if err != nil {
			return fmt.Errorf("parsing %s %q: %w", f.name, f.raw, err)
		}
		*f.dst = d
	}
	return nil
}
