// Package sqlstore implements the task store on database/sql. SQLite
// (modernc.org/sqlite, pure Go) is the default; MySQL is supported through
// github.com/go-sql-driver/mysql.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"

	"tasklist/config"
)

type dialect struct {
	name    string
	schema  []string
	orderBy string
	// returning is true when UPDATE ... RETURNING is available.
	returning bool
}

var (
	sqliteDialect = dialect{
		name: "sqlite",
		schema: []string{
			`CREATE TABLE IF NOT EXISTS tasks (
				id TEXT PRIMARY KEY,
				title TEXT NOT NULL CHECK (trim(title) <> ''),
				done BOOLEAN NOT NULL DEFAULT 0,
				createdAt DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			)`,
			`CREATE INDEX IF NOT EXISTS idx_tasks_created ON tasks(createdAt DESC)`,
		},
		orderBy:   "createdAt DESC, rowid DESC",
		returning: true,
	}

	mysqlDialect = dialect{
		name: "mysql",
		schema: []string{
			`CREATE TABLE IF NOT EXISTS tasks (
				id CHAR(36) NOT NULL PRIMARY KEY,
				seq BIGINT NOT NULL AUTO_INCREMENT UNIQUE,
				title TEXT NOT NULL,
				done BOOLEAN NOT NULL DEFAULT FALSE,
				createdAt DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
				INDEX idx_tasks_created (createdAt)
			)`,
		},
		orderBy:   "createdAt DESC, seq DESC",
		returning: false,
	}
)

// Store is a database/sql backed task store. The *sql.DB is the process-wide
// connection pool.
type Store struct {
	db      *sql.DB
	dialect dialect
	now     func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces the clock used for createdAt.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// OpenSQLite opens (creating if needed) the SQLite database at path and
// ensures the schema exists.
func OpenSQLite(ctx context.Context, path string, pool config.PoolConfig, opts ...Option) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_time_format=sqlite"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return newStore(ctx, db, sqliteDialect, pool, opts)
}

// OpenMySQL connects to MySQL using a go-sql-driver DSN and ensures the schema
// exists. parseTime is always enabled and times are read as UTC.
func OpenMySQL(ctx context.Context, dsn string, pool config.PoolConfig, opts ...Option) (*Store, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	if pool.ConnectTimeout > 0 {
		cfg.Timeout = pool.ConnectTimeout
	}

	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating mysql connector: %w", err)
	}
	return newStore(ctx, sql.OpenDB(connector), mysqlDialect, pool, opts)
}

func newStore(ctx context.Context, db *sql.DB, d dialect, pool config.PoolConfig, opts []Option) (*Store, error) {
	if pool.MaxConns > 0 {
		db.SetMaxOpenConns(pool.MaxConns)
		db.SetMaxIdleConns(pool.MaxConns)
	}
	if pool.IdleTimeout > 0 {
		db.SetConnMaxIdleTime(pool.IdleTimeout)
	}

	pingCtx := ctx
	if pool.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, pool.ConnectTimeout)
		defer cancel()
	}
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to %s: %w", d.name, err)
	}

	s := &Store{
		db:      db,
		dialect: d,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Migrate creates the tasks table if it doesn't exist.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range s.dialect.schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
	}
	return nil
}

// DB exposes the underlying pool.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close releases every pooled connection.
func (s *Store) Close() error {
	return s.db.Close()
}
