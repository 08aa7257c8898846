package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// ErrSchemaMissing is returned when the key-value table has not been created.
var ErrSchemaMissing = errors.New("store: session_kv table missing, run `tdwizard db init`")

type dialect struct {
	name   string
	table  string
	bind   int
	schema []string
}

var postgresDialect = dialect{
	name:  "postgres",
	table: "td_wizard.session_kv",
	bind:  sqlx.DOLLAR,
	schema: []string{
		`CREATE SCHEMA IF NOT EXISTS td_wizard`,
		`CREATE TABLE IF NOT EXISTS td_wizard.session_kv (
			scope      TEXT NOT NULL,
			key        TEXT NOT NULL,
			value      BYTEA NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (scope, key)
		)`,
	},
}

var sqliteDialect = dialect{
	name:  "sqlite",
	table: "session_kv",
	bind:  sqlx.QUESTION,
	schema: []string{
		`CREATE TABLE IF NOT EXISTS session_kv (
			scope      TEXT NOT NULL,
			key        TEXT NOT NULL,
			value      BLOB NOT NULL,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (scope, key)
		)`,
	},
}

// SQLStore keeps scoped key-value rows in PostgreSQL or SQLite.
type SQLStore struct {
	db      *sqlx.DB
	scope   string
	dialect dialect
	ownsDB  bool
}

// OpenPostgres connects to PostgreSQL and binds the store to scope.
func OpenPostgres(connString, scope string) (*SQLStore, error) {
	db, err := sqlx.Open("postgres", connString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if pingErr := db.Ping(); pingErr != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", pingErr)
	}
	s := NewPostgresStore(db, scope)
	s.ownsDB = true
	return s, nil
}

// NewPostgresStore wraps an existing connection. Useful for tests.
func NewPostgresStore(db *sqlx.DB, scope string) *SQLStore {
	return &SQLStore{db: db, scope: scope, dialect: postgresDialect}
}

// OpenSQLite opens (or creates) a SQLite database file and its schema.
func OpenSQLite(ctx context.Context, path, scope string) (*SQLStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// A single connection keeps ":memory:" databases coherent.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, `PRAGMA busy_timeout = 5000`); err != nil {
		db.Close()
		return nil, fmt.Errorf("configure sqlite db: %w", err)
	}
	s := NewSQLiteStore(db, scope)
	s.ownsDB = true
	if err := s.InitSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLiteStore wraps an existing SQLite connection.
func NewSQLiteStore(db *sqlx.DB, scope string) *SQLStore {
	return &SQLStore{db: db, scope: scope, dialect: sqliteDialect}
}

// WithScope returns a store sharing the connection under another scope.
func (s *SQLStore) WithScope(scope string) *SQLStore {
	return &SQLStore{db: s.db, scope: scope, dialect: s.dialect}
}

// Scope returns the scope rows are keyed under.
func (s *SQLStore) Scope() string { return s.scope }

// InitSchema creates the key-value table when missing.
func (s *SQLStore) InitSchema(ctx context.Context) error {
	for _, stmt := range s.dialect.schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to initialise %s schema: %w", s.dialect.name, err)
		}
	}
	return nil
}

func (s *SQLStore) q(query string) string {
	return sqlx.Rebind(s.dialect.bind, strings.ReplaceAll(query, "{table}", s.dialect.table))
}

func (s *SQLStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}
	var value []byte
	err := s.db.GetContext(ctx, &value,
		s.q(`SELECT value FROM {table} WHERE scope = ? AND key = ?`), s.scope, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, s.wrap("get", key, err)
	}
	return value, nil
}

func (s *SQLStore) Set(ctx context.Context, key string, value []byte) error {
	if err := checkKey(key); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		s.q(`INSERT INTO {table} (scope, key, value, updated_at)
		 VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT (scope, key) DO UPDATE SET value = EXCLUDED.value, updated_at = CURRENT_TIMESTAMP`),
		s.scope, key, value)
	if err != nil {
		return s.wrap("set", key, err)
	}
	return nil
}

func (s *SQLStore) Delete(ctx context.Context, key string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		s.q(`DELETE FROM {table} WHERE scope = ? AND key = ?`), s.scope, key)
	if err != nil {
		return s.wrap("delete", key, err)
	}
	return nil
}

// Close closes the connection if this store opened it.
func (s *SQLStore) Close() error {
	if s.ownsDB && s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLStore) wrap(op, key string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "42P01" {
		return fmt.Errorf("%s %s: %w", op, key, ErrSchemaMissing)
	}
	return fmt.Errorf("failed to %s %s: %w", op, key, err)
}
