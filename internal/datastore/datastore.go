package datastore

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"testdrive-wizard/internal/store"
)

// Type selects a key-value back-end.
type Type string

const (
	// MemoryStore keeps values for the life of the process only.
	MemoryStore Type = "memory"
	// FileStore writes one JSON file per key under DataDir.
	FileStore Type = "file"
	// SQLiteStore keeps rows in DataDir/tdwizard.db.
	SQLiteStore Type = "sqlite"
	// PostgreSQLStore keeps rows in td_wizard.session_kv.
	PostgreSQLStore Type = "postgresql"
)

// Config holds configuration for data store creation.
type Config struct {
	Type             Type
	ConnectionString string
	DataDir          string
}

// UnsupportedStoreTypeError is returned when an unsupported store type is requested.
type UnsupportedStoreTypeError struct {
	Type string
}

func (e *UnsupportedStoreTypeError) Error() string {
	return "unsupported store type: " + e.Type
}

// ParseType accepts the aliases operators tend to type.
func ParseType(s string) (Type, error) {
	switch s {
	case "memory", "mem", "mock":
		return MemoryStore, nil
	case "file", "fs", "":
		return FileStore, nil
	case "sqlite", "sqlite3":
		return SQLiteStore, nil
	case "postgresql", "postgres", "db":
		return PostgreSQLStore, nil
	default:
		return "", &UnsupportedStoreTypeError{Type: s}
	}
}

// NewKeyValue opens the configured back-end bound to scope. Session state
// uses the session id as scope; branding uses store.GlobalScope.
func NewKeyValue(ctx context.Context, config Config, scope string) (store.KeyValue, error) {
	if scope == "" {
		return nil, fmt.Errorf("store scope is required")
	}
	switch config.Type {
	case MemoryStore:
		return store.NewMemoryStore(), nil
	case FileStore:
		if !filepath.IsLocal(scope) || strings.ContainsAny(scope, `/\`) {
			return nil, fmt.Errorf("store scope %q is not a plain name", scope)
		}
		return store.NewFileStore(scopeDir(config.DataDir, scope))
	case SQLiteStore:
		return store.OpenSQLite(ctx, filepath.Join(config.DataDir, "tdwizard.db"), scope)
	case PostgreSQLStore:
		return store.OpenPostgres(config.ConnectionString, scope)
	default:
		return nil, &UnsupportedStoreTypeError{Type: string(config.Type)}
	}
}

func scopeDir(dataDir, scope string) string {
	if scope == store.GlobalScope {
		return filepath.Join(dataDir, scope)
	}
	return filepath.Join(dataDir, "sessions", scope)
}

// InitSchema creates the tables of SQL back-ends. Other back-ends need nothing.
func InitSchema(ctx context.Context, config Config) error {
	switch config.Type {
	case PostgreSQLStore:
		s, err := store.OpenPostgres(config.ConnectionString, store.GlobalScope)
		if err != nil {
			return err
		}
		defer s.Close()
		return s.InitSchema(ctx)
	case SQLiteStore:
		s, err := store.OpenSQLite(ctx, filepath.Join(config.DataDir, "tdwizard.db"), store.GlobalScope)
		if err != nil {
			return err
		}
		return s.Close()
	case MemoryStore, FileStore:
		return nil
	default:
		return &UnsupportedStoreTypeError{Type: string(config.Type)}
	}
}

// Stores pairs the session-scoped store with the long-lived global one.
type Stores struct {
	Session store.KeyValue
	Global  store.KeyValue
}

// Open returns the stores a wizard process works with. SQL back-ends share
// one connection between both scopes.
func Open(ctx context.Context, config Config, sessionID string) (*Stores, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("session id is required")
	}
	global, err := NewKeyValue(ctx, config, store.GlobalScope)
	if err != nil {
		return nil, err
	}
	if sql, ok := global.(*store.SQLStore); ok {
		return &Stores{Session: sql.WithScope(sessionID), Global: global}, nil
	}
	session, err := NewKeyValue(ctx, config, sessionID)
	if err != nil {
		global.Close()
		return nil, err
	}
	return &Stores{Session: session, Global: global}, nil
}

// Close releases both stores.
func (s *Stores) Close() error {
	return errors.Join(s.Session.Close(), s.Global.Close())
}
