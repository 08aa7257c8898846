package datastore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"testdrive-wizard/internal/store"
)

func TestParseType(t *testing.T) {
	cases := map[string]Type{
		"memory":   MemoryStore,
		"mock":     MemoryStore,
		"":         FileStore,
		"file":     FileStore,
		"sqlite3":  SQLiteStore,
		"postgres": PostgreSQLStore,
	}
	for in, want := range cases {
		got, err := ParseType(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseType("redis")
	var unsupported *UnsupportedStoreTypeError
	require.True(t, errors.As(err, &unsupported))
	assert.Equal(t, "unsupported store type: redis", err.Error())
}

func TestNewKeyValueFileScopes(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	cfg := Config{Type: FileStore, DataDir: dir}

	session, err := NewKeyValue(ctx, cfg, "abc")
	require.NoError(t, err)
	require.NoError(t, session.Set(ctx, "tdWizardState:v1", []byte("{}")))

	global, err := NewKeyValue(ctx, cfg, store.GlobalScope)
	require.NoError(t, err)
	require.NoError(t, global.Set(ctx, "td-theme", []byte(`"sap"`)))

	_, err = os.Stat(filepath.Join(dir, "sessions", "abc"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "global"))
	assert.NoError(t, err)
}

func TestNewKeyValueFileRejectsEscapingScope(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{Type: FileStore, DataDir: filepath.Join(dir, "data")}
	for _, scope := range []string{"../../x", "a/b", ".."} {
		_, err := NewKeyValue(context.Background(), cfg, scope)
		assert.Error(t, err, scope)
	}
	_, err := os.Stat(filepath.Join(dir, "x"))
	assert.True(t, os.IsNotExist(err))
}

func TestNewKeyValueSQLite(t *testing.T) {
	ctx := context.Background()
	cfg := Config{Type: SQLiteStore, DataDir: t.TempDir()}
	require.NoError(t, InitSchema(ctx, cfg))

	kv, err := NewKeyValue(ctx, cfg, "abc")
	require.NoError(t, err)
	defer kv.Close()
	require.NoError(t, kv.Set(ctx, "k", []byte("v")))
	got, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", string(got))
}

func TestNewKeyValueRejectsUnknownType(t *testing.T) {
	_, err := NewKeyValue(context.Background(), Config{Type: "bolt"}, "abc")
	var unsupported *UnsupportedStoreTypeError
	assert.True(t, errors.As(err, &unsupported))

	_, err = NewKeyValue(context.Background(), Config{Type: MemoryStore}, "")
	assert.Error(t, err)
}

func TestOpenSharesSQLiteConnection(t *testing.T) {
	ctx := context.Background()
	cfg := Config{Type: SQLiteStore, DataDir: t.TempDir()}

	stores, err := Open(ctx, cfg, "abc")
	require.NoError(t, err)
	defer stores.Close()

	require.NoError(t, stores.Session.Set(ctx, "k", []byte("session")))
	require.NoError(t, stores.Global.Set(ctx, "k", []byte("global")))

	got, err := stores.Session.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "session", string(got))
	got, err = stores.Global.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "global", string(got))
}

func TestOpenFileStores(t *testing.T) {
	ctx := context.Background()
	stores, err := Open(ctx, Config{Type: FileStore, DataDir: t.TempDir()}, "abc")
	require.NoError(t, err)
	require.NoError(t, stores.Session.Set(ctx, "k", []byte("v")))
	_, err = stores.Global.Get(ctx, "k")
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.NoError(t, stores.Close())

	_, err = Open(ctx, Config{Type: MemoryStore}, "")
	assert.Error(t, err)
}
