// Package snapshot persists the wizard state under a versioned key and
// upgrades snapshots written by older builds on load.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"testdrive-wizard/internal/store"
	"testdrive-wizard/internal/wizard"
)

// Key is the storage key of the wizard snapshot.
const Key = "tdWizardState:v1"

const defaultTimeout = 5 * time.Second

// Store saves and restores wizard.State through a key-value back-end.
type Store struct {
	kv      store.KeyValue
	timeout time.Duration
	logger  *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithTimeout bounds each back-end call.
func WithTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithLogger sets the logger used for discarded snapshots.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// New binds a snapshot store to kv.
func New(kv store.KeyValue, opts ...Option) *Store {
	s := &Store{kv: kv, timeout: defaultTimeout, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.timeout)
}

// Save writes the full state.
func (s *Store) Save(state wizard.State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	ctx, cancel := s.ctx()
	defer cancel()
	if err := s.kv.Set(ctx, Key, data); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

// Load returns the stored state, migrated to the current shape. A missing
// or unreadable snapshot yields the default state and false; unreadable
// entries are erased.
func (s *Store) Load() (wizard.State, bool, error) {
	ctx, cancel := s.ctx()
	defer cancel()

	data, err := s.kv.Get(ctx, Key)
	if errors.Is(err, store.ErrNotFound) {
		return wizard.DefaultState(), false, nil
	}
	if err != nil {
		return wizard.DefaultState(), false, fmt.Errorf("failed to read snapshot: %w", err)
	}

	state, err := Decode(data)
	if err != nil {
		s.logger.Warn("discarding unreadable wizard snapshot", "error", err)
		if delErr := s.kv.Delete(ctx, Key); delErr != nil {
			s.logger.Warn("failed to erase unreadable snapshot", "error", delErr)
		}
		return wizard.DefaultState(), false, nil
	}
	return state, true, nil
}

// Clear erases the snapshot.
func (s *Store) Clear() error {
	ctx, cancel := s.ctx()
	defer cancel()
	if err := s.kv.Delete(ctx, Key); err != nil {
		return fmt.Errorf("failed to erase snapshot: %w", err)
	}
	return nil
}

// Decode parses a raw snapshot, runs the migration chain and fills defaults.
func Decode(data []byte) (wizard.State, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return wizard.State{}, fmt.Errorf("parse snapshot: %w", err)
	}
	if raw == nil {
		return wizard.State{}, fmt.Errorf("parse snapshot: not an object")
	}
	migrated, err := json.Marshal(Migrate(raw))
	if err != nil {
		return wizard.State{}, fmt.Errorf("encode migrated snapshot: %w", err)
	}
	state := wizard.DefaultState()
	if err := json.Unmarshal(migrated, &state); err != nil {
		return wizard.State{}, fmt.Errorf("decode migrated snapshot: %w", err)
	}
	return state.Normalize(), nil
}
