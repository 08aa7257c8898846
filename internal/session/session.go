// Package session tracks which wizard session the current operator owns.
// One session holds exactly one wizard state.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/google/uuid"
)

const pointerFile = "current-session"

// ErrInvalidID is returned for a pinned session id that cannot name a
// storage scope.
var ErrInvalidID = errors.New("invalid session id")

var validID = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,127}$`)

func checkID(id string) error {
	if !validID.MatchString(id) {
		return fmt.Errorf("%w %q: use letters, digits, '.', '_' or '-'", ErrInvalidID, id)
	}
	return nil
}

// Session identifies one wizard run.
type Session struct {
	ID        string    `json:"id"`
	StartedAt time.Time `json:"startedAt"`
	// Pinned sessions come from TD_SESSION_ID and are never rotated on disk.
	Pinned bool `json:"-"`
}

// Manager resolves the current session from the environment or the pointer
// file under the data directory.
type Manager struct {
	dataDir string
	pinned  string
	now     func() time.Time
}

// NewManager creates a manager. A non-empty pinnedID always wins.
func NewManager(dataDir, pinnedID string) *Manager {
	return &Manager{dataDir: dataDir, pinned: pinnedID, now: time.Now}
}

// Current returns the active session, starting one when none exists.
func (m *Manager) Current() (Session, error) {
	if m.pinned != "" {
		return m.pinnedSession()
	}
	s, err := m.read()
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return Session{}, err
	}
	return m.Start()
}

// Start begins a fresh session and makes it current.
func (m *Manager) Start() (Session, error) {
	if m.pinned != "" {
		return m.pinnedSession()
	}
	s := Session{ID: uuid.New().String(), StartedAt: m.now().UTC()}
	if err := m.write(s); err != nil {
		return Session{}, err
	}
	return s, nil
}

func (m *Manager) pinnedSession() (Session, error) {
	if err := checkID(m.pinned); err != nil {
		return Session{}, err
	}
	return Session{ID: m.pinned, Pinned: true}, nil
}

// End forgets the current session. The next Current call starts a new one.
func (m *Manager) End() error {
	if m.pinned != "" {
		return nil
	}
	err := os.Remove(filepath.Join(m.dataDir, pointerFile))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to end session: %w", err)
	}
	return nil
}

func (m *Manager) read() (Session, error) {
	data, err := os.ReadFile(filepath.Join(m.dataDir, pointerFile))
	if err != nil {
		return Session{}, err
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil || s.ID == "" {
		// an unreadable pointer is treated as no session
		return Session{}, os.ErrNotExist
	}
	if _, err := uuid.Parse(s.ID); err != nil {
		return Session{}, os.ErrNotExist
	}
	return s, nil
}

func (m *Manager) write(s Session) error {
	if err := os.MkdirAll(m.dataDir, 0o700); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := os.WriteFile(filepath.Join(m.dataDir, pointerFile), data, 0o600); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}
	return nil
}
