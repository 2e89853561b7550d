package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Role is the dashboard role granted by a permission record.
type Role string

const (
	RoleAdmin Role = "Admin"
	RoleUser  Role = "User"
)

// Valid reports whether the role is one the dashboard recognises.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// Store handles persistence of the signed-in identity on disk.
type Store struct {
	path string
	mu   sync.RWMutex
}

// Session captures the identity cached locally across restarts.
type Session struct {
	Email   string    `json:"email"`
	Name    string    `json:"name"`
	Role    Role      `json:"role"`
	Method  string    `json:"login_method,omitempty"`
	SavedAt time.Time `json:"saved_at"`
}

// NewStore creates a session store writing to the provided path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the file path used for persistence.
func (s *Store) Path() string {
	return s.path
}

// Load reads the session from disk. A missing file yields (nil, nil).
func (s *Store) Load() (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	file, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open session file: %w", err)
	}
	defer file.Close()

	var sess Session
	if err := json.NewDecoder(file).Decode(&sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}

	if sess.SavedAt.IsZero() {
		if info, statErr := file.Stat(); statErr == nil {
			sess.SavedAt = info.ModTime()
		} else {
			sess.SavedAt = time.Now()
		}
	}

	return &sess, nil
}

// Save persists the session to disk with restrictive permissions.
func (s *Store) Save(sess *Session) error {
	if sess == nil {
		return errors.New("session is nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("ensure session directory: %w", err)
	}

	sess.SavedAt = time.Now()

	tempFile := s.path + ".tmp"
	file, err := os.OpenFile(tempFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("create temp session: %w", err)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(sess); err != nil {
		file.Close()
		return fmt.Errorf("write session: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close session: %w", err)
	}

	if err := os.Rename(tempFile, s.path); err != nil {
		return fmt.Errorf("atomically replace session file: %w", err)
	}

	return nil
}

// Clear removes the session file from disk.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}

// Matches reports whether the session belongs to the given email,
// compared case-insensitively.
func (s *Session) Matches(email string) bool {
	if s == nil {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(s.Email), strings.TrimSpace(email))
}
