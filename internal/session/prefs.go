package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Prefs holds small pieces of client state that survive restarts but are
// not part of the identity itself: the maintenance-mode start timestamp and
// the cached table column widths.
type Prefs struct {
	MaintenanceStartedAt *time.Time     `json:"maintenance_started_at,omitempty"`
	ColumnWidths         map[string]int `json:"column_widths,omitempty"`
}

// PrefsStore persists Prefs to a JSON file next to the session file.
type PrefsStore struct {
	path string
	mu   sync.Mutex
}

// NewPrefsStore creates a prefs store writing to the provided path.
func NewPrefsStore(path string) *PrefsStore {
	return &PrefsStore{path: path}
}

// Load reads prefs from disk. A missing file yields empty prefs.
func (p *PrefsStore) Load() (*Prefs, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.load()
}

func (p *PrefsStore) load() (*Prefs, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Prefs{}, nil
		}
		return nil, fmt.Errorf("read prefs file: %w", err)
	}

	var prefs Prefs
	if err := json.Unmarshal(data, &prefs); err != nil {
		return nil, fmt.Errorf("decode prefs: %w", err)
	}
	return &prefs, nil
}

func (p *PrefsStore) save(prefs *Prefs) error {
	if err := os.MkdirAll(filepath.Dir(p.path), 0o700); err != nil {
		return fmt.Errorf("ensure prefs directory: %w", err)
	}

	data, err := json.MarshalIndent(prefs, "", "  ")
	if err != nil {
		return fmt.Errorf("encode prefs: %w", err)
	}

	tempFile := p.path + ".tmp"
	if err := os.WriteFile(tempFile, data, 0o600); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	if err := os.Rename(tempFile, p.path); err != nil {
		return fmt.Errorf("atomically replace prefs file: %w", err)
	}
	return nil
}

// Update applies fn to the stored prefs and writes the result back.
func (p *PrefsStore) Update(fn func(*Prefs)) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	prefs, err := p.load()
	if err != nil {
		return err
	}
	fn(prefs)
	return p.save(prefs)
}

// SetMaintenanceStart records the moment maintenance mode was switched on.
func (p *PrefsStore) SetMaintenanceStart(t time.Time) error {
	return p.Update(func(prefs *Prefs) {
		prefs.MaintenanceStartedAt = &t
	})
}

// ClearMaintenanceStart removes the recorded maintenance start timestamp.
func (p *PrefsStore) ClearMaintenanceStart() error {
	return p.Update(func(prefs *Prefs) {
		prefs.MaintenanceStartedAt = nil
	})
}

// ClearColumnWidths drops the cached table column widths.
func (p *PrefsStore) ClearColumnWidths() error {
	return p.Update(func(prefs *Prefs) {
		prefs.ColumnWidths = nil
	})
}
