package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// FileStore persists the session as JSON, readable only by the owner.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve config dir: %v", err)
	}
	return filepath.Join(dir, "gigs", "session.json"), nil
}

// Load returns nil without error when nothing was saved yet.
func (fs *FileStore) Load() (*Session, error) {
	raw, err := os.ReadFile(fs.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %v", err)
	}
	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("failed to parse session: %v", err)
	}
	return &s, nil
}

// Save writes s, or removes the file when s is nil.
func (fs *FileStore) Save(s *Session) error {
	if s == nil {
		if err := os.Remove(fs.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove session: %v", err)
		}
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(fs.path), 0o700); err != nil {
		return fmt.Errorf("failed to create session dir: %v", err)
	}
	raw, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session: %v", err)
	}
	if err := os.WriteFile(fs.path, raw, 0o600); err != nil {
		return fmt.Errorf("failed to write session: %v", err)
	}
	return nil
}

// Listener returns a holder listener that keeps the file in sync.
func (fs *FileStore) Listener(logger *slog.Logger) Listener {
	return func(event Event, s *Session) {
		if event == EventInitialSession {
			return
		}
		if err := fs.Save(s); err != nil {
			logger.Warn("Failed to persist session", "event", event, "error", err)
		}
	}
}
