package appwrite

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

// SessionStore keeps the secret of the active session between calls.
type SessionStore interface {
	Load() (string, error)
	Save(secret string) error
	Clear() error
}

// MemoryStore holds the session secret for the lifetime of the process.
type MemoryStore struct {
	mu     sync.RWMutex
	secret string
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.secret, nil
}

func (s *MemoryStore) Save(secret string) error {
	s.mu.Lock()
	s.secret = secret
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Clear() error {
	return s.Save("")
}

// FileStore persists the session secret as a JSON file readable only by the owner.
type FileStore struct {
	mu   sync.Mutex
	path string
}

type storedSession struct {
	Secret  string `json:"secret"`
	SavedAt string `json:"saved-at"`
}

// NewFileStore creates a store backed by path. The file is created on first Save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: filepath.Clean(strings.TrimSpace(path))}
}

// Path returns the backing file path.
func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Load() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("session filestore: read failed: %w", err)
	}
	var stored storedSession
	if err = json.Unmarshal(raw, &stored); err != nil {
		return "", fmt.Errorf("session filestore: decode failed: %w", err)
	}
	return stored.Secret, nil
}

func (s *FileStore) Save(secret string) error {
	if secret == "" {
		return s.Clear()
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("session filestore: create dir failed: %w", err)
	}
	raw, err := json.Marshal(storedSession{Secret: secret, SavedAt: time.Now().Format(time.RFC3339)})
	if err != nil {
		return fmt.Errorf("session filestore: encode failed: %w", err)
	}
	if err = os.WriteFile(s.path, raw, 0o600); err != nil {
		return fmt.Errorf("session filestore: write failed: %w", err)
	}
	return nil
}

func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("session filestore: remove failed: %w", err)
	}
	return nil
}
