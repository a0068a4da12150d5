package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// FileStore persists accounts as a single JSON array on disk.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore creates a store backed by path. The file is created lazily on
// first save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads all accounts. A missing file yields an empty list.
func (s *FileStore) Load() ([]*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

func (s *FileStore) loadLocked() ([]*Account, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("auth store: read %s: %w", s.path, err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	var accounts []*Account
	if errUnmarshal := json.Unmarshal(data, &accounts); errUnmarshal != nil {
		return nil, fmt.Errorf("auth store: parse %s: %w", s.path, errUnmarshal)
	}
	return accounts, nil
}

// Save replaces the record with the same id, appending when absent, and
// rewrites the file atomically via a temp file rename. The record is read
// under the account lock so a concurrent refresh cannot tear the copy.
func (s *FileStore) Save(account *Account) error {
	if account == nil || account.ID == "" {
		return fmt.Errorf("auth store: account id required")
	}
	record := account.Snapshot()
	s.mu.Lock()
	defer s.mu.Unlock()

	accounts, err := s.loadLocked()
	if err != nil {
		return err
	}
	replaced := false
	for i := range accounts {
		if accounts[i].ID == record.ID {
			accounts[i] = record
			replaced = true
			break
		}
	}
	if !replaced {
		accounts = append(accounts, record)
	}

	data, errMarshal := json.MarshalIndent(accounts, "", "  ")
	if errMarshal != nil {
		return fmt.Errorf("auth store: marshal: %w", errMarshal)
	}
	if errDir := os.MkdirAll(filepath.Dir(s.path), 0o755); errDir != nil {
		return fmt.Errorf("auth store: mkdir: %w", errDir)
	}
	tmp := s.path + ".tmp"
	if errWrite := os.WriteFile(tmp, data, 0o600); errWrite != nil {
		return fmt.Errorf("auth store: write: %w", errWrite)
	}
	if errRename := os.Rename(tmp, s.path); errRename != nil {
		return fmt.Errorf("auth store: rename: %w", errRename)
	}
	return nil
}

// Path returns the backing file path.
func (s *FileStore) Path() string { return s.path }
