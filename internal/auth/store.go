// Package auth owns the OAuth credential lifecycle: loading the client
// descriptor, persisting the token descriptor between scheduled runs, and
// refreshing expired access tokens exactly once per run.
package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"daylist/internal/shared"

	"golang.org/x/oauth2"
)

// TokenStore persists OAuth token material between scheduled runs.
type TokenStore interface {
	Load() (*oauth2.Token, error)
	Save(token *oauth2.Token) error
	Delete() error
}

// FileStore keeps the token descriptor as a JSON file on disk.
//
// Saves go through a temp file + rename so a crash mid-write never leaves a
// truncated descriptor for the next run.
type FileStore struct {
	path string
}

// NewFileStore creates a FileStore at the given path.
func NewFileStore(path string) *FileStore {
	if path == "" {
		path = "token.json"
	}
	return &FileStore{path: path}
}

// Path returns the token descriptor location.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the persisted token. Returns shared.ErrNotAuthenticated when no
// descriptor exists yet.
func (s *FileStore) Load() (*oauth2.Token, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: no token at %s", shared.ErrNotAuthenticated, s.path)
		}
		return nil, fmt.Errorf("failed to read token file %s: %w", s.path, err)
	}

	token := &oauth2.Token{}
	if err := json.Unmarshal(data, token); err != nil {
		return nil, fmt.Errorf("failed to decode token file %s: %w", s.path, err)
	}

	if token.AccessToken == "" && token.RefreshToken == "" {
		return nil, fmt.Errorf("%w: token file %s has no token material", shared.ErrInvalidCredentials, s.path)
	}

	return token, nil
}

// Save atomically overwrites the token descriptor.
func (s *FileStore) Save(token *oauth2.Token) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".daylist-token-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp token file: %w", err)
	}

	enc := json.NewEncoder(tmp)
	if err := enc.Encode(token); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to encode token: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to sync token file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close token file: %w", err)
	}

	if err := os.Chmod(tmp.Name(), 0600); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to set token file mode: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace token file: %w", err)
	}

	return nil
}

// Delete removes the token descriptor. Missing files are not an error.
func (s *FileStore) Delete() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove token file: %w", err)
	}
	return nil
}
