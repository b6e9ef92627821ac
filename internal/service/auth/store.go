package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNoToken is returned when nothing has been stored yet.
var ErrNoToken = errors.New("no stored token")

// FileTokenStore keeps the access token in a single file readable only by
// the current user.
type FileTokenStore struct {
	path string
}

// NewFileTokenStore returns a store backed by path.
func NewFileTokenStore(path string) *FileTokenStore {
	return &FileTokenStore{path: path}
}

// Save writes the token, creating parent directories as needed.
func (s *FileTokenStore) Save(tok Token) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create token dir: %w", err)
	}
	if err := os.WriteFile(s.path, []byte(tok.Raw+"\n"), 0o600); err != nil {
		return fmt.Errorf("write token: %w", err)
	}
	return nil
}

// Load reads the stored token.
func (s *FileTokenStore) Load() (Token, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return Token{}, ErrNoToken
	}
	if err != nil {
		return Token{}, fmt.Errorf("read token: %w", err)
	}

	raw := strings.TrimSpace(string(data))
	if raw == "" {
		return Token{}, ErrNoToken
	}
	return NewToken(raw), nil
}

// Clear removes the stored token. Clearing an empty store is not an error.
func (s *FileTokenStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove token: %w", err)
	}
	return nil
}
