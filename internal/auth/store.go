package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/oauth2"
)

// ErrNoToken is returned when no token has been saved yet.
var ErrNoToken = errors.New("auth: not authenticated, run the auth command first")

// TokenStore keeps the OAuth token in a JSON file readable only by the owner.
type TokenStore struct {
	path string
}

// NewTokenStore returns a store backed by path.
func NewTokenStore(path string) *TokenStore {
	return &TokenStore{path: path}
}

// Path returns the token file location.
func (s *TokenStore) Path() string {
	return s.path
}

// Load reads the saved token.
func (s *TokenStore) Load() (*oauth2.Token, error) {
	const op = "TokenStore.Load"

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNoToken
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("%s: failed to decode %s: %w", op, s.path, err)
	}
	if tok.AccessToken == "" && tok.RefreshToken == "" {
		return nil, ErrNoToken
	}
	return &tok, nil
}

// Save writes the token, creating the directory if needed.
func (s *TokenStore) Save(tok *oauth2.Token) error {
	const op = "TokenStore.Save"

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("%s: failed to create token directory: %w", op, err)
	}

	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	// Replace the file atomically.
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Delete removes the token file. A missing file is not an error.
func (s *TokenStore) Delete() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("TokenStore.Delete: %w", err)
	}
	return nil
}
