package auth

import (
	"encoding/json"
	"os"
	"path/filepath"

	"golang.org/x/oauth2"
)

// TokenStore saves and loads an OAuth token at a fixed path.
type TokenStore struct {
	Path string
}

// DefaultTokenStore returns the store at the default token location.
func DefaultTokenStore() TokenStore {
	home, _ := os.UserHomeDir()
	return TokenStore{Path: filepath.Join(home, ".config", "inferbiomechanics", "token.json")}
}

// Load reads the saved token.
func (s TokenStore) Load() (*oauth2.Token, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, err
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, err
	}
	return &tok, nil
}

// Save writes the token with owner-only permissions.
func (s TokenStore) Save(tok *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.Path, data, 0600)
}

// Delete removes the saved token file.
func (s TokenStore) Delete() error {
	return os.Remove(s.Path)
}
