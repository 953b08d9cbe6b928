// Package session owns the authentication token lifecycle: a file-persisted
// credential with a sliding expiry, and the gate that periodically proves it
// against the profile endpoint and gates the rest of the console.
package session

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/mitchellh/go-homedir"
)

// credential is the persisted token plus its client-side expiry, the moral
// equivalent of the browser's 1-day token cookie.
type credential struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// CredentialStore persists the token as a mode-0600 JSON file.
type CredentialStore struct {
	path string
	ttl  time.Duration
	now  func() time.Time
}

// NewCredentialStore builds a store at path ("~" is expanded). Each Save
// stamps the credential with now+ttl, so saving again slides the window.
func NewCredentialStore(path string, ttl time.Duration) (*CredentialStore, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, err
	}
	return &CredentialStore{path: expanded, ttl: ttl, now: time.Now}, nil
}

// Load returns the stored token, or "" when the file is absent, unreadable
// or the credential has expired. An expired credential is treated exactly
// like a vanished cookie.
func (s *CredentialStore) Load() string {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return ""
	}
	var c credential
	if err := json.Unmarshal(data, &c); err != nil {
		return ""
	}
	if !c.ExpiresAt.After(s.now()) {
		return ""
	}
	return c.Token
}

// Save persists the token with a fresh expiry.
func (s *CredentialStore) Save(token string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	data, err := json.Marshal(credential{Token: token, ExpiresAt: s.now().Add(s.ttl)})
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o600)
}

// Clear removes the stored credential. A missing file is not an error.
func (s *CredentialStore) Clear() error {
	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
