// Package token persists the access/refresh token pair across client
// restarts and exposes helpers for inspecting bearer tokens.
package token

import (
	"encoding/json"
	"os"
	"sync"
)

// Kind selects one of the two persisted credentials.
type Kind string

const (
	// Access is the short-lived bearer credential.
	Access Kind = "access_token"
	// Refresh is the longer-lived credential used to mint new access tokens.
	Refresh Kind = "refresh_token"
)

// Store keeps the token pair in memory and mirrors every change to a JSON
// file, so a restarted client keeps its session. All methods are safe for
// concurrent use.
type Store struct {
	mu     sync.Mutex
	path   string
	tokens map[Kind]string
}

// Open loads the store backed by the file at path. A missing file yields an
// empty store; it is created on the first Set.
func Open(path string) (*Store, error) {
	s := &Store{path: path, tokens: make(map[Kind]string)}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, err
	}
	defer f.Close()

	if err := json.NewDecoder(f).Decode(&s.tokens); err != nil {
		return nil, err
	}
	return s, nil
}

// Get returns the stored token of the given kind, or "" when absent.
func (s *Store) Get(k Kind) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokens[k]
}

// Set stores one token and persists the pair.
func (s *Store) Set(k Kind, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[k] = value
	return s.save()
}

// SetPair stores both tokens atomically and persists them.
func (s *Store) SetPair(access, refresh string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[Access] = access
	s.tokens[Refresh] = refresh
	return s.save()
}

// Clear removes both tokens and persists the empty pair.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = make(map[Kind]string)
	return s.save()
}

// save writes the current pair to disk. Caller must hold mu.
func (s *Store) save() error {
	b, err := json.Marshal(s.tokens)
	if err != nil {
		return err
	}
	// Tokens are credentials, keep the file private.
	return os.WriteFile(s.path, b, 0o600)
}
