// Package session is the client side of the auth service: it keeps the
// token pair between runs, attaches it to requests, refreshes it once when
// the server rejects it, and caches the decoded identity for the process.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/iliyamo/project-hub/internal/model"
)

// ErrNoTokens is returned by Load when nothing has been saved.
var ErrNoTokens = errors.New("session: no stored tokens")

// TokenStore persists the current token pair.  Writes are last-write-wins;
// nothing coordinates separate processes sharing a store.
type TokenStore interface {
	Load() (model.TokenPair, error)
	Save(pair model.TokenPair) error
	Clear() error
}

// MemoryStore keeps the pair in memory.
type MemoryStore struct {
	mu   sync.RWMutex
	pair *model.TokenPair
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (s *MemoryStore) Load() (model.TokenPair, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.pair == nil {
		return model.TokenPair{}, ErrNoTokens
	}
	return *s.pair, nil
}

func (s *MemoryStore) Save(pair model.TokenPair) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pair = &pair
	return nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pair = nil
	return nil
}

// FileStore keeps the pair in a JSON file readable only by the owner.
type FileStore struct {
	Path string
}

func NewFileStore(path string) *FileStore { return &FileStore{Path: path} }

func (s *FileStore) Load() (model.TokenPair, error) {
	b, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return model.TokenPair{}, ErrNoTokens
		}
		return model.TokenPair{}, fmt.Errorf("read token file: %w", err)
	}
	var pair model.TokenPair
	if err := json.Unmarshal(b, &pair); err != nil {
		return model.TokenPair{}, fmt.Errorf("decode token file: %w", err)
	}
	if pair.AccessToken == "" && pair.RefreshToken == "" {
		return model.TokenPair{}, ErrNoTokens
	}
	return pair, nil
}

// Save writes to a temporary file and renames it over Path so readers
// never see a partial pair.
func (s *FileStore) Save(pair model.TokenPair) error {
	b, err := json.Marshal(pair)
	if err != nil {
		return err
	}
	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create token dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".tokens-*")
	if err != nil {
		return fmt.Errorf("create temp token file: %w", err)
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("write token file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.Path)
}

func (s *FileStore) Clear() error {
	if err := os.Remove(s.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
