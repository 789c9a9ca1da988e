// Package file implements the credential store over a single JSON array
// file. One process owns the file; the version counter gives mutating
// callers a compare-and-swap boundary so concurrent mutations cannot
// silently overwrite each other.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/openbridgehq/hubconsole/internal/console/domain"
	"github.com/openbridgehq/hubconsole/internal/console/store"
)

type Store struct {
	path string

	mu  sync.Mutex
	gen int64
}

func New(path string) *Store {
	return &Store{path: filepath.Clean(path)}
}

func (s *Store) Load(ctx context.Context) ([]domain.User, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.read()
	if err != nil {
		return nil, 0, err
	}
	return users, s.gen, nil
}

func (s *Store) Replace(ctx context.Context, users []domain.User, version int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if version != s.gen {
		return store.ErrStaleVersion
	}

	if err := s.write(users); err != nil {
		return err
	}
	s.gen++
	return nil
}

func (s *Store) SetupComplete(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.read()
	if err != nil {
		return false, err
	}
	for _, u := range users {
		if u.Admin {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) read() ([]domain.User, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read auth file: %w", err)
	}

	var users []domain.User
	if err := json.Unmarshal(data, &users); err != nil {
		return nil, fmt.Errorf("parse auth file %s: %w", s.path, err)
	}
	return users, nil
}

// write lands the full record set via a temp file and rename so a crash
// mid-write never leaves a truncated auth file behind.
func (s *Store) write(users []domain.User) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0750); err != nil {
		return fmt.Errorf("create auth file directory: %w", err)
	}

	if users == nil {
		users = []domain.User{}
	}
	data, err := json.MarshalIndent(users, "", "  ")
	if err != nil {
		return fmt.Errorf("encode auth file: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("write auth file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace auth file: %w", err)
	}
	return nil
}
