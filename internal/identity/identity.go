// Package identity remembers the display name a user adds items under.
package identity

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// EnvVar overrides the stored identity when set.
const EnvVar = "SHAREDLIST_USER"

const fileName = "identity.json"

// Source values reported by Current.
const (
	SourceEnv  = "env"
	SourceFile = "file"
)

// Identity is the chosen display name.
type Identity struct {
	Name      string    `json:"name"`
	Source    string    `json:"source"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store persists the identity in a directory, normally ~/.sharedlist.
type Store struct {
	dir string
}

// NewStore uses dir for the identity file.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Default returns the store under the user's home directory.
func Default() (*Store, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("home: %w", err)
	}
	return NewStore(filepath.Join(home, ".sharedlist")), nil
}

// Path returns the identity file location.
func (s *Store) Path() string {
	return filepath.Join(s.dir, fileName)
}

// Current resolves the identity: the environment override first, then the
// file. ok is false when neither is set.
func (s *Store) Current() (id Identity, ok bool, err error) {
	if name := strings.TrimSpace(os.Getenv(EnvVar)); name != "" {
		return Identity{Name: name, Source: SourceEnv}, true, nil
	}
	b, err := os.ReadFile(s.Path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Identity{}, false, nil
		}
		return Identity{}, false, fmt.Errorf("read identity: %w", err)
	}
	if err := json.Unmarshal(b, &id); err != nil {
		return Identity{}, false, fmt.Errorf("parse identity: %w", err)
	}
	if strings.TrimSpace(id.Name) == "" {
		return Identity{}, false, nil
	}
	id.Source = SourceFile
	return id, true, nil
}

// Set stores name. Any non-blank name is accepted.
func (s *Store) Set(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("empty name")
	}
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	b, err := json.MarshalIndent(Identity{Name: name, Source: SourceFile, UpdatedAt: time.Now().UTC()}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	if err := os.WriteFile(s.Path(), b, 0o600); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

// Clear forgets the stored name. A missing file is not an error.
func (s *Store) Clear() error {
	if err := os.Remove(s.Path()); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("remove: %w", err)
	}
	return nil
}
