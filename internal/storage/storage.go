// Package storage persists the session records (cart, auth profile, token)
// as independent JSON blobs in a data directory. Each record is written
// whole via a read-modify-write of a single serialized file, matching the
// key-value blob model the rest of the session layer assumes.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Record names used by the session services. Each maps to one file in the
// data directory.
const (
	RecordCart    = "cart"
	RecordProfile = "auth_profile"
	RecordToken   = "auth_token"
)

// ErrNoRecord is returned by Load when a record has never been written.
// Callers hydrate an empty session in that case.
var ErrNoRecord = errors.New("record not found")

// Store reads and writes named JSON records under a single directory.
type Store struct {
	dir string
}

// New creates a Store rooted at dir, creating the directory if needed.
func New(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("data directory is required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Save marshals v and writes it as the named record. The write goes to a
// temp file first and is renamed into place, so readers never observe a
// torn record.
func (s *Store) Save(name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshaling %s record: %w", name, err)
	}

	path := s.path(name)
	tmp, err := os.CreateTemp(s.dir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp record: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing %s record: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing %s record: %w", name, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing %s record: %w", name, err)
	}
	return nil
}

// Load reads the named record into v. Returns ErrNoRecord if it has never
// been written. A corrupt record reads as ErrNoRecord too: the session
// layer treats it as absent rather than failing startup.
func (s *Store) Load(name string, v any) error {
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNoRecord
		}
		return fmt.Errorf("reading %s record: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return ErrNoRecord
	}
	return nil
}

// Delete removes the named record. Deleting an absent record is not an
// error.
func (s *Store) Delete(name string) error {
	err := os.Remove(s.path(name))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("deleting %s record: %w", name, err)
	}
	return nil
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name+".json")
}
