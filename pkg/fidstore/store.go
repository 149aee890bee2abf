// Package fidstore persists the framework id assigned by the master on first
// registration. A framework that restarts and wants to keep its running
// executors and tasks must resubscribe under the same id, so the id has to
// survive the process. The scheduler driver reads the store on start and
// writes it on registration; Clear is for deliberate teardown.
package fidstore

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// Store holds at most one framework id. Get returns an empty id when none
// has been stored yet.
type Store interface {
	Get() (string, error)
	Set(id string) error
	Clear() error
}

// InMemoryStore keeps the id for the life of the process only. Suitable for
// frameworks that do not use failover, and for tests.
type InMemoryStore struct {
	mu sync.Mutex
	id string
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Get() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id, nil
}

func (s *InMemoryStore) Set(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.id = id
	return nil
}

func (s *InMemoryStore) Clear() error {
	return s.Set("")
}

// FileStore persists the id in a single file, written atomically via a
// temporary file and rename.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Get() (string, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", errors.Wrapf(err, "reading framework id from %s", s.path)
	}
	return strings.TrimSpace(string(data)), nil
}

func (s *FileStore) Set(id string) error {
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".framework-id-*")
	if err != nil {
		return errors.Wrap(err, "creating temporary framework id file")
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.WriteString(id + "\n"); err != nil {
		tmp.Close()
		return errors.Wrap(err, "writing framework id")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "closing framework id file")
	}
	return errors.Wrapf(os.Rename(tmp.Name(), s.path), "persisting framework id to %s", s.path)
}

func (s *FileStore) Clear() error {
	err := os.Remove(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	return errors.Wrapf(err, "removing framework id file %s", s.path)
}
