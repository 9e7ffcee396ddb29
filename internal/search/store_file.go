package search

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// FileStore persists recent-search lists as one JSON object mapping owner
// keys to entry lists. Writes go through a temp file and rename so readers
// never see a torn file.
type FileStore struct {
	mu   sync.Mutex
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Load(owner string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.read()
	if err != nil {
		return nil, err
	}
	return m[owner], nil
}

func (s *FileStore) Save(owner string, entries []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.read()
	if err != nil {
		m = map[string][]string{}
	}

	cp := make([]string, len(entries))
	copy(cp, entries)
	m[owner] = cp
	return s.write(m)
}

func (s *FileStore) Clear(owner string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.read()
	if err != nil {
		return err
	}
	if _, ok := m[owner]; !ok {
		return nil
	}
	delete(m, owner)
	return s.write(m)
}

func (s *FileStore) read() (map[string][]string, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string][]string{}, nil
	}
	if err != nil {
		return nil, err
	}

	m := map[string][]string{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *FileStore) write(m map[string][]string) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
