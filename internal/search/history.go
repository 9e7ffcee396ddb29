package search

import (
	"strings"
	"sync"
)

const (
	// HistoryLimit caps the recent-search list.
	HistoryLimit = 5

	// DefaultOwner is the storage key for a single-user store, matching the
	// browser storage key the web client used.
	DefaultOwner = "recentSearches"
)

// Store persists recent-search lists keyed by owner.
type Store interface {
	Load(owner string) ([]string, error)
	Save(owner string, entries []string) error
	Clear(owner string) error
}

// History is the most-recent-first search list for one owner: capped at
// HistoryLimit, deduplicated by exact text, written through to the store on
// every mutation. Store failures degrade to an empty list; they never
// surface to the caller.
type History struct {
	mu      sync.Mutex
	store   Store
	owner   string
	entries []string
}

// LoadHistory reads the owner's persisted list once. A read failure starts
// the history empty.
func LoadHistory(store Store, owner string) *History {
	h := &History{store: store, owner: owner}
	if store != nil {
		if entries, err := store.Load(owner); err == nil {
			h.entries = capEntries(entries)
		}
	}
	return h
}

// Entries returns a copy, most recent first.
func (h *History) Entries() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.entries))
	copy(out, h.entries)
	return out
}

// Record moves query to the front. A duplicate moves without growing the
// list; a sixth distinct entry evicts the oldest. Blank queries are ignored.
func (h *History) Record(query string) {
	query = strings.TrimSpace(query)
	if query == "" {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries = push(h.entries, query)
	if h.store != nil {
		_ = h.store.Save(h.owner, h.entries)
	}
}

// Clear empties the in-memory list and the persisted entry.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries = nil
	if h.store != nil {
		_ = h.store.Clear(h.owner)
	}
}

func push(entries []string, query string) []string {
	out := make([]string, 0, HistoryLimit)
	out = append(out, query)
	for _, e := range entries {
		if e == query {
			continue
		}
		out = append(out, e)
		if len(out) == HistoryLimit {
			break
		}
	}
	return out
}

func capEntries(entries []string) []string {
	if len(entries) > HistoryLimit {
		return entries[:HistoryLimit]
	}
	return entries
}

// MemStore is an in-memory Store for tests and single-process use.
type MemStore struct {
	mu sync.RWMutex
	m  map[string][]string
}

func NewMemStore() *MemStore {
	return &MemStore{m: make(map[string][]string)}
}

func (s *MemStore) Load(owner string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := s.m[owner]
	out := make([]string, len(entries))
	copy(out, entries)
	return out, nil
}

func (s *MemStore) Save(owner string, entries []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]string, len(entries))
	copy(cp, entries)
	s.m[owner] = cp
	return nil
}

func (s *MemStore) Clear(owner string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, owner)
	return nil
}
