package search

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Fetcher retrieves the full product catalog.
type Fetcher interface {
	FetchProducts(ctx context.Context) ([]Product, error)
}

// Snapshot holds the session catalog. It is populated at most once and is
// never partially updated: a load either stores the whole payload or leaves
// the snapshot empty. Callers treat the returned slice as immutable.
type Snapshot struct {
	mu       sync.RWMutex
	products []Product
	loaded   bool
}

func NewSnapshot() *Snapshot {
	return &Snapshot{}
}

// Load fetches the catalog through f. A fetch or decode failure degrades to
// an empty snapshot; the anomaly is logged, never surfaced to the caller.
// Only the first Load has any effect.
func (s *Snapshot) Load(ctx context.Context, f Fetcher, log *zap.Logger) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loaded {
		return
	}
	s.loaded = true

	products, err := f.FetchProducts(ctx)
	if err != nil {
		if log != nil {
			log.Warn("catalog snapshot load failed, searching empty catalog", zap.Error(err))
		}
		return
	}
	s.products = products
}

// Products returns the session catalog in catalog order. The slice must not
// be modified.
func (s *Snapshot) Products() []Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.products
}

func (s *Snapshot) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.products)
}

// Loaded reports whether a load attempt happened, successful or not.
func (s *Snapshot) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}
