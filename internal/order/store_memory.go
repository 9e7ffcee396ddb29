package order

import (
	"context"
	"sort"
	"sync"
)

type MemStore struct {
	mu     sync.RWMutex
	carts  map[string]Cart
	orders map[string]Order
}

func NewMemStore() *MemStore {
	return &MemStore{
		carts:  map[string]Cart{},
		orders: map[string]Order{},
	}
}

func (s *MemStore) Ping(ctx context.Context) error { return nil }

func (s *MemStore) GetCart(ctx context.Context, userID string) (Cart, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.carts[userID]
	if !ok {
		return Cart{UserID: userID, Items: []Item{}}, nil
	}
	return c, nil
}

func (s *MemStore) PutCart(ctx context.Context, c Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.carts[c.UserID] = c
	return nil
}

func (s *MemStore) ClearCart(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.carts, userID)
	return nil
}

func (s *MemStore) CreateOrder(ctx context.Context, o Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.orders[o.ID] = o
	return nil
}

func (s *MemStore) GetOrder(ctx context.Context, id string) (Order, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[id]
	return o, ok, nil
}

func (s *MemStore) ListOrders(ctx context.Context, q ListQuery) ([]Order, int, error) {
	q = q.normalized()

	s.mu.RLock()
	all := make([]Order, 0, len(s.orders))
	for _, o := range s.orders {
		if q.UserID != "" && o.UserID != q.UserID {
			continue
		}
		if q.Status != "" && o.Status != q.Status {
			continue
		}
		all = append(all, o)
	}
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		switch q.Sort {
		case SortOldest:
			return all[i].CreatedAt.Before(all[j].CreatedAt)
		case SortTotalDesc:
			return all[i].TotalCents > all[j].TotalCents
		case SortTotalAsc:
			return all[i].TotalCents < all[j].TotalCents
		default:
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
	})

	total := len(all)
	start := q.offset()
	if start >= total {
		return []Order{}, total, nil
	}
	end := start + q.PerPage
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}

func (s *MemStore) UpdateOrderStatus(ctx context.Context, id, status string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return false, nil
	}
	o.Status = status
	s.orders[id] = o
	return true, nil
}
