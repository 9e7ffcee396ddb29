package catalog

import (
	"context"
	"sort"
	"sync"
)

type MemStore struct {
	mu        sync.RWMutex
	products  map[string]Product
	questions map[string]QuizQuestion
	skinTypes map[string]SkinType
}

func NewMemStore() *MemStore {
	return &MemStore{
		products:  map[string]Product{},
		questions: map[string]QuizQuestion{},
		skinTypes: map[string]SkinType{},
	}
}

// NewSeededMemStore returns a MemStore with a small demo catalog, used by
// the service when no database is configured.
func NewSeededMemStore() *MemStore {
	s := NewMemStore()

	lancome := Brand{ID: "b1", Name: "Lancôme"}
	ordinary := Brand{ID: "b2", Name: "The Ordinary"}
	hada := Brand{ID: "b3", Name: "Hada Labo"}

	seedProducts := []Product{
		{ID: "p1", Name: "Hydrating Toner", Brand: lancome, PriceCents: 2990, Quantity: 24},
		{ID: "p2", Name: "Night Repair Lotion", Brand: lancome, PriceCents: 3490, Quantity: 12},
		{ID: "p3", Name: "Vitamin C Serum", Brand: ordinary, PriceCents: 1290, Quantity: 80},
		{ID: "p4", Name: "Gokujyun Cleansing Oil", Brand: hada, PriceCents: 1590, Quantity: 36},
	}
	for _, p := range seedProducts {
		s.products[p.ID] = p
	}

	seedSkinTypes := []SkinType{
		{ID: "st1", Name: "Dry"},
		{ID: "st2", Name: "Oily"},
		{ID: "st3", Name: "Combination"},
	}
	for _, st := range seedSkinTypes {
		s.skinTypes[st.ID] = st
	}

	s.questions["q1"] = QuizQuestion{
		ID:       "q1",
		Prompt:   "How does your skin feel two hours after washing?",
		Position: 1,
		Options: []QuizOption{
			{Label: "Tight", SkinTypeID: "st1"},
			{Label: "Shiny", SkinTypeID: "st2"},
			{Label: "Shiny T-zone only", SkinTypeID: "st3"},
		},
	}
	return s
}

func (s *MemStore) Ping(ctx context.Context) error { return nil }

func (s *MemStore) ListProducts(ctx context.Context) ([]Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemStore) GetProduct(ctx context.Context, id string) (Product, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	return p, ok, nil
}

func (s *MemStore) CreateProduct(ctx context.Context, p Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[p.ID]; ok {
		return ErrExists
	}
	s.products[p.ID] = p
	return nil
}

func (s *MemStore) UpdateProduct(ctx context.Context, p Product) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[p.ID]; !ok {
		return false, nil
	}
	s.products[p.ID] = p
	return true, nil
}

func (s *MemStore) DeleteProduct(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[id]; !ok {
		return false, nil
	}
	delete(s.products, id)
	return true, nil
}

// ListBrands derives the distinct brand set from the product catalog,
// sorted by name.
func (s *MemStore) ListBrands(ctx context.Context) ([]Brand, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := map[string]Brand{}
	for _, p := range s.products {
		if p.Brand.ID != "" {
			seen[p.Brand.ID] = p.Brand
		}
	}

	out := make([]Brand, 0, len(seen))
	for _, b := range seen {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemStore) GetBrand(ctx context.Context, id string) (Brand, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.products {
		if p.Brand.ID == id {
			return p.Brand, true, nil
		}
	}
	return Brand{}, false, nil
}

func (s *MemStore) ListQuestions(ctx context.Context, params ListParams) ([]QuizQuestion, int, error) {
	params = params.normalized()

	s.mu.RLock()
	all := make([]QuizQuestion, 0, len(s.questions))
	for _, q := range s.questions {
		all = append(all, q)
	}
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].Position != all[j].Position {
			return all[i].Position < all[j].Position
		}
		return all[i].ID < all[j].ID
	})

	total := len(all)
	start := params.offset()
	if start >= total {
		return []QuizQuestion{}, total, nil
	}
	end := start + params.PerPage
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}

func (s *MemStore) CreateQuestion(ctx context.Context, q QuizQuestion) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.questions[q.ID]; ok {
		return ErrExists
	}
	s.questions[q.ID] = q
	return nil
}

func (s *MemStore) UpdateQuestion(ctx context.Context, q QuizQuestion) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.questions[q.ID]; !ok {
		return false, nil
	}
	s.questions[q.ID] = q
	return true, nil
}

func (s *MemStore) DeleteQuestion(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.questions[id]; !ok {
		return false, nil
	}
	delete(s.questions, id)
	return true, nil
}

func (s *MemStore) ListSkinTypes(ctx context.Context) ([]SkinType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]SkinType, 0, len(s.skinTypes))
	for _, st := range s.skinTypes {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemStore) CreateSkinType(ctx context.Context, st SkinType) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.skinTypes[st.ID]; ok {
		return ErrExists
	}
	s.skinTypes[st.ID] = st
	return nil
}
