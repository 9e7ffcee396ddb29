package auth

import (
	"context"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

type MemStore struct {
	mu      sync.RWMutex
	byEmail map[string]User
	byID    map[string]string
}

func NewMemStore() *MemStore {
	return &MemStore{
		byEmail: make(map[string]User),
		byID:    make(map[string]string),
	}
}

func (s *MemStore) Ping(ctx context.Context) error { return nil }

func (s *MemStore) Create(ctx context.Context, email, password, role, id string) error {
	email = normalizeEmail(email)
	password = normalizePassword(password)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byEmail[email]; ok {
		return ErrEmailExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	s.byEmail[email] = User{ID: id, Email: email, Hash: hash, Role: role}
	s.byID[id] = email
	return nil
}

func (s *MemStore) Verify(ctx context.Context, email, password string) (User, error) {
	email = normalizeEmail(email)

	s.mu.RLock()
	u, ok := s.byEmail[email]
	s.mu.RUnlock()

	if !ok {
		return User{}, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword(u.Hash, []byte(password)); err != nil {
		return User{}, ErrInvalidCredentials
	}

	return u, nil
}

func (s *MemStore) Get(ctx context.Context, id string) (User, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	email, ok := s.byID[id]
	if !ok {
		return User{}, false, nil
	}
	u := s.byEmail[email]
	return u, true, nil
}

func (s *MemStore) UpdateProfile(ctx context.Context, id string, p Profile) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email, ok := s.byID[id]
	if !ok {
		return false, nil
	}
	u := s.byEmail[email]
	u.Name = p.Name
	u.SkinTypeID = p.SkinTypeID
	s.byEmail[email] = u
	return true, nil
}
