// Package memory is the in-memory cart store used by tests and by local
// development when no Redis address is configured.
package memory

import (
	"context"
	"sync"
)

type Store struct {
	mu    sync.Mutex
	carts map[string]map[string]int
}

func NewStore() *Store {
	return &Store{carts: make(map[string]map[string]int)}
}

func (s *Store) Items(_ context.Context, sessionID string) (map[string]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make(map[string]int, len(s.carts[sessionID]))
	for productID, qty := range s.carts[sessionID] {
		items[productID] = qty
	}
	return items, nil
}

func (s *Store) SetItem(_ context.Context, sessionID, productID string, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart, ok := s.carts[sessionID]
	if !ok {
		cart = make(map[string]int)
		s.carts[sessionID] = cart
	}
	cart[productID] = quantity
	return nil
}

func (s *Store) RemoveItem(_ context.Context, sessionID, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.carts[sessionID], productID)
	return nil
}

func (s *Store) Clear(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.carts, sessionID)
	return nil
}
