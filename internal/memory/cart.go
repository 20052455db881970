package memory

import (
	"context"
	"sync"

	"github.com/amazonas-market/checkout/internal/domain/cart"
)

var _ cart.Repository = (*CartStore)(nil)

// CartStore keeps per-user carts in memory. Unknown users get a fresh
// empty cart on first read.
type CartStore struct {
	mu     sync.RWMutex
	byUser map[string]*cart.Cart
}

// NewCartStore returns an empty CartStore.
func NewCartStore() *CartStore {
	return &CartStore{byUser: make(map[string]*cart.Cart)}
}

// GetCart returns a copy of the user's cart, creating an empty one for
// users seen for the first time.
func (s *CartStore) GetCart(_ context.Context, userID string) (*cart.Cart, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.byUser[userID]
	if !ok {
		return cart.New(userID), nil
	}
	return c.Clone(), nil
}

// SaveCart stores a copy of the cart.
func (s *CartStore) SaveCart(_ context.Context, c *cart.Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byUser[c.UserID] = c.Clone()
	return nil
}

// ResetCart replaces the user's cart with an empty one.
func (s *CartStore) ResetCart(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byUser[userID] = cart.New(userID)
	return nil
}
