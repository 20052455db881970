// Package rediscart stores per-user shopping carts in Redis, one JSON
// document per user.
package rediscart

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"

	"github.com/amazonas-market/checkout/internal/domain/cart"
)

// keyCart is the key pattern for a user's cart document.
const keyCart = "cart:%s"

// Carts are abandoned far more often than they are purchased; the TTL
// bounds how long a stale cart is kept.
const cartTTL = 30 * 24 * time.Hour

var _ cart.Repository = (*Store)(nil)

// Store implements cart.Repository backed by Redis.
type Store struct {
	rdb *redis.Client
}

// New returns a Store using the given client.
func New(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

// NewClient creates a Redis client for the given address.
func NewClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: addr})
}

// GetCart loads the user's cart. Users without a stored cart get a fresh
// empty one.
func (s *Store) GetCart(ctx context.Context, userID string) (*cart.Cart, error) {
	raw, err := s.rdb.Get(ctx, fmt.Sprintf(keyCart, userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return cart.New(userID), nil
		}
		return nil, errors.Wrap(err, "load cart")
	}

	var c cart.Cart
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, errors.Wrap(err, "decode cart")
	}
	if c.Baskets == nil {
		c.Baskets = make(map[string]cart.Basket)
	}
	return &c, nil
}

// SaveCart stores the cart as a JSON document with a refreshed TTL.
func (s *Store) SaveCart(ctx context.Context, c *cart.Cart) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "encode cart")
	}
	if err := s.rdb.Set(ctx, fmt.Sprintf(keyCart, c.UserID), raw, cartTTL).Err(); err != nil {
		return errors.Wrap(err, "save cart")
	}
	return nil
}

// ResetCart deletes the user's stored cart.
func (s *Store) ResetCart(ctx context.Context, userID string) error {
	if err := s.rdb.Del(ctx, fmt.Sprintf(keyCart, userID)).Err(); err != nil {
		return errors.Wrap(err, "reset cart")
	}
	return nil
}
