package memory

import (
	"context"
	"sync"

	"github.com/amazonas-market/checkout/internal/domain/discount"
)

var _ discount.Repository = (*RuleStore)(nil)

// RuleStore keeps discount rules in memory, grouped by store.
type RuleStore struct {
	mu      sync.RWMutex
	byStore map[string][]discount.Rule
}

// NewRuleStore returns an empty RuleStore.
func NewRuleStore() *RuleStore {
	return &RuleStore{byStore: make(map[string][]discount.Rule)}
}

// Put registers a rule under its store.
func (s *RuleStore) Put(r discount.Rule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byStore[r.StoreID] = append(s.byStore[r.StoreID], r)
}

// ListByStore returns the rules configured for the given store.
func (s *RuleStore) ListByStore(_ context.Context, storeID string) ([]discount.Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rules := s.byStore[storeID]
	out := make([]discount.Rule, len(rules))
	copy(out, rules)
	return out, nil
}
