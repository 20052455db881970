package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/amazonas-market/checkout/internal/domain/product"
	"github.com/amazonas-market/checkout/internal/domain/store"
)

var _ product.Repository = (*Catalog)(nil)

// Catalog is an in-memory product catalog.
type Catalog struct {
	mu   sync.RWMutex
	byID map[string]product.Product
}

// NewCatalog returns a Catalog seeded with the given products.
func NewCatalog(products ...product.Product) *Catalog {
	byID := make(map[string]product.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	return &Catalog{byID: byID}
}

// Put inserts or replaces a product.
func (c *Catalog) Put(p product.Product) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byID[p.ID] = p
}

// List returns all products ordered by ID.
func (c *Catalog) List(_ context.Context) ([]product.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]product.Product, 0, len(c.byID))
	for _, p := range c.byID {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// GetByID returns the product with the given ID, or product.ErrNotFound.
func (c *Catalog) GetByID(_ context.Context, id string) (*product.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	p, ok := c.byID[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	return &p, nil
}

// GetByIDs returns the products matching any of the given IDs. Missing IDs
// are skipped, mirroring the batch-query semantics of the SQL repository.
func (c *Catalog) GetByIDs(_ context.Context, ids []string) ([]product.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	seen := make(map[string]struct{}, len(ids))
	out := make([]product.Product, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if p, ok := c.byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

var _ store.Directory = (*Directory)(nil)

// Directory is an in-memory store directory.
type Directory struct {
	mu   sync.RWMutex
	byID map[string]store.Store
}

// NewDirectory returns a Directory seeded with the given stores.
func NewDirectory(stores ...store.Store) *Directory {
	byID := make(map[string]store.Store, len(stores))
	for _, s := range stores {
		byID[s.ID] = s
	}
	return &Directory{byID: byID}
}

// GetByID returns the store with the given ID, or store.ErrNotFound.
func (d *Directory) GetByID(_ context.Context, id string) (*store.Store, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	s, ok := d.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	owners := make([]string, len(s.OwnerIDs))
	copy(owners, s.OwnerIDs)
	s.OwnerIDs = owners
	return &s, nil
}
