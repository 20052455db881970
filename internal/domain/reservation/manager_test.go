package reservation

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/amazonas-market/checkout/internal/domain/cart"
	"github.com/amazonas-market/checkout/internal/domain/discount"
	"github.com/amazonas-market/checkout/internal/domain/product"
)

// --- Mock implementations ---

type mockRepo struct {
	mu     sync.Mutex
	byID   map[string]*Reservation
	byUser map[string][]string
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		byID:   make(map[string]*Reservation),
		byUser: make(map[string][]string),
	}
}

func (m *mockRepo) Save(_ context.Context, r *Reservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[r.ID] = r.Clone()
	m.byUser[r.UserID] = append(m.byUser[r.UserID], r.ID)
	return nil
}

func (m *mockRepo) Get(_ context.Context, reservationID string) (*Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.byID[reservationID]
	if !ok {
		return nil, ErrNotFound
	}
	return r.Clone(), nil
}

func (m *mockRepo) FindByUser(_ context.Context, userID string) ([]*Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Reservation
	for _, id := range m.byUser[userID] {
		out = append(out, m.byID[id].Clone())
	}
	return out, nil
}

func (m *mockRepo) Delete(_ context.Context, userID, reservationID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[reservationID]; !ok {
		return ErrNotFound
	}
	delete(m.byID, reservationID)
	ids := m.byUser[userID]
	for i, id := range ids {
		if id == reservationID {
			m.byUser[userID] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	return nil
}

type mockProductRepo struct {
	byID map[string]product.Product
}

func (m *mockProductRepo) List(_ context.Context) ([]product.Product, error) { return nil, nil }

func (m *mockProductRepo) GetByID(_ context.Context, id string) (*product.Product, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	return &p, nil
}

func (m *mockProductRepo) GetByIDs(_ context.Context, ids []string) ([]product.Product, error) {
	var out []product.Product
	for _, id := range ids {
		if p, ok := m.byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

type mockRuleRepo struct{}

func (mockRuleRepo) ListByStore(_ context.Context, _ string) ([]discount.Rule, error) {
	return nil, nil
}

// --- Helpers ---

func newTestManager(t *testing.T, products ...product.Product) (*Manager, *mockRepo) {
	t.Helper()
	byID := make(map[string]product.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	repo := newMockRepo()
	pricer := discount.NewEngine(&mockProductRepo{byID: byID}, mockRuleRepo{})
	return NewManager(repo, pricer, zap.NewNop()), repo
}

func testCart(userID string) *cart.Cart {
	c := cart.New(userID)
	_ = c.AddProduct("store-a", "p1", 2)
	_ = c.AddProduct("store-a", "p2", 1)
	_ = c.AddProduct("store-b", "p1", 1)
	return c
}

func catalog() []product.Product {
	return []product.Product{
		{ID: "p1", Name: "Widget", Price: decimal.RequireFromString("10.00")},
		{ID: "p2", Name: "Gadget", Price: decimal.RequireFromString("25.50")},
	}
}

// --- Tests ---

func TestReserve_OnePerBasket(t *testing.T) {
	m, _ := newTestManager(t, catalog()...)

	created, err := m.Reserve(context.Background(), "u1", testCart("u1"))
	require.NoError(t, err)
	require.Len(t, created, 2)

	totals := map[string]string{}
	for _, r := range created {
		assert.False(t, r.Paid)
		assert.Equal(t, "u1", r.UserID)
		assert.NotEmpty(t, r.ID)
		totals[r.StoreID] = r.TotalPrice.StringFixed(2)
	}
	assert.Equal(t, "45.50", totals["store-a"])
	assert.Equal(t, "10.00", totals["store-b"])

	active, err := m.FindActive(context.Background(), "u1")
	require.NoError(t, err)
	assert.Len(t, active, 2)
}

func TestReserve_SkipsEmptyBaskets(t *testing.T) {
	m, _ := newTestManager(t, catalog()...)

	c := cart.New("u1")
	_ = c.AddProduct("store-a", "p1", 1)
	c.Baskets["store-empty"] = cart.Basket{}

	created, err := m.Reserve(context.Background(), "u1", c)
	require.NoError(t, err)
	assert.Len(t, created, 1)
}

func TestReserve_AlreadyReserved(t *testing.T) {
	m, _ := newTestManager(t, catalog()...)

	_, err := m.Reserve(context.Background(), "u1", testCart("u1"))
	require.NoError(t, err)

	_, err = m.Reserve(context.Background(), "u1", testCart("u1"))
	require.ErrorIs(t, err, ErrAlreadyReserved)

	// A different user is unaffected.
	_, err = m.Reserve(context.Background(), "u2", testCart("u2"))
	require.NoError(t, err)
}

func TestReserve_PricingFailure(t *testing.T) {
	m, _ := newTestManager(t) // empty catalog

	_, err := m.Reserve(context.Background(), "u1", testCart("u1"))
	require.ErrorIs(t, err, product.ErrNotFound)
}

func TestMarkPaid_RemovesFromActiveSet(t *testing.T) {
	m, _ := newTestManager(t, catalog()...)

	created, err := m.Reserve(context.Background(), "u1", testCart("u1"))
	require.NoError(t, err)

	for id := range created {
		paid, err := m.MarkPaid(context.Background(), id)
		require.NoError(t, err)
		assert.True(t, paid.Paid)
		assert.Equal(t, id, paid.ID)
	}

	active, err := m.FindActive(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, active)

	// Paid reservations cannot be paid or cancelled again.
	for id := range created {
		_, err := m.MarkPaid(context.Background(), id)
		require.ErrorIs(t, err, ErrNotFound)
		require.ErrorIs(t, m.Cancel(context.Background(), "u1", id), ErrNotFound)
	}
}

func TestCancel(t *testing.T) {
	m, _ := newTestManager(t, catalog()...)

	created, err := m.Reserve(context.Background(), "u1", testCart("u1"))
	require.NoError(t, err)

	for id := range created {
		require.NoError(t, m.Cancel(context.Background(), "u1", id))
	}

	active, err := m.FindActive(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, active)

	require.ErrorIs(t, m.Cancel(context.Background(), "u1", "ghost"), ErrNotFound)
}

func TestFindActive_ReturnsCopies(t *testing.T) {
	m, _ := newTestManager(t, catalog()...)

	_, err := m.Reserve(context.Background(), "u1", testCart("u1"))
	require.NoError(t, err)

	first, err := m.FindActive(context.Background(), "u1")
	require.NoError(t, err)
	require.NotEmpty(t, first)

	first[0].Paid = true
	first[0].Lines["p1"] = 999

	second, err := m.FindActive(context.Background(), "u1")
	require.NoError(t, err)
	for _, r := range second {
		assert.False(t, r.Paid)
		assert.NotEqual(t, 999, r.Lines["p1"])
	}
}

func TestReserve_ConcurrentSameUser(t *testing.T) {
	m, _ := newTestManager(t, catalog()...)

	const attempts = 16
	var wg sync.WaitGroup
	results := make([]error, attempts)

	for i := range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, results[i] = m.Reserve(context.Background(), "u1", testCart("u1"))
		}()
	}
	wg.Wait()

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
		} else {
			require.ErrorIs(t, err, ErrAlreadyReserved)
		}
	}
	assert.Equal(t, 1, succeeded, "exactly one concurrent reserve wins")

	active, err := m.FindActive(context.Background(), "u1")
	require.NoError(t, err)
	assert.Len(t, active, 2)
}
