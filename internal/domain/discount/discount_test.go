package discount

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amazonas-market/checkout/internal/domain/cart"
	"github.com/amazonas-market/checkout/internal/domain/condition"
	"github.com/amazonas-market/checkout/internal/domain/product"
)

// --- Mock implementations ---

type mockProductRepo struct {
	byID   map[string]product.Product
	getErr error
}

func (m *mockProductRepo) List(_ context.Context) ([]product.Product, error) {
	return nil, nil
}

func (m *mockProductRepo) GetByID(_ context.Context, id string) (*product.Product, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	return &p, nil
}

func (m *mockProductRepo) GetByIDs(_ context.Context, ids []string) ([]product.Product, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	var out []product.Product
	for _, id := range ids {
		if p, ok := m.byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

type mockRuleRepo struct {
	rules []Rule
	err   error
}

func (m *mockRuleRepo) ListByStore(_ context.Context, _ string) ([]Rule, error) {
	return m.rules, m.err
}

// --- Helpers ---

func newCatalog(products ...product.Product) *mockProductRepo {
	byID := make(map[string]product.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	return &mockProductRepo{byID: byID}
}

func testProduct(id, price string) product.Product {
	return product.Product{ID: id, Name: id, Price: decimal.RequireFromString(price)}
}

func mustMinQuantity(t *testing.T, productID string, qty int) *condition.Condition {
	t.Helper()
	c, err := condition.MinQuantity(productID, qty)
	require.NoError(t, err)
	return c
}

// --- Rule.Apply ---

func TestRuleApply_Percentage(t *testing.T) {
	r := Rule{Effect: EffectPercentage, Value: decimal.NewFromInt(10)}
	lines := []condition.Line{
		{ProductID: "p1", Quantity: 2, UnitPrice: decimal.RequireFromString("24.90")},
	}

	amount, err := r.Apply(lines)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("4.98").Equal(amount))
}

func TestRuleApply_FixedCappedAtSubtotal(t *testing.T) {
	r := Rule{Effect: EffectFixed, Value: decimal.NewFromInt(50)}
	lines := []condition.Line{
		{ProductID: "p1", Quantity: 1, UnitPrice: decimal.RequireFromString("19.99")},
	}

	amount, err := r.Apply(lines)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("19.99").Equal(amount))
}

func TestRuleApply_ConditionNotMet(t *testing.T) {
	r := Rule{
		Effect: EffectPercentage,
		Value:  decimal.NewFromInt(10),
		Cond:   mustMinQuantity(t, "p1", 2),
	}
	lines := []condition.Line{
		{ProductID: "p1", Quantity: 1, UnitPrice: decimal.NewFromInt(10)},
	}

	amount, err := r.Apply(lines)
	require.NoError(t, err)
	assert.True(t, amount.IsZero())
}

func TestRuleApply_UnknownEffect(t *testing.T) {
	r := Rule{Effect: "loyalty_points", Value: decimal.NewFromInt(10)}

	_, err := r.Apply([]condition.Line{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported discount effect")
}

// --- Engine.PriceBasket ---

func TestPriceBasket_NoRules(t *testing.T) {
	eng := NewEngine(newCatalog(testProduct("p1", "10.00")), &mockRuleRepo{})

	q, err := eng.PriceBasket(context.Background(), "s1", []cart.ProductLine{
		{ProductID: "p1", Quantity: 3},
	})

	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("30.00").Equal(q.Subtotal))
	assert.True(t, q.Discount.IsZero())
	assert.True(t, decimal.RequireFromString("30.00").Equal(q.Total))
	assert.Empty(t, q.RuleID)
}

func TestPriceBasket_ConditionalRule(t *testing.T) {
	catalog := newCatalog(testProduct("espresso-kit", "24.90"))
	rules := &mockRuleRepo{rules: []Rule{{
		ID:          "bulk",
		Description: "10% off 3+ kits",
		Effect:      EffectPercentage,
		Value:       decimal.NewFromInt(10),
		Cond:        mustMinQuantity(t, "espresso-kit", 3),
	}}}
	eng := NewEngine(catalog, rules)

	// Two kits: rule not eligible.
	q, err := eng.PriceBasket(context.Background(), "s1", []cart.ProductLine{
		{ProductID: "espresso-kit", Quantity: 2},
	})
	require.NoError(t, err)
	assert.True(t, q.Discount.IsZero())
	assert.Empty(t, q.RuleID)

	// Three kits: 10% off 74.70.
	q, err = eng.PriceBasket(context.Background(), "s1", []cart.ProductLine{
		{ProductID: "espresso-kit", Quantity: 3},
	})
	require.NoError(t, err)
	assert.Equal(t, "bulk", q.RuleID)
	assert.True(t, decimal.RequireFromString("7.47").Equal(q.Discount))
	assert.True(t, decimal.RequireFromString("67.23").Equal(q.Total))
}

func TestPriceBasket_LargestDiscountWins(t *testing.T) {
	catalog := newCatalog(testProduct("p1", "100.00"))
	rules := &mockRuleRepo{rules: []Rule{
		{ID: "small", Effect: EffectFixed, Value: decimal.NewFromInt(5)},
		{ID: "big", Effect: EffectPercentage, Value: decimal.NewFromInt(20)},
		{ID: "medium", Effect: EffectFixed, Value: decimal.NewFromInt(10)},
	}}
	eng := NewEngine(catalog, rules)

	q, err := eng.PriceBasket(context.Background(), "s1", []cart.ProductLine{
		{ProductID: "p1", Quantity: 1},
	})

	require.NoError(t, err)
	assert.Equal(t, "big", q.RuleID)
	assert.True(t, decimal.RequireFromString("20.00").Equal(q.Discount))
	assert.True(t, decimal.RequireFromString("80.00").Equal(q.Total))
}

func TestPriceBasket_ProductMissing(t *testing.T) {
	eng := NewEngine(newCatalog(), &mockRuleRepo{})

	_, err := eng.PriceBasket(context.Background(), "s1", []cart.ProductLine{
		{ProductID: "ghost", Quantity: 1},
	})

	require.ErrorIs(t, err, product.ErrNotFound)
}

func TestPriceBasket_InvalidQuantity(t *testing.T) {
	eng := NewEngine(newCatalog(testProduct("p1", "10.00")), &mockRuleRepo{})

	_, err := eng.PriceBasket(context.Background(), "s1", []cart.ProductLine{
		{ProductID: "p1", Quantity: 0},
	})

	require.ErrorIs(t, err, cart.ErrInvalidQuantity)
}

func TestPriceBasket_EmptyLines(t *testing.T) {
	eng := NewEngine(newCatalog(), &mockRuleRepo{})

	_, err := eng.PriceBasket(context.Background(), "s1", nil)
	require.Error(t, err)
}

func TestPriceBasket_RuleRepoError(t *testing.T) {
	eng := NewEngine(
		newCatalog(testProduct("p1", "10.00")),
		&mockRuleRepo{err: errors.New("db down")},
	)

	_, err := eng.PriceBasket(context.Background(), "s1", []cart.ProductLine{
		{ProductID: "p1", Quantity: 1},
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "list discount rules")
}
