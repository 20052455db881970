package discount

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/amazonas-market/checkout/internal/domain/cart"
	"github.com/amazonas-market/checkout/internal/domain/condition"
	"github.com/amazonas-market/checkout/internal/domain/product"
)

// Quote is the priced result for one store basket.
type Quote struct {
	Subtotal decimal.Decimal
	Discount decimal.Decimal
	Total    decimal.Decimal
	// RuleID and Description identify the applied rule; empty when no rule
	// was eligible.
	RuleID      string
	Description string
}

// Engine prices store baskets: catalog prices plus the best eligible
// discount rule for the store.
type Engine struct {
	products product.Repository
	rules    Repository
}

// NewEngine creates an Engine with the required dependencies.
func NewEngine(products product.Repository, rules Repository) *Engine {
	return &Engine{products: products, rules: rules}
}

// PriceBasket resolves catalog prices for the basket lines, evaluates the
// store's discount rules, and returns the quote with the largest eligible
// discount applied. A product missing from the catalog fails the whole
// basket with product.ErrNotFound.
func (e *Engine) PriceBasket(ctx context.Context, storeID string, lines []cart.ProductLine) (*Quote, error) {
	if len(lines) == 0 {
		return nil, errors.New("basket has no lines")
	}

	priced, err := e.priceLines(ctx, lines)
	if err != nil {
		return nil, err
	}
	subtotal := condition.Subtotal(priced)

	rules, err := e.rules.ListByStore(ctx, storeID)
	if err != nil {
		return nil, errors.Wrap(err, "list discount rules")
	}

	quote := &Quote{Subtotal: subtotal, Discount: decimal.Zero}
	for i := range rules {
		amount, err := rules[i].Apply(priced)
		if err != nil {
			return nil, errors.Wrapf(err, "apply rule %s", rules[i].ID)
		}
		if amount.GreaterThan(quote.Discount) {
			quote.Discount = amount
			quote.RuleID = rules[i].ID
			quote.Description = rules[i].Description
		}
	}

	total := subtotal.Sub(quote.Discount)
	if total.IsNegative() {
		total = decimal.Zero
	}
	quote.Total = total.Round(2)
	quote.Discount = quote.Discount.Round(2)

	return quote, nil
}

// priceLines joins basket lines with their catalog products in one batch
// lookup.
func (e *Engine) priceLines(ctx context.Context, lines []cart.ProductLine) ([]condition.Line, error) {
	ids := make([]string, len(lines))
	for i, line := range lines {
		if line.Quantity <= 0 {
			return nil, cart.ErrInvalidQuantity
		}
		ids[i] = line.ProductID
	}

	fetched, err := e.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "get products")
	}
	byID := make(map[string]product.Product, len(fetched))
	for _, p := range fetched {
		byID[p.ID] = p
	}

	priced := make([]condition.Line, len(lines))
	for i, line := range lines {
		p, ok := byID[line.ProductID]
		if !ok {
			return nil, errors.Wrapf(product.ErrNotFound, "product %s", line.ProductID)
		}
		priced[i] = condition.Line{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitPrice: p.Price,
		}
	}
	return priced, nil
}
