// Package discount applies store-configured discount rules to cart baskets.
// A Rule pairs a condition tree with a discount effect; the Engine resolves
// catalog prices, evaluates each rule against the basket, and applies the
// single largest eligible discount.
package discount

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/amazonas-market/checkout/internal/domain/condition"
)

var hundred = decimal.NewFromInt(100)

// EffectType enumerates the supported discount effects.
type EffectType string

const (
	// EffectPercentage takes a percentage off the basket subtotal.
	EffectPercentage EffectType = "percentage"
	// EffectFixed takes a fixed amount off, capped at the subtotal.
	EffectFixed EffectType = "fixed"
)

// Rule is a store-scoped discount policy: an eligibility condition plus the
// effect applied when the condition holds.
type Rule struct {
	ID          string
	StoreID     string
	Description string
	Effect      EffectType
	Value       decimal.Decimal
	Cond        *condition.Condition
}

// Repository provides the discount rules configured for a store.
type Repository interface {
	ListByStore(ctx context.Context, storeID string) ([]Rule, error)
}

// Apply computes the discount amount the rule grants for the given lines.
// It returns zero when the rule's condition does not hold.
func (r *Rule) Apply(lines []condition.Line) (decimal.Decimal, error) {
	if r.Cond != nil {
		eligible, err := r.Cond.Evaluate(lines)
		if err != nil {
			return decimal.Zero, err
		}
		if !eligible {
			return decimal.Zero, nil
		}
	}

	subtotal := condition.Subtotal(lines)

	switch r.Effect {
	case EffectPercentage:
		amount := subtotal.Mul(r.Value).Div(hundred)
		return floorAtZero(amount).Round(2), nil
	case EffectFixed:
		amount := decimal.Min(r.Value, subtotal)
		return floorAtZero(amount).Round(2), nil
	default:
		return decimal.Zero, errors.Errorf("unsupported discount effect: %q", r.Effect)
	}
}

// floorAtZero clamps negative values to zero.
func floorAtZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
