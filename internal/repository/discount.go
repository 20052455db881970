package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/amazonas-market/checkout/internal/domain/condition"
	"github.com/amazonas-market/checkout/internal/domain/discount"
)

const listRulesByStoreSQL = `SELECT id, store_id, description, effect, value, condition
	FROM discount_rules WHERE store_id = $1 AND active = TRUE ORDER BY id`

var _ discount.Repository = (*DiscountRepository)(nil)

// DiscountRepository implements discount.Repository backed by PostgreSQL.
// Condition trees are stored as descriptor JSON and rebuilt on read.
type DiscountRepository struct {
	pool *pgxpool.Pool
}

// NewDiscountRepository returns a DiscountRepository that uses the given pool.
func NewDiscountRepository(pool *pgxpool.Pool) *DiscountRepository {
	return &DiscountRepository{pool: pool}
}

// ListByStore returns the active discount rules configured for a store.
// A rule whose stored descriptor no longer parses fails the whole read;
// a silently skipped rule would change pricing without anyone noticing.
func (r *DiscountRepository) ListByStore(ctx context.Context, storeID string) ([]discount.Rule, error) {
	rows, err := r.pool.Query(ctx, listRulesByStoreSQL, storeID)
	if err != nil {
		return nil, fmt.Errorf("listing discount rules for store %q: %w", storeID, err)
	}
	return pgx.CollectRows(rows, scanRule)
}

func scanRule(row pgx.CollectableRow) (discount.Rule, error) {
	var (
		rule     discount.Rule
		condJSON []byte
	)
	if err := row.Scan(&rule.ID, &rule.StoreID, &rule.Description, (*string)(&rule.Effect), &rule.Value, &condJSON); err != nil {
		return discount.Rule{}, err
	}
	if len(condJSON) > 0 {
		var d condition.Descriptor
		if err := json.Unmarshal(condJSON, &d); err != nil {
			return discount.Rule{}, fmt.Errorf("decoding condition for rule %q: %w", rule.ID, err)
		}
		cond, err := condition.FromDescriptor(d)
		if err != nil {
			return discount.Rule{}, fmt.Errorf("rebuilding condition for rule %q: %w", rule.ID, err)
		}
		rule.Cond = cond
	}
	return rule, nil
}
