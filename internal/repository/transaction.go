package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/amazonas-market/checkout/internal/domain/transaction"
)

const (
	saveTransactionSQL = `INSERT INTO transactions (id, store_id, user_id, ts, state, lines)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE
		SET store_id = EXCLUDED.store_id, user_id = EXCLUDED.user_id,
			ts = EXCLUDED.ts, state = EXCLUDED.state, lines = EXCLUDED.lines
		RETURNING (xmax <> 0)`

	getTransactionSQL = `SELECT id, store_id, user_id, ts, state, lines
		FROM transactions WHERE id = $1`

	historyByUserSQL = `SELECT id, store_id, user_id, ts, state, lines
		FROM transactions WHERE user_id = $1 ORDER BY recorded_at`

	historyByStoreSQL = `SELECT id, store_id, user_id, ts, state, lines
		FROM transactions WHERE store_id = $1 ORDER BY recorded_at`

	pendingShipmentSQL = `SELECT id, store_id, user_id, ts, state, lines
		FROM transactions WHERE store_id = $1 AND state = $2 ORDER BY recorded_at`
)

var _ transaction.Ledger = (*TransactionRepository)(nil)

// TransactionRepository implements transaction.Ledger backed by PostgreSQL.
// Lines are serialized to a JSONB column so the record keeps the catalog
// snapshot at purchase time.
type TransactionRepository struct {
	pool *pgxpool.Pool
	lg   *zap.Logger
}

// NewTransactionRepository returns a TransactionRepository that uses the
// given pool.
func NewTransactionRepository(pool *pgxpool.Pool, lg *zap.Logger) *TransactionRepository {
	return &TransactionRepository{pool: pool, lg: lg}
}

// Save persists one transaction. Re-saving an existing ID replaces the
// stored record and is logged as unusual, since IDs are generated and
// expected to be globally unique.
func (r *TransactionRepository) Save(ctx context.Context, t *transaction.Transaction) error {
	linesJSON, err := json.Marshal(t.Lines)
	if err != nil {
		return fmt.Errorf("marshaling transaction lines: %w", err)
	}

	var updated bool
	err = r.pool.QueryRow(ctx, saveTransactionSQL,
		t.ID, t.StoreID, t.UserID, t.Timestamp, string(t.State), linesJSON,
	).Scan(&updated)
	if err != nil {
		return fmt.Errorf("saving transaction %q: %w", t.ID, err)
	}
	if updated {
		r.lg.Warn("transaction id re-saved, overwriting", zap.String("transaction_id", t.ID))
	}
	return nil
}

// SaveAll persists a batch of transactions.
func (r *TransactionRepository) SaveAll(ctx context.Context, ts []*transaction.Transaction) error {
	for _, t := range ts {
		if err := r.Save(ctx, t); err != nil {
			return err
		}
	}
	return nil
}

// Get returns a single transaction by its identifier.
func (r *TransactionRepository) Get(ctx context.Context, id string) (*transaction.Transaction, error) {
	rows, err := r.pool.Query(ctx, getTransactionSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting transaction %q: %w", id, err)
	}

	t, err := pgx.CollectExactlyOneRow(rows, scanTransaction)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, transaction.ErrNotFound
		}
		return nil, fmt.Errorf("getting transaction %q: %w", id, err)
	}
	return &t, nil
}

// HistoryByUser returns the user's transactions in recording order.
func (r *TransactionRepository) HistoryByUser(ctx context.Context, userID string) ([]*transaction.Transaction, error) {
	return r.query(ctx, historyByUserSQL, userID)
}

// HistoryByStore returns the store's transactions in recording order.
func (r *TransactionRepository) HistoryByStore(ctx context.Context, storeID string) ([]*transaction.Transaction, error) {
	return r.query(ctx, historyByStoreSQL, storeID)
}

// PendingShipment returns the store's transactions awaiting shipment.
func (r *TransactionRepository) PendingShipment(ctx context.Context, storeID string) ([]*transaction.Transaction, error) {
	return r.query(ctx, pendingShipmentSQL, storeID, string(transaction.StatePendingShipment))
}

func (r *TransactionRepository) query(ctx context.Context, sql string, args ...any) ([]*transaction.Transaction, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("querying transactions: %w", err)
	}

	collected, err := pgx.CollectRows(rows, scanTransaction)
	if err != nil {
		return nil, fmt.Errorf("scanning transactions: %w", err)
	}
	out := make([]*transaction.Transaction, len(collected))
	for i := range collected {
		out[i] = &collected[i]
	}
	return out, nil
}

func scanTransaction(row pgx.CollectableRow) (transaction.Transaction, error) {
	var (
		t         transaction.Transaction
		state     string
		linesJSON []byte
	)
	if err := row.Scan(&t.ID, &t.StoreID, &t.UserID, &t.Timestamp, &state, &linesJSON); err != nil {
		return transaction.Transaction{}, err
	}
	t.State = transaction.State(state)
	if err := json.Unmarshal(linesJSON, &t.Lines); err != nil {
		return transaction.Transaction{}, fmt.Errorf("decoding lines for transaction %q: %w", t.ID, err)
	}
	return t, nil
}
