package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/amazonas-market/checkout/internal/domain/product"
	"github.com/amazonas-market/checkout/internal/domain/transaction"
)

func testTransaction(id, storeID, userID string, state transaction.State) *transaction.Transaction {
	return &transaction.Transaction{
		ID:        id,
		StoreID:   storeID,
		UserID:    userID,
		Timestamp: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Lines: []transaction.Line{{
			Product:  product.Product{ID: "p1", Name: "Widget", Price: decimal.RequireFromString("10.00")},
			Quantity: 2,
		}},
		State: state,
	}
}

func TestLedger_GetNotFound(t *testing.T) {
	l := NewLedger(zap.NewNop())

	_, err := l.Get(context.Background(), "ghost")
	require.ErrorIs(t, err, transaction.ErrNotFound)
}

func TestLedger_HistoryOrder(t *testing.T) {
	l := NewLedger(zap.NewNop())
	ctx := context.Background()

	for i := range 5 {
		id := fmt.Sprintf("t%d", i)
		require.NoError(t, l.Save(ctx, testTransaction(id, "s1", "u1", transaction.StatePendingShipment)))
	}

	history, err := l.HistoryByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, history, 5)
	for i, tr := range history {
		assert.Equal(t, fmt.Sprintf("t%d", i), tr.ID, "history preserves recording order")
	}

	byStore, err := l.HistoryByStore(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, byStore, 5)
}

func TestLedger_SaveAll(t *testing.T) {
	l := NewLedger(zap.NewNop())
	ctx := context.Background()

	require.NoError(t, l.SaveAll(ctx, []*transaction.Transaction{
		testTransaction("t1", "s1", "u1", transaction.StatePendingShipment),
		testTransaction("t2", "s2", "u1", transaction.StateShipped),
	}))

	history, err := l.HistoryByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestLedger_PendingShipmentFilter(t *testing.T) {
	l := NewLedger(zap.NewNop())
	ctx := context.Background()

	require.NoError(t, l.Save(ctx, testTransaction("t1", "s1", "u1", transaction.StatePendingShipment)))
	require.NoError(t, l.Save(ctx, testTransaction("t2", "s1", "u2", transaction.StateShipped)))
	require.NoError(t, l.Save(ctx, testTransaction("t3", "s1", "u3", transaction.StatePendingShipment)))
	require.NoError(t, l.Save(ctx, testTransaction("t4", "s2", "u1", transaction.StatePendingShipment)))

	pending, err := l.PendingShipment(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "t1", pending[0].ID)
	assert.Equal(t, "t3", pending[1].ID)
}

func TestLedger_DefensiveCopies(t *testing.T) {
	l := NewLedger(zap.NewNop())
	ctx := context.Background()

	orig := testTransaction("t1", "s1", "u1", transaction.StatePendingShipment)
	require.NoError(t, l.Save(ctx, orig))

	// Mutating the saved value must not reach the ledger.
	orig.State = transaction.StateCancelled
	orig.Lines[0].Quantity = 999

	got, err := l.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, transaction.StatePendingShipment, got.State)
	assert.Equal(t, 2, got.Lines[0].Quantity)

	// Mutating a read result must not reach the ledger either.
	got.Lines[0].Quantity = 777
	again, err := l.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, 2, again.Lines[0].Quantity)
}

func TestLedger_OverwriteIsLogged(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	l := NewLedger(zap.New(core))
	ctx := context.Background()

	require.NoError(t, l.Save(ctx, testTransaction("t1", "s1", "u1", transaction.StatePendingShipment)))
	require.NoError(t, l.Save(ctx, testTransaction("t1", "s1", "u1", transaction.StateShipped)))

	got, err := l.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, transaction.StateShipped, got.State, "last write wins")

	history, err := l.HistoryByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, history, 1, "overwrite does not duplicate history entries")
	assert.Equal(t, transaction.StateShipped, history[0].State)

	require.Equal(t, 1, logs.FilterMessage("transaction id re-saved, overwriting").Len())
}
