package memory

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/amazonas-market/checkout/internal/domain/transaction"
)

var _ transaction.Ledger = (*Ledger)(nil)

// Ledger is the in-memory transaction ledger: one primary index by
// transaction ID plus insertion-ordered history slices per user and per
// store. All reads hand out deep copies.
type Ledger struct {
	mu      sync.RWMutex
	byID    map[string]*transaction.Transaction
	byUser  map[string][]*transaction.Transaction
	byStore map[string][]*transaction.Transaction
	lg      *zap.Logger
}

// NewLedger returns an empty Ledger logging through lg.
func NewLedger(lg *zap.Logger) *Ledger {
	return &Ledger{
		byID:    make(map[string]*transaction.Transaction),
		byUser:  make(map[string][]*transaction.Transaction),
		byStore: make(map[string][]*transaction.Transaction),
		lg:      lg,
	}
}

// Save records one transaction. Transaction IDs are generated and expected
// to be unique; re-saving an existing ID replaces the stored record
// (last write wins) and is logged as unusual.
func (l *Ledger) Save(_ context.Context, t *transaction.Transaction) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.save(t)
	return nil
}

// SaveAll records a batch of transactions under one lock acquisition.
func (l *Ledger) SaveAll(_ context.Context, ts []*transaction.Transaction) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, t := range ts {
		l.save(t)
	}
	return nil
}

// save must be called with the write lock held.
func (l *Ledger) save(t *transaction.Transaction) {
	stored := t.Clone()
	if prev, ok := l.byID[t.ID]; ok {
		l.lg.Warn("transaction id re-saved, overwriting",
			zap.String("transaction_id", t.ID),
			zap.String("user_id", prev.UserID),
		)
		l.replaceInHistory(l.byUser[prev.UserID], stored)
		l.replaceInHistory(l.byStore[prev.StoreID], stored)
	} else {
		l.byUser[t.UserID] = append(l.byUser[t.UserID], stored)
		l.byStore[t.StoreID] = append(l.byStore[t.StoreID], stored)
	}
	l.byID[t.ID] = stored
}

func (l *Ledger) replaceInHistory(history []*transaction.Transaction, t *transaction.Transaction) {
	for i, h := range history {
		if h.ID == t.ID {
			history[i] = t
			return
		}
	}
}

// Get returns a copy of the transaction, or transaction.ErrNotFound.
func (l *Ledger) Get(_ context.Context, id string) (*transaction.Transaction, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	t, ok := l.byID[id]
	if !ok {
		return nil, transaction.ErrNotFound
	}
	return t.Clone(), nil
}

// HistoryByUser returns the user's transactions in recording order.
func (l *Ledger) HistoryByUser(_ context.Context, userID string) ([]*transaction.Transaction, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return cloneHistory(l.byUser[userID]), nil
}

// HistoryByStore returns the store's transactions in recording order.
func (l *Ledger) HistoryByStore(_ context.Context, storeID string) ([]*transaction.Transaction, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return cloneHistory(l.byStore[storeID]), nil
}

// PendingShipment returns the store's transactions still awaiting shipment.
func (l *Ledger) PendingShipment(_ context.Context, storeID string) ([]*transaction.Transaction, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []*transaction.Transaction
	for _, t := range l.byStore[storeID] {
		if t.State == transaction.StatePendingShipment {
			out = append(out, t.Clone())
		}
	}
	return out, nil
}

func cloneHistory(history []*transaction.Transaction) []*transaction.Transaction {
	out := make([]*transaction.Transaction, len(history))
	for i, t := range history {
		out[i] = t.Clone()
	}
	return out
}
