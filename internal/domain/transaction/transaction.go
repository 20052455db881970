package transaction

import (
	"context"
	"time"

	"github.com/go-faster/errors"

	"github.com/amazonas-market/checkout/internal/domain/product"
)

// ErrNotFound is returned when a requested transaction does not exist.
var ErrNotFound = errors.New("transaction not found")

// State tracks a transaction through fulfilment.
type State string

const (
	StatePendingShipment State = "PENDING_SHIPMENT"
	StateShipped         State = "SHIPPED"
	StateDelivered       State = "DELIVERED"
	StateCompleted       State = "COMPLETED"
	StateCancelled       State = "CANCELLED"
)

// Line is one purchased product with its quantity. The product is embedded
// by value so the ledger keeps the catalog snapshot at purchase time.
type Line struct {
	Product  product.Product `json:"product"`
	Quantity int             `json:"quantity"`
}

// Transaction is the durable record of one paid store basket. It is
// append-only once created.
type Transaction struct {
	ID        string
	StoreID   string
	UserID    string
	Timestamp time.Time
	Lines     []Line
	State     State
}

// Clone returns a deep copy, so ledger internals stay isolated from
// callers.
func (t *Transaction) Clone() *Transaction {
	lines := make([]Line, len(t.Lines))
	copy(lines, t.Lines)
	out := *t
	out.Lines = lines
	return &out
}

// Ledger is the append-only, multi-indexed store of completed transactions.
// History reads return transactions in the order they were recorded.
type Ledger interface {
	Save(ctx context.Context, t *Transaction) error
	SaveAll(ctx context.Context, ts []*Transaction) error
	Get(ctx context.Context, id string) (*Transaction, error)
	HistoryByUser(ctx context.Context, userID string) ([]*Transaction, error)
	HistoryByStore(ctx context.Context, storeID string) ([]*Transaction, error)
	PendingShipment(ctx context.Context, storeID string) ([]*Transaction, error)
}
