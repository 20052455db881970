// Package purchase drives a checkout attempt end to end: reserve the cart,
// charge the payment gateway, record the transactions, notify the store
// owners. A failed charge rolls the reservations back; a successful charge
// must run to completion.
package purchase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/amazonas-market/checkout/internal/domain/cart"
	"github.com/amazonas-market/checkout/internal/domain/notify"
	"github.com/amazonas-market/checkout/internal/domain/payment"
	"github.com/amazonas-market/checkout/internal/domain/product"
	"github.com/amazonas-market/checkout/internal/domain/reservation"
	"github.com/amazonas-market/checkout/internal/domain/store"
	"github.com/amazonas-market/checkout/internal/domain/transaction"
	"github.com/shopspring/decimal"
)

// Notification sender name used for store owner messages.
const senderName = "Amazonas Market"

// FailedError reports a failed purchase attempt with a human-readable
// reason. The wrapped cause, when present, is internal detail.
type FailedError struct {
	Reason string
	Err    error
}

func (e *FailedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("purchase failed: %s: %v", e.Reason, e.Err)
	}
	return "purchase failed: " + e.Reason
}

func (e *FailedError) Unwrap() error { return e.Err }

// Orchestrator coordinates the reservation manager, the payment gateway,
// the transaction ledger, and the notification channel for one purchase
// attempt at a time per process. The payMu write lock serializes payment
// attempts so the charge/rollback and charge/commit sequences are atomic
// with respect to every other purchase operation. Holding the lock across
// the gateway call is a deliberate throughput tradeoff: it preserves the
// all-or-nothing rollback invariant.
type Orchestrator struct {
	payMu sync.Mutex

	carts        cart.Provider
	reservations *reservation.Manager
	gateway      payment.Gateway
	products     product.Repository
	stores       store.Directory
	notifier     notify.Notifier
	ledger       transaction.Ledger
	lg           *zap.Logger
	now          func() time.Time
}

// NewOrchestrator creates an Orchestrator with the required collaborators.
func NewOrchestrator(
	carts cart.Provider,
	reservations *reservation.Manager,
	gateway payment.Gateway,
	products product.Repository,
	stores store.Directory,
	notifier notify.Notifier,
	ledger transaction.Ledger,
	lg *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		carts:        carts,
		reservations: reservations,
		gateway:      gateway,
		products:     products,
		stores:       stores,
		notifier:     notifier,
		ledger:       ledger,
		lg:           lg,
		now:          time.Now,
	}
}

// StartPurchase reads the user's cart and reserves its contents, one
// reservation per store basket. An empty cart or a pricing failure fails
// the attempt.
func (o *Orchestrator) StartPurchase(ctx context.Context, userID string) (map[string]*reservation.Reservation, error) {
	c, err := o.carts.GetCart(ctx, userID)
	if err != nil {
		return nil, &FailedError{Reason: "load cart", Err: err}
	}
	if c.IsEmpty() {
		return nil, &FailedError{Reason: "cart is empty"}
	}

	held, err := o.reservations.Reserve(ctx, userID, c)
	if err != nil {
		return nil, &FailedError{Reason: "reserve cart", Err: err}
	}

	o.lg.Debug("cart reserved",
		zap.String("user_id", userID),
		zap.Int("reservations", len(held)),
	)
	return held, nil
}

// Pay charges the aggregate discounted total of the user's active
// reservations and commits or rolls back.
//
// On a declined or failed charge every reservation is cancelled; rollback
// failures are logged and the remaining reservations still get their
// attempt. On success each reservation becomes a ledger transaction, the
// store owners are notified best-effort, and the cart is reset. A product
// that cannot be resolved after the charge aborts the purchase without
// releasing the payment; no compensating refund is issued here.
func (o *Orchestrator) Pay(ctx context.Context, userID string, method payment.Method) error {
	o.payMu.Lock()
	defer o.payMu.Unlock()

	held, err := o.reservations.FindActive(ctx, userID)
	if err != nil {
		return &FailedError{Reason: "load reservations", Err: err}
	}
	if len(held) == 0 {
		return &FailedError{Reason: "no reservations to pay for"}
	}

	total := decimal.Zero
	for _, r := range held {
		total = total.Add(r.TotalPrice)
	}

	charged, err := o.gateway.Charge(ctx, method, total)
	if err != nil || !charged {
		o.rollback(ctx, userID, held)
		if err != nil {
			o.lg.Warn("payment gateway error", zap.String("user_id", userID), zap.Error(err))
			return &FailedError{Reason: "payment failed", Err: err}
		}
		o.lg.Debug("payment declined", zap.String("user_id", userID))
		return &FailedError{Reason: "payment failed"}
	}

	// Past this point the user has been charged: the commit sequence must
	// complete, so failures below abort loudly instead of rolling back.
	committedAt := o.now()
	for _, r := range held {
		paid, err := o.reservations.MarkPaid(ctx, r.ID)
		if err != nil {
			return &FailedError{Reason: "mark reservation paid", Err: err}
		}

		t, err := o.toTransaction(ctx, paid, committedAt)
		if err != nil {
			o.lg.Error("purchase aborted after charge, payment not released",
				zap.String("user_id", userID),
				zap.String("reservation_id", r.ID),
				zap.Error(err),
			)
			return err
		}
		if err := o.ledger.Save(ctx, t); err != nil {
			return &FailedError{Reason: "document transaction", Err: err}
		}

		o.notifyOwners(ctx, t)
	}

	if err := o.carts.ResetCart(ctx, userID); err != nil {
		// The purchase is committed; a stale cart is an inconvenience, not
		// a failure.
		o.lg.Error("reset cart after purchase", zap.String("user_id", userID), zap.Error(err))
	}

	o.lg.Info("purchase completed",
		zap.String("user_id", userID),
		zap.Int("transactions", len(held)),
		zap.String("total", total.String()),
	)
	return nil
}

// CancelPurchase cancels and removes all of the user's active reservations.
// It reports whether anything was actually cancelled; an empty active set
// is not an error at this boundary.
func (o *Orchestrator) CancelPurchase(ctx context.Context, userID string) (bool, error) {
	o.payMu.Lock()
	defer o.payMu.Unlock()

	held, err := o.reservations.FindActive(ctx, userID)
	if err != nil {
		return false, &FailedError{Reason: "load reservations", Err: err}
	}
	if len(held) == 0 {
		return false, nil
	}

	o.rollback(ctx, userID, held)
	o.lg.Debug("purchase cancelled", zap.String("user_id", userID))
	return true, nil
}

// rollback cancels every reservation in the batch. Each one gets its
// attempt regardless of earlier failures; errors are logged only.
func (o *Orchestrator) rollback(ctx context.Context, userID string, held []*reservation.Reservation) {
	for _, r := range held {
		if err := o.reservations.Cancel(ctx, userID, r.ID); err != nil {
			o.lg.Warn("cancel reservation during rollback",
				zap.String("user_id", userID),
				zap.String("reservation_id", r.ID),
				zap.Error(err),
			)
		}
	}
}

// toTransaction resolves each reserved product against the catalog and
// builds the ledger record. A missing product is fatal to the purchase.
func (o *Orchestrator) toTransaction(ctx context.Context, r *reservation.Reservation, at time.Time) (*transaction.Transaction, error) {
	lines := make([]transaction.Line, 0, len(r.Lines))
	for productID, qty := range r.Lines {
		p, err := o.products.GetByID(ctx, productID)
		if err != nil {
			return nil, &FailedError{Reason: "product not found", Err: err}
		}
		lines = append(lines, transaction.Line{Product: *p, Quantity: qty})
	}

	return &transaction.Transaction{
		ID:        uuid.New().String(),
		StoreID:   r.StoreID,
		UserID:    r.UserID,
		Timestamp: at,
		Lines:     lines,
		State:     transaction.StatePendingShipment,
	}, nil
}

// notifyOwners tells every owner of the transaction's store about the new
// sale. Failures are observational only.
func (o *Orchestrator) notifyOwners(ctx context.Context, t *transaction.Transaction) {
	st, err := o.stores.GetByID(ctx, t.StoreID)
	if err != nil {
		o.lg.Warn("resolve store for notification",
			zap.String("store_id", t.StoreID),
			zap.Error(err),
		)
		return
	}
	for _, ownerID := range st.OwnerIDs {
		n := notify.Notification{
			Title:       "New transaction in your store: " + st.Name,
			Body:        "Transaction id: " + t.ID,
			Sender:      senderName,
			RecipientID: ownerID,
		}
		if err := o.notifier.Send(ctx, n); err != nil {
			o.lg.Warn("send owner notification",
				zap.String("store_id", t.StoreID),
				zap.String("owner_id", ownerID),
				zap.Error(err),
			)
		}
	}
}
