package reservation

import (
	"context"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/amazonas-market/checkout/internal/domain/cart"
	"github.com/amazonas-market/checkout/internal/domain/discount"
)

// Manager creates, cancels, and commits reservations. All mutations go
// through a single writer lock, so reservation state transitions for any
// user are serialized; reads take the shared side. The lock is global
// rather than sharded per user, trading throughput for a simple deadlock
// free discipline.
type Manager struct {
	mu     sync.RWMutex
	repo   Repository
	pricer *discount.Engine
	lg     *zap.Logger
	now    func() time.Time
}

// NewManager creates a Manager with the required dependencies.
func NewManager(repo Repository, pricer *discount.Engine, lg *zap.Logger) *Manager {
	return &Manager{
		repo:   repo,
		pricer: pricer,
		lg:     lg,
		now:    time.Now,
	}
}

// Reserve prices every store basket in the cart and creates one unpaid
// reservation per basket, keyed by reservation ID. A user may hold at most
// one active reservation set: reserving while one exists fails with
// ErrAlreadyReserved, which also makes concurrent Reserve calls for the
// same user mutually exclusive.
func (m *Manager) Reserve(ctx context.Context, userID string, c *cart.Cart) (map[string]*Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, err := m.repo.FindByUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "load active reservations")
	}
	if len(existing) > 0 {
		return nil, ErrAlreadyReserved
	}

	created := make(map[string]*Reservation, len(c.Baskets))
	createdAt := m.now()
	for storeID, basket := range c.Baskets {
		if len(basket.Lines) == 0 {
			continue
		}
		quote, err := m.pricer.PriceBasket(ctx, storeID, basket.Lines)
		if err != nil {
			return nil, errors.Wrapf(err, "price basket for store %s", storeID)
		}

		lines := make(map[string]int, len(basket.Lines))
		for _, line := range basket.Lines {
			lines[line.ProductID] += line.Quantity
		}
		r := &Reservation{
			ID:         uuid.New().String(),
			UserID:     userID,
			StoreID:    storeID,
			Lines:      lines,
			TotalPrice: quote.Total,
			Paid:       false,
			CreatedAt:  createdAt,
		}
		if err := m.repo.Save(ctx, r); err != nil {
			return nil, errors.Wrapf(err, "save reservation for store %s", storeID)
		}
		created[r.ID] = r.Clone()

		m.lg.Debug("reservation created",
			zap.String("reservation_id", r.ID),
			zap.String("user_id", userID),
			zap.String("store_id", storeID),
			zap.String("total", quote.Total.String()),
		)
	}

	return created, nil
}

// FindActive returns copies of the user's active reservations.
func (m *Manager) FindActive(ctx context.Context, userID string) ([]*Reservation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	held, err := m.repo.FindByUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "load active reservations")
	}
	out := make([]*Reservation, len(held))
	for i, r := range held {
		out[i] = r.Clone()
	}
	return out, nil
}

// MarkPaid transitions a reservation to paid and removes it from the active
// set, returning the paid copy; ownership passes to the caller, which is
// expected to turn it into a ledger transaction. A reservation that is not
// in the active set fails with ErrNotFound. There is no reverse transition.
func (m *Manager) MarkPaid(ctx context.Context, reservationID string) (*Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, err := m.repo.Get(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	r.Paid = true
	if err := m.repo.Delete(ctx, r.UserID, r.ID); err != nil {
		return nil, errors.Wrap(err, "remove paid reservation from active set")
	}

	m.lg.Debug("reservation paid",
		zap.String("reservation_id", r.ID),
		zap.String("user_id", r.UserID),
	)
	return r.Clone(), nil
}

// Cancel destroys an active reservation. Cancelling an unknown or already
// cancelled reservation reports ErrNotFound; callers rolling back a
// multi-reservation purchase treat that as acceptable.
func (m *Manager) Cancel(ctx context.Context, userID, reservationID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.repo.Delete(ctx, userID, reservationID); err != nil {
		return err
	}
	m.lg.Debug("reservation cancelled",
		zap.String("reservation_id", reservationID),
		zap.String("user_id", userID),
	)
	return nil
}
