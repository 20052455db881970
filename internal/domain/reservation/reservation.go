// Package reservation holds the stock reservation entity and the manager
// that owns each user's active reservation set during checkout.
package reservation

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Manager errors.
var (
	// ErrNotFound is returned when operating on a reservation that is not
	// in the active set (unknown, already cancelled, or already committed).
	ErrNotFound = errors.New("reservation not found")
	// ErrAlreadyReserved is returned when a user who already holds active
	// reservations attempts to reserve again. The existing set must be paid
	// or cancelled first.
	ErrAlreadyReserved = errors.New("user already has active reservations")
)

// Reservation is an exclusive hold on priced cart contents for one store
// basket during a checkout attempt. It lives in the active set until it is
// either cancelled or paid; a paid reservation leaves the active set and
// becomes a transaction.
type Reservation struct {
	ID         string
	UserID     string
	StoreID    string
	Lines      map[string]int
	TotalPrice decimal.Decimal
	Paid       bool
	CreatedAt  time.Time
}

// Clone returns a deep copy, so callers cannot mutate managed state.
func (r *Reservation) Clone() *Reservation {
	lines := make(map[string]int, len(r.Lines))
	for id, qty := range r.Lines {
		lines[id] = qty
	}
	out := *r
	out.Lines = lines
	return &out
}

// Repository is the persistence contract for the active reservation set,
// keyed by the owning user.
type Repository interface {
	Save(ctx context.Context, r *Reservation) error
	Get(ctx context.Context, reservationID string) (*Reservation, error)
	FindByUser(ctx context.Context, userID string) ([]*Reservation, error)
	Delete(ctx context.Context, userID, reservationID string) error
}
