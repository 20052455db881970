// Package memory provides in-memory reference implementations of the
// repository interfaces. Each store guards its maps with a sync.RWMutex
// and returns defensive copies; production deployments swap in the
// postgres and redis implementations without touching the domain packages.
package memory

import (
	"context"
	"sync"

	"github.com/amazonas-market/checkout/internal/domain/reservation"
)

var _ reservation.Repository = (*ReservationStore)(nil)

// ReservationStore keeps the active reservation sets in memory, indexed by
// user and by reservation ID.
type ReservationStore struct {
	mu     sync.RWMutex
	byUser map[string]map[string]*reservation.Reservation
	owner  map[string]string // reservation ID -> user ID
}

// NewReservationStore returns an empty ReservationStore.
func NewReservationStore() *ReservationStore {
	return &ReservationStore{
		byUser: make(map[string]map[string]*reservation.Reservation),
		owner:  make(map[string]string),
	}
}

// Save stores a copy of the reservation in the owner's active set.
func (s *ReservationStore) Save(_ context.Context, r *reservation.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.byUser[r.UserID]
	if !ok {
		set = make(map[string]*reservation.Reservation)
		s.byUser[r.UserID] = set
	}
	set[r.ID] = r.Clone()
	s.owner[r.ID] = r.UserID
	return nil
}

// Get returns a copy of the reservation with the given ID, or
// reservation.ErrNotFound.
func (s *ReservationStore) Get(_ context.Context, reservationID string) (*reservation.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	userID, ok := s.owner[reservationID]
	if !ok {
		return nil, reservation.ErrNotFound
	}
	return s.byUser[userID][reservationID].Clone(), nil
}

// FindByUser returns copies of the user's active reservations.
func (s *ReservationStore) FindByUser(_ context.Context, userID string) ([]*reservation.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	set := s.byUser[userID]
	out := make([]*reservation.Reservation, 0, len(set))
	for _, r := range set {
		out = append(out, r.Clone())
	}
	return out, nil
}

// Delete removes a reservation from the user's active set. Deleting an
// absent reservation fails with reservation.ErrNotFound.
func (s *ReservationStore) Delete(_ context.Context, userID, reservationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.byUser[userID]
	if !ok {
		return reservation.ErrNotFound
	}
	if _, ok := set[reservationID]; !ok {
		return reservation.ErrNotFound
	}
	delete(set, reservationID)
	delete(s.owner, reservationID)
	if len(set) == 0 {
		delete(s.byUser, userID)
	}
	return nil
}
