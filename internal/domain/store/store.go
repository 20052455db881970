package store

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when a requested store does not exist.
var ErrNotFound = errors.New("store not found")

// Store describes a marketplace store and the users who own it.
type Store struct {
	ID       string
	Name     string
	OwnerIDs []string
}

// Directory defines read operations over registered stores.
type Directory interface {
	GetByID(ctx context.Context, id string) (*Store, error)
}
