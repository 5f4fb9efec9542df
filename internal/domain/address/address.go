// Package address holds the delivery address reference data consumed by
// checkout.
package address

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
)

// ErrNotFound is returned when an address does not exist or does not belong
// to the requesting user.
var ErrNotFound = errors.New("address not found")

// Address is a user's delivery address. Country is ISO 3166-1 alpha-2.
type Address struct {
	ID       uuid.UUID
	UserID   uuid.UUID
	Line1    string
	City     string
	Country  string
	Postcode string
	Default  bool
}

// Repository defines read operations for addresses.
type Repository interface {
	// GetForUser returns the address only if it belongs to userID.
	GetForUser(ctx context.Context, id, userID uuid.UUID) (*Address, error)
}
