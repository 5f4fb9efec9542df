// Package product defines the catalog item and its read operations.
// Stock is mutated only by checkout settlement and order cancellation,
// never by read paths; those mutations live in the settlement store.
package product

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist or has
// been archived.
var ErrNotFound = errors.New("product not found")

// Product represents a catalog item available for purchase.
// VendorID is nil for platform-owned products.
type Product struct {
	ID       uuid.UUID
	VendorID *uuid.UUID
	Name     string
	Price    decimal.Decimal
	Stock    int
}

// Repository defines read operations for the product catalog. Archived
// products are filtered out by every query; callers never see them.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Product, error)
}
