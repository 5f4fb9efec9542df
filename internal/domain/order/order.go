// Package order implements the checkout/settlement core: splitting a cart
// into per-vendor orders, pricing them, committing stock and coupon usage
// atomically, and governing the post-creation status lifecycle.
package order

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nordmarket/backend/internal/domain/coupon"
)

// Expected business rejections. These are values, not panics: the handler
// layer maps them to client-facing statuses.
var (
	ErrEmptyCart           = errors.New("cart is empty")
	ErrAddressNotFound     = errors.New("address not found")
	ErrDeliveryUnavailable = errors.New("delivery is not available for the destination country")
	ErrShippingUnavailable = errors.New("shipping is not available for this order")
	ErrNotFound            = errors.New("order not found")
)

// InsufficientStockError indicates a settlement would drive a product's
// stock below zero. The whole checkout is rolled back when it occurs.
type InsufficientStockError struct {
	ProductID   uuid.UUID
	ProductName string
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s", e.ProductID)
}

// InvalidTransitionError indicates a disallowed status change. It is a
// client error and is never silently corrected.
type InvalidTransitionError struct {
	From, To Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition %s -> %s", e.From, e.To)
}

// Item is an order line. Price and Subtotal are snapshots taken at
// settlement; they are never recomputed from the live catalog.
type Item struct {
	ID          uuid.UUID
	OrderID     uuid.UUID
	ProductID   uuid.UUID
	ProductName string
	Quantity    int
	Price       decimal.Decimal
	Subtotal    decimal.Decimal
}

// Order is one vendor-scoped settled order. VendorID is nil for
// platform-fulfilled orders. The money fields are frozen at creation and
// always satisfy Total = Subtotal + ShippingCost + TaxAmount - DiscountAmount
// (clamped at zero).
type Order struct {
	ID             uuid.UUID
	OrderNumber    string
	UserID         uuid.UUID
	VendorID       *uuid.UUID
	AddressID      uuid.UUID
	Status         Status
	Subtotal       decimal.Decimal
	ShippingCost   decimal.Decimal
	TaxAmount      decimal.Decimal
	DiscountAmount decimal.Decimal
	Total          decimal.Decimal
	CouponID       *uuid.UUID
	TrackingNumber string
	AdminNote      string
	Notes          string
	Items          []Item
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Settlement is the unit committed by Store.Settle: every order of one
// checkout plus the optional coupon application, all-or-nothing.
type Settlement struct {
	CartID uuid.UUID
	Orders []*Order
	// Coupon, when set, must have its usage limits re-validated under lock
	// immediately before Usage is inserted.
	Coupon *coupon.Coupon
	Usage  *coupon.Usage
}

// Store is the persistence boundary of the order core. Settle and Cancel
// are transactional: on error no stock, order, usage, or cart state changes.
type Store interface {
	// Settle decrements stock for every order item (failing with
	// *InsufficientStockError if any product would go negative), inserts the
	// orders and items, records the coupon usage, and clears the cart.
	Settle(ctx context.Context, s *Settlement) error

	GetByID(ctx context.Context, id uuid.UUID) (*Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]Order, error)
	ListByVendor(ctx context.Context, vendorID uuid.UUID) ([]Order, error)
	ListAll(ctx context.Context) ([]Order, error)

	// UpdateStatus persists a non-cancelling transition. The write is
	// guarded on from being the order's current status, so a transition
	// racing a concurrent change (most importantly a cancel, which restores
	// stock) fails with *InvalidTransitionError instead of resurrecting the
	// order. Empty trackingNumber and adminNote leave the stored values
	// untouched.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status, trackingNumber, adminNote string) error

	// Cancel marks the order cancelled and restores stock for every item in
	// one transaction. When releaseCoupon is true, the usage row recorded
	// against this order is deleted so the coupon becomes available again.
	// A checkout's single usage row lives on its first order, so cancelling
	// a sibling vendor order of that checkout never frees the coupon.
	Cancel(ctx context.Context, id uuid.UUID, releaseCoupon bool) error
}
