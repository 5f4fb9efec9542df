// Package cart holds the shopping cart and the vendor splitter used by
// checkout. A cart is owned by exactly one user and created lazily on the
// first item add; items are unique per (cart, product) and adding an
// existing product increments its quantity.
package cart

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nordmarket/backend/internal/domain/product"
)

// ErrInvalidQuantity is returned when an item quantity is below 1.
var ErrInvalidQuantity = errors.New("quantity must be at least 1")

// Item is a cart line: the product joined in from the catalog plus the
// quantity the user picked.
type Item struct {
	Product  product.Product
	Quantity int
}

// Subtotal returns price * quantity for this line at current catalog price.
func (i Item) Subtotal() decimal.Decimal {
	return i.Product.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Cart is the user's active cart with catalog data joined in.
type Cart struct {
	ID     uuid.UUID
	UserID uuid.UUID
	Items  []Item
}

// Subtotal returns the sum of line subtotals across the whole cart.
func (c Cart) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, item := range c.Items {
		sum = sum.Add(item.Subtotal())
	}
	return sum
}

// Repository defines persistence operations for carts. Get returns a cart
// with zero items (not an error) when the user has no cart yet.
type Repository interface {
	Get(ctx context.Context, userID uuid.UUID) (*Cart, error)
	AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int) error
	RemoveItem(ctx context.Context, userID, productID uuid.UUID) (bool, error)
}
