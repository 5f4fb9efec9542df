// Package coupon implements coupon eligibility and discount calculation.
// Usage is derived by counting recorded usages, never by decrementing a
// counter on the coupon row, so concurrent checkouts cannot lose updates.
package coupon

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DiscountType enumerates the supported coupon discount strategies.
type DiscountType string

const (
	// DiscountFixed subtracts a fixed amount, capped at what is owed.
	DiscountFixed DiscountType = "fixed"
	// DiscountPercentage subtracts a percentage of the order amount.
	DiscountPercentage DiscountType = "percentage"
)

// ErrNotFound is returned when a coupon code is unknown.
var ErrNotFound = errors.New("coupon not found")

// InvalidError is an expected business rejection of a coupon. The reason is
// surfaced verbatim to the caller.
type InvalidError struct {
	Reason string
}

func (e *InvalidError) Error() string {
	return fmt.Sprintf("coupon invalid: %s", e.Reason)
}

// Coupon is a platform-wide discount rule.
type Coupon struct {
	ID             uuid.UUID
	Code           string
	DiscountType   DiscountType
	DiscountValue  decimal.Decimal
	MaxDiscount    *decimal.Decimal
	MinOrderAmount decimal.Decimal
	ValidFrom      *time.Time
	ValidUntil     *time.Time
	UsageLimit     int // 0 = unlimited
	PerUserLimit   int // 0 = unlimited
	Active         bool
}

// Usage is one recorded application of a coupon to an order. Append-only:
// it is both the audit trail and the source of truth for limit counting.
type Usage struct {
	ID             uuid.UUID
	CouponID       uuid.UUID
	UserID         uuid.UUID
	OrderID        uuid.UUID
	DiscountAmount decimal.Decimal
	CreatedAt      time.Time
}

// Repository provides coupon lookup and usage counting.
type Repository interface {
	FindByCode(ctx context.Context, code string) (*Coupon, error)
	CountUsage(ctx context.Context, couponID uuid.UUID) (int, error)
	CountUserUsage(ctx context.Context, couponID, userID uuid.UUID) (int, error)
}
