package coupon

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Validator checks whether a coupon may be applied by a user to an order of
// the given amount.
type Validator interface {
	Validate(ctx context.Context, c *Coupon, userID uuid.UUID, orderAmount decimal.Decimal) error
}

// RepoValidator validates coupons against usage counts from a Repository.
type RepoValidator struct {
	repo Repository
	now  func() time.Time
}

// NewRepoValidator creates a RepoValidator backed by the given Repository.
func NewRepoValidator(repo Repository) *RepoValidator {
	return &RepoValidator{repo: repo, now: time.Now}
}

// Validate runs the eligibility checks in a fixed order and short-circuits
// on the first failure, so rejection reasons are deterministic:
// active, validity window, minimum order amount, global usage limit,
// per-user limit. Business rejections are *InvalidError; anything else is
// an infrastructure failure.
func (v *RepoValidator) Validate(ctx context.Context, c *Coupon, userID uuid.UUID, orderAmount decimal.Decimal) error {
	if !c.Active {
		return &InvalidError{Reason: "not active"}
	}

	now := v.now()
	if c.ValidFrom != nil && now.Before(*c.ValidFrom) {
		return &InvalidError{Reason: "expired"}
	}
	if c.ValidUntil != nil && now.After(*c.ValidUntil) {
		return &InvalidError{Reason: "expired"}
	}

	if orderAmount.LessThan(c.MinOrderAmount) {
		return &InvalidError{Reason: fmt.Sprintf("minimum order amount is %s", c.MinOrderAmount.StringFixed(2))}
	}

	if c.UsageLimit > 0 {
		used, err := v.repo.CountUsage(ctx, c.ID)
		if err != nil {
			return errors.Wrap(err, "count usage")
		}
		if used >= c.UsageLimit {
			return &InvalidError{Reason: "usage limit reached"}
		}
	}

	if c.PerUserLimit > 0 {
		used, err := v.repo.CountUserUsage(ctx, c.ID, userID)
		if err != nil {
			return errors.Wrap(err, "count user usage")
		}
		if used >= c.PerUserLimit {
			return &InvalidError{Reason: "already used"}
		}
	}

	return nil
}
