package repository

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nordmarket/backend/internal/domain/coupon"
)

const (
	getCouponByCodeSQL = `SELECT id, code, discount_type, discount_value, max_discount,
		min_order_amount, valid_from, valid_until, usage_limit, per_user_limit, is_active
	FROM coupons WHERE UPPER(code) = UPPER($1)`

	countUsageSQL     = `SELECT COUNT(*) FROM coupon_usages WHERE coupon_id = $1`
	countUserUsageSQL = `SELECT COUNT(*) FROM coupon_usages WHERE coupon_id = $1 AND user_id = $2`
)

var _ coupon.Repository = (*CouponRepository)(nil)

// CouponRepository implements coupon.Repository backed by PostgreSQL.
// Usage counts are derived from coupon_usages rows; the coupons table
// carries no counter to race on.
type CouponRepository struct {
	pool *pgxpool.Pool
}

// NewCouponRepository returns a CouponRepository using the given pool.
func NewCouponRepository(pool *pgxpool.Pool) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// FindByCode looks up a coupon by code, case-insensitively.
// Returns coupon.ErrNotFound when no such code exists.
func (r *CouponRepository) FindByCode(ctx context.Context, code string) (*coupon.Coupon, error) {
	row := r.pool.QueryRow(ctx, getCouponByCodeSQL, code)

	c, err := scanCoupon(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, coupon.ErrNotFound
		}
		return nil, errors.Wrapf(err, "find coupon %q", code)
	}
	return &c, nil
}

// CountUsage returns the number of recorded applications of the coupon.
func (r *CouponRepository) CountUsage(ctx context.Context, couponID uuid.UUID) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, countUsageSQL, couponID).Scan(&n); err != nil {
		return 0, errors.Wrap(err, "count usage")
	}
	return n, nil
}

// CountUserUsage returns the number of applications by one user.
func (r *CouponRepository) CountUserUsage(ctx context.Context, couponID, userID uuid.UUID) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, countUserUsageSQL, couponID, userID).Scan(&n); err != nil {
		return 0, errors.Wrap(err, "count user usage")
	}
	return n, nil
}

func scanCoupon(row pgx.Row) (coupon.Coupon, error) {
	var c coupon.Coupon
	err := row.Scan(
		&c.ID, &c.Code, &c.DiscountType, &c.DiscountValue, &c.MaxDiscount,
		&c.MinOrderAmount, &c.ValidFrom, &c.ValidUntil,
		&c.UsageLimit, &c.PerUserLimit, &c.Active,
	)
	return c, err
}
