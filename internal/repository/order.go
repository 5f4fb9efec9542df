package repository

import (
	"context"
	"sort"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nordmarket/backend/internal/domain/coupon"
	"github.com/nordmarket/backend/internal/domain/order"
)

const (
	// Conditional decrement: zero rows affected means the product either
	// vanished or has too little stock, and the settlement must roll back.
	decrementStockSQL = `UPDATE products SET stock = stock - $2 WHERE id = $1 AND stock >= $2`

	restoreStockSQL = `
UPDATE products AS p
SET stock = p.stock + oi.quantity
FROM order_items AS oi
WHERE oi.order_id = $1 AND oi.product_id = p.id`

	lockCouponSQL = `SELECT id FROM coupons WHERE id = $1 FOR UPDATE`

	insertOrderSQL = `
INSERT INTO orders (id, order_number, user_id, vendor_id, address_id, status,
                    subtotal, shipping_cost, tax_amount, discount_amount, total,
                    coupon_id, notes, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $14)`

	insertOrderItemSQL = `
INSERT INTO order_items (id, order_id, product_id, product_name, quantity, price, subtotal)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

	insertCouponUsageSQL = `
INSERT INTO coupon_usages (id, coupon_id, user_id, order_id, discount_amount)
VALUES ($1, $2, $3, $4, $5)`

	deleteCouponUsageSQL = `DELETE FROM coupon_usages WHERE order_id = $1`

	clearCartItemsSQL = `DELETE FROM cart_items WHERE cart_id = $1`

	orderColumns = `id, order_number, user_id, vendor_id, address_id, status,
       subtotal, shipping_cost, tax_amount, discount_amount, total,
       coupon_id, tracking_number, admin_note, notes, created_at, updated_at`

	getOrderSQL = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	getOrderForUpdateSQL = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 FOR UPDATE`

	listOrdersByUserSQL = `SELECT ` + orderColumns + `
FROM orders WHERE user_id = $1 ORDER BY created_at DESC, id`

	listOrdersByVendorSQL = `SELECT ` + orderColumns + `
FROM orders WHERE vendor_id = $1 ORDER BY created_at DESC, id`

	listAllOrdersSQL = `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at DESC, id`

	getOrderItemsSQL = `
SELECT id, order_id, product_id, product_name, quantity, price, subtotal
FROM order_items WHERE order_id = $1 ORDER BY product_id`

	// COALESCE/NULLIF keep the stored value when the caller passes "".
	// The status guard makes the check-then-act of the service safe: a
	// transition validated against a stale read matches zero rows instead
	// of overwriting whatever won the race.
	updateOrderStatusSQL = `
UPDATE orders
SET status          = $3,
    tracking_number = COALESCE(NULLIF($4, ''), tracking_number),
    admin_note      = COALESCE(NULLIF($5, ''), admin_note),
    updated_at      = now()
WHERE id = $1 AND status = $2`

	getOrderStatusSQL = `SELECT status FROM orders WHERE id = $1`

	cancelOrderSQL = `UPDATE orders SET status = $2, updated_at = now() WHERE id = $1`
)

var _ order.Store = (*OrderStore)(nil)

// OrderStore implements order.Store over PostgreSQL. Settle and Cancel run
// inside a single transaction so stock, orders, coupon usage, and cart state
// change together or not at all.
type OrderStore struct {
	pool *pgxpool.Pool
}

// NewOrderStore returns an OrderStore using the given pool.
func NewOrderStore(pool *pgxpool.Pool) *OrderStore {
	return &OrderStore{pool: pool}
}

// Settle commits one checkout. Stock rows are updated in ascending product
// ID order so concurrent settlements touching the same products never
// deadlock; the losing transaction fails on the conditional decrement
// instead.
func (s *OrderStore) Settle(ctx context.Context, set *order.Settlement) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "begin settlement")
	}
	defer rollback(ctx, tx)

	if err := decrementStock(ctx, tx, set.Orders); err != nil {
		return err
	}

	if set.Coupon != nil {
		if err := recheckCouponLimits(ctx, tx, set); err != nil {
			return err
		}
	}

	for _, o := range set.Orders {
		if err := insertOrder(ctx, tx, o); err != nil {
			return err
		}
	}

	if set.Usage != nil {
		u := set.Usage
		_, err := tx.Exec(ctx, insertCouponUsageSQL, u.ID, u.CouponID, u.UserID, u.OrderID, u.DiscountAmount)
		if err != nil {
			return errors.Wrap(err, "insert coupon usage")
		}
	}

	if _, err := tx.Exec(ctx, clearCartItemsSQL, set.CartID); err != nil {
		return errors.Wrap(err, "clear cart")
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, "commit settlement")
	}
	return nil
}

type stockClaim struct {
	productID   uuid.UUID
	productName string
	quantity    int
}

func decrementStock(ctx context.Context, tx pgx.Tx, orders []*order.Order) error {
	byProduct := make(map[uuid.UUID]*stockClaim)
	for _, o := range orders {
		for _, it := range o.Items {
			if c, ok := byProduct[it.ProductID]; ok {
				c.quantity += it.Quantity
				continue
			}
			byProduct[it.ProductID] = &stockClaim{
				productID:   it.ProductID,
				productName: it.ProductName,
				quantity:    it.Quantity,
			}
		}
	}

	claims := make([]*stockClaim, 0, len(byProduct))
	for _, c := range byProduct {
		claims = append(claims, c)
	}
	sort.Slice(claims, func(i, j int) bool {
		return claims[i].productID.String() < claims[j].productID.String()
	})

	for _, c := range claims {
		tag, err := tx.Exec(ctx, decrementStockSQL, c.productID, c.quantity)
		if err != nil {
			return errors.Wrapf(err, "decrement stock for %s", c.productID)
		}
		if tag.RowsAffected() == 0 {
			return &order.InsufficientStockError{
				ProductID:   c.productID,
				ProductName: c.productName,
			}
		}
	}
	return nil
}

// recheckCouponLimits revalidates usage limits under a row lock on the
// coupon, closing the window between the pre-checkout validation and the
// usage insert.
func recheckCouponLimits(ctx context.Context, tx pgx.Tx, set *order.Settlement) error {
	c := set.Coupon

	var locked uuid.UUID
	if err := tx.QueryRow(ctx, lockCouponSQL, c.ID).Scan(&locked); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return coupon.ErrNotFound
		}
		return errors.Wrap(err, "lock coupon")
	}

	if c.UsageLimit > 0 {
		var used int
		if err := tx.QueryRow(ctx, countUsageSQL, c.ID).Scan(&used); err != nil {
			return errors.Wrap(err, "count coupon usage")
		}
		if used >= c.UsageLimit {
			return &coupon.InvalidError{Reason: "usage limit reached"}
		}
	}

	if c.PerUserLimit > 0 && set.Usage != nil {
		var used int
		if err := tx.QueryRow(ctx, countUserUsageSQL, c.ID, set.Usage.UserID).Scan(&used); err != nil {
			return errors.Wrap(err, "count user coupon usage")
		}
		if used >= c.PerUserLimit {
			return &coupon.InvalidError{Reason: "already used"}
		}
	}
	return nil
}

func insertOrder(ctx context.Context, tx pgx.Tx, o *order.Order) error {
	_, err := tx.Exec(ctx, insertOrderSQL,
		o.ID, o.OrderNumber, o.UserID, o.VendorID, o.AddressID, o.Status,
		o.Subtotal, o.ShippingCost, o.TaxAmount, o.DiscountAmount, o.Total,
		o.CouponID, o.Notes, o.CreatedAt,
	)
	if err != nil {
		return errors.Wrapf(err, "insert order %s", o.OrderNumber)
	}

	for _, it := range o.Items {
		_, err := tx.Exec(ctx, insertOrderItemSQL,
			it.ID, o.ID, it.ProductID, it.ProductName, it.Quantity, it.Price, it.Subtotal,
		)
		if err != nil {
			return errors.Wrapf(err, "insert order item for %s", it.ProductID)
		}
	}
	return nil
}

// GetByID returns an order with its items or order.ErrNotFound.
func (s *OrderStore) GetByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	o, err := scanOrder(s.pool.QueryRow(ctx, getOrderSQL, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get order %s", id)
	}

	rows, err := s.pool.Query(ctx, getOrderItemsSQL, id)
	if err != nil {
		return nil, errors.Wrap(err, "get order items")
	}
	defer rows.Close()

	for rows.Next() {
		var it order.Item
		err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductName, &it.Quantity, &it.Price, &it.Subtotal)
		if err != nil {
			return nil, errors.Wrap(err, "scan order item")
		}
		o.Items = append(o.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return o, nil
}

// ListByUser returns a user's orders, newest first, without items.
func (s *OrderStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]order.Order, error) {
	return s.listOrders(ctx, listOrdersByUserSQL, userID)
}

// ListByVendor returns a vendor's orders, newest first, without items.
func (s *OrderStore) ListByVendor(ctx context.Context, vendorID uuid.UUID) ([]order.Order, error) {
	return s.listOrders(ctx, listOrdersByVendorSQL, vendorID)
}

// ListAll returns every order, newest first, without items.
func (s *OrderStore) ListAll(ctx context.Context) ([]order.Order, error) {
	return s.listOrders(ctx, listAllOrdersSQL)
}

func (s *OrderStore) listOrders(ctx context.Context, query string, args ...any) ([]order.Order, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	defer rows.Close()

	var out []order.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan order")
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

// UpdateStatus persists a non-cancelling transition, guarded on the status
// the caller validated against. Zero rows affected means the order vanished
// or its status moved since that read; the re-read tells the two apart.
func (s *OrderStore) UpdateStatus(ctx context.Context, id uuid.UUID, from, to order.Status, trackingNumber, adminNote string) error {
	tag, err := s.pool.Exec(ctx, updateOrderStatusSQL, id, from, to, trackingNumber, adminNote)
	if err != nil {
		return errors.Wrapf(err, "update order %s status", id)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var current order.Status
	if err := s.pool.QueryRow(ctx, getOrderStatusSQL, id).Scan(&current); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return order.ErrNotFound
		}
		return errors.Wrapf(err, "reread order %s status", id)
	}
	return &order.InvalidTransitionError{From: current, To: to}
}

// Cancel transitions the order to cancelled and restores the stock its items
// consumed. The status is re-read under lock so two concurrent cancellations
// cannot restore stock twice.
func (s *OrderStore) Cancel(ctx context.Context, id uuid.UUID, releaseCoupon bool) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "begin cancel")
	}
	defer rollback(ctx, tx)

	o, err := scanOrder(tx.QueryRow(ctx, getOrderForUpdateSQL, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return order.ErrNotFound
		}
		return errors.Wrapf(err, "lock order %s", id)
	}

	if !o.Status.CanTransitionTo(order.StatusCancelled) {
		return &order.InvalidTransitionError{From: o.Status, To: order.StatusCancelled}
	}

	if _, err := tx.Exec(ctx, cancelOrderSQL, id, order.StatusCancelled); err != nil {
		return errors.Wrap(err, "set order cancelled")
	}

	if _, err := tx.Exec(ctx, restoreStockSQL, id); err != nil {
		return errors.Wrap(err, "restore stock")
	}

	if releaseCoupon && o.CouponID != nil {
		if _, err := tx.Exec(ctx, deleteCouponUsageSQL, id); err != nil {
			return errors.Wrap(err, "release coupon usage")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, "commit cancel")
	}
	return nil
}

func scanOrder(row pgx.Row) (*order.Order, error) {
	var o order.Order
	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.UserID, &o.VendorID, &o.AddressID, &o.Status,
		&o.Subtotal, &o.ShippingCost, &o.TaxAmount, &o.DiscountAmount, &o.Total,
		&o.CouponID, &o.TrackingNumber, &o.AdminNote, &o.Notes, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}
