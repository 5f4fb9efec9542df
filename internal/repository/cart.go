package repository

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nordmarket/backend/internal/domain/cart"
)

const (
	getCartSQL = `SELECT id FROM carts WHERE user_id = $1`

	getCartItemsSQL = `SELECT p.id, p.vendor_id, p.name, p.price, p.stock, ci.quantity
	FROM cart_items ci
	JOIN products p ON p.id = ci.product_id AND p.archived_at IS NULL
	WHERE ci.cart_id = $1
	ORDER BY ci.created_at, p.id`

	ensureCartSQL = `INSERT INTO carts (user_id) VALUES ($1)
	ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
	RETURNING id`

	// Item uniqueness is per (cart, product): re-adding increments quantity.
	upsertCartItemSQL = `INSERT INTO cart_items (cart_id, product_id, quantity)
	VALUES ($1, $2, $3)
	ON CONFLICT (cart_id, product_id) DO UPDATE
	SET quantity = cart_items.quantity + EXCLUDED.quantity`

	removeCartItemSQL = `DELETE FROM cart_items
	WHERE cart_id = (SELECT id FROM carts WHERE user_id = $1) AND product_id = $2`
)

var _ cart.Repository = (*CartRepository)(nil)

// CartRepository implements cart.Repository backed by PostgreSQL. Carts are
// created lazily on the first AddItem.
type CartRepository struct {
	pool *pgxpool.Pool
}

// NewCartRepository returns a CartRepository using the given pool.
func NewCartRepository(pool *pgxpool.Pool) *CartRepository {
	return &CartRepository{pool: pool}
}

// Get loads the user's cart with catalog data joined in. A user without a
// cart gets an empty cart, not an error.
func (r *CartRepository) Get(ctx context.Context, userID uuid.UUID) (*cart.Cart, error) {
	c := &cart.Cart{UserID: userID}

	err := r.pool.QueryRow(ctx, getCartSQL, userID).Scan(&c.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c, nil
		}
		return nil, errors.Wrap(err, "get cart")
	}

	rows, err := r.pool.Query(ctx, getCartItemsSQL, c.ID)
	if err != nil {
		return nil, errors.Wrap(err, "get cart items")
	}
	defer rows.Close()

	for rows.Next() {
		var item cart.Item
		p := &item.Product
		if err := rows.Scan(&p.ID, &p.VendorID, &p.Name, &p.Price, &p.Stock, &item.Quantity); err != nil {
			return nil, errors.Wrap(err, "scan cart item")
		}
		c.Items = append(c.Items, item)
	}
	return c, rows.Err()
}

// AddItem adds quantity of a product to the user's cart, creating the cart
// if needed and incrementing the existing line on conflict.
func (r *CartRepository) AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int) error {
	if quantity < 1 {
		return cart.ErrInvalidQuantity
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "begin")
	}
	defer rollback(ctx, tx)

	var cartID uuid.UUID
	if err := tx.QueryRow(ctx, ensureCartSQL, userID).Scan(&cartID); err != nil {
		return errors.Wrap(err, "ensure cart")
	}

	if _, err := tx.Exec(ctx, upsertCartItemSQL, cartID, productID, quantity); err != nil {
		return errors.Wrap(err, "upsert cart item")
	}

	return tx.Commit(ctx)
}

// RemoveItem deletes a product line from the user's cart and reports whether
// anything was removed.
func (r *CartRepository) RemoveItem(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, removeCartItemSQL, userID, productID)
	if err != nil {
		return false, errors.Wrap(err, "remove cart item")
	}
	return tag.RowsAffected() > 0, nil
}
