package repository

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nordmarket/backend/internal/domain/address"
)

const getAddressForUserSQL = `SELECT id, user_id, line1, city, country, postcode, is_default
	FROM addresses WHERE id = $1 AND user_id = $2`

var _ address.Repository = (*AddressRepository)(nil)

// AddressRepository implements address.Repository backed by PostgreSQL.
type AddressRepository struct {
	pool *pgxpool.Pool
}

// NewAddressRepository returns an AddressRepository using the given pool.
func NewAddressRepository(pool *pgxpool.Pool) *AddressRepository {
	return &AddressRepository{pool: pool}
}

// GetForUser returns the address only when it belongs to userID; a foreign
// address reads as address.ErrNotFound.
func (r *AddressRepository) GetForUser(ctx context.Context, id, userID uuid.UUID) (*address.Address, error) {
	var a address.Address
	err := r.pool.QueryRow(ctx, getAddressForUserSQL, id, userID).Scan(
		&a.ID, &a.UserID, &a.Line1, &a.City, &a.Country, &a.Postcode, &a.Default,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, address.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get address %s", id)
	}
	return &a, nil
}
