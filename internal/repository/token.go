package repository

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nordmarket/backend/internal/domain/auth"
)

// Vendor status is joined in so authorization never needs a second query;
// COALESCE keeps the scan simple for users without a vendor.
const principalByTokenHashSQL = `
SELECT u.id, u.role, u.vendor_id, COALESCE(v.status, '')
FROM api_tokens t
JOIN users u ON u.id = t.user_id
LEFT JOIN vendors v ON v.id = u.vendor_id
WHERE t.token_hash = $1`

var _ auth.TokenRepository = (*TokenRepository)(nil)

// TokenRepository resolves API token hashes to principals.
type TokenRepository struct {
	pool *pgxpool.Pool
}

// NewTokenRepository returns a TokenRepository using the given pool.
func NewTokenRepository(pool *pgxpool.Pool) *TokenRepository {
	return &TokenRepository{pool: pool}
}

// PrincipalByTokenHash returns the principal the hashed token authenticates,
// or auth.ErrTokenNotFound.
func (r *TokenRepository) PrincipalByTokenHash(ctx context.Context, hash string) (*auth.Principal, error) {
	var p auth.Principal
	err := r.pool.QueryRow(ctx, principalByTokenHashSQL, hash).
		Scan(&p.UserID, &p.Role, &p.VendorID, &p.VendorStatus)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, auth.ErrTokenNotFound
		}
		return nil, errors.Wrap(err, "resolve token")
	}
	return &p, nil
}
