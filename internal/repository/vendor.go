package repository

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nordmarket/backend/internal/domain/vendor"
)

const (
	getVendorSQL   = `SELECT id, name, slug, status, created_at FROM vendors WHERE id = $1`
	listVendorsSQL = `SELECT id, name, slug, status, created_at FROM vendors ORDER BY created_at, id`
)

var _ vendor.Repository = (*VendorRepository)(nil)

// VendorRepository implements vendor.Repository backed by PostgreSQL.
type VendorRepository struct {
	pool *pgxpool.Pool
}

// NewVendorRepository returns a VendorRepository using the given pool.
func NewVendorRepository(pool *pgxpool.Pool) *VendorRepository {
	return &VendorRepository{pool: pool}
}

// GetByID returns one vendor or vendor.ErrNotFound.
func (r *VendorRepository) GetByID(ctx context.Context, id uuid.UUID) (*vendor.Vendor, error) {
	var v vendor.Vendor
	err := r.pool.QueryRow(ctx, getVendorSQL, id).Scan(&v.ID, &v.Name, &v.Slug, &v.Status, &v.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, vendor.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get vendor %s", id)
	}
	return &v, nil
}

// List returns all vendors in creation order.
func (r *VendorRepository) List(ctx context.Context) ([]vendor.Vendor, error) {
	rows, err := r.pool.Query(ctx, listVendorsSQL)
	if err != nil {
		return nil, errors.Wrap(err, "list vendors")
	}
	defer rows.Close()

	var out []vendor.Vendor
	for rows.Next() {
		var v vendor.Vendor
		if err := rows.Scan(&v.ID, &v.Name, &v.Slug, &v.Status, &v.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scan vendor")
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
