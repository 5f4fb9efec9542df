package repository

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nordmarket/backend/internal/domain/pricing"
)

const (
	deliverableSQL = `SELECT EXISTS (SELECT 1 FROM shipping_zone_countries WHERE country = $1)`

	methodsByCountrySQL = `SELECT m.id, m.zone_id, m.name, m.cost, m.free_over, m.is_active
	FROM shipping_methods m
	JOIN shipping_zone_countries zc ON zc.zone_id = m.zone_id
	WHERE zc.country = $1 AND m.is_active
	ORDER BY m.name`

	ratesByCountrySQL = `SELECT r.id, r.zone_id, r.rate, r.start_date, r.end_date, r.is_active
	FROM tax_rates r
	JOIN tax_zone_countries zc ON zc.zone_id = r.zone_id
	WHERE zc.country = $1 AND r.is_active
	ORDER BY r.start_date DESC`
)

var _ pricing.Repository = (*PricingRepository)(nil)

// PricingRepository implements pricing.Repository over the shipping/tax
// reference tables. All reads; checkout never mutates this data.
type PricingRepository struct {
	pool *pgxpool.Pool
}

// NewPricingRepository returns a PricingRepository using the given pool.
func NewPricingRepository(pool *pgxpool.Pool) *PricingRepository {
	return &PricingRepository{pool: pool}
}

// DeliverableCountry reports whether any shipping zone covers the country.
func (r *PricingRepository) DeliverableCountry(ctx context.Context, country string) (bool, error) {
	var ok bool
	if err := r.pool.QueryRow(ctx, deliverableSQL, country).Scan(&ok); err != nil {
		return false, errors.Wrap(err, "check deliverable")
	}
	return ok, nil
}

// ShippingMethodsByCountry returns the active methods of the country's zone,
// or pricing.ErrNoZoneForCountry when no zone covers it.
func (r *PricingRepository) ShippingMethodsByCountry(ctx context.Context, country string) ([]pricing.ShippingMethod, error) {
	var zoned bool
	if err := r.pool.QueryRow(ctx, deliverableSQL, country).Scan(&zoned); err != nil {
		return nil, errors.Wrap(err, "check zone")
	}
	if !zoned {
		return nil, pricing.ErrNoZoneForCountry
	}

	rows, err := r.pool.Query(ctx, methodsByCountrySQL, country)
	if err != nil {
		return nil, errors.Wrap(err, "shipping methods")
	}
	defer rows.Close()

	var out []pricing.ShippingMethod
	for rows.Next() {
		var m pricing.ShippingMethod
		if err := rows.Scan(&m.ID, &m.ZoneID, &m.Name, &m.Cost, &m.FreeOver, &m.Active); err != nil {
			return nil, errors.Wrap(err, "scan shipping method")
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// TaxRatesByCountry returns the active rates of the country's tax zone.
// No zone means no rates, which is valid.
func (r *PricingRepository) TaxRatesByCountry(ctx context.Context, country string) ([]pricing.TaxRate, error) {
	rows, err := r.pool.Query(ctx, ratesByCountrySQL, country)
	if err != nil {
		return nil, errors.Wrap(err, "tax rates")
	}
	defer rows.Close()

	var out []pricing.TaxRate
	for rows.Next() {
		var t pricing.TaxRate
		if err := rows.Scan(&t.ID, &t.ZoneID, &t.Rate, &t.StartDate, &t.EndDate, &t.Active); err != nil {
			return nil, errors.Wrap(err, "scan tax rate")
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
