package pricing

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ShippingCalculator resolves the shipping cost for a destination.
type ShippingCalculator struct {
	repo Repository
}

// NewShippingCalculator creates a ShippingCalculator over the given
// reference data.
func NewShippingCalculator(repo Repository) *ShippingCalculator {
	return &ShippingCalculator{repo: repo}
}

// Cost returns the shipping cost for an order subtotal shipped to country
// via the named method. The free-over threshold is inclusive: a subtotal
// equal to it ships free. Fails with ErrNoZoneForCountry or
// ErrMethodNotOffered when the destination cannot be served.
func (c *ShippingCalculator) Cost(ctx context.Context, subtotal decimal.Decimal, country, methodName string) (decimal.Decimal, error) {
	methods, err := c.repo.ShippingMethodsByCountry(ctx, country)
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "shipping methods")
	}

	for _, m := range methods {
		if !m.Active || m.Name != methodName {
			continue
		}
		if m.FreeOver != nil && subtotal.GreaterThanOrEqual(*m.FreeOver) {
			return decimal.Zero, nil
		}
		return m.Cost, nil
	}

	return decimal.Zero, ErrMethodNotOffered
}
