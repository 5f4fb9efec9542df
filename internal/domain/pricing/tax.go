package pricing

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// TaxCalculator resolves the tax amount for a destination.
type TaxCalculator struct {
	repo Repository
	now  func() time.Time
}

// NewTaxCalculator creates a TaxCalculator over the given reference data.
func NewTaxCalculator(repo Repository) *TaxCalculator {
	return &TaxCalculator{repo: repo, now: time.Now}
}

// Amount returns subtotal multiplied by the most recently effective rate of
// the tax zone covering country, rounded to 2 decimal places. A country with
// no tax jurisdiction yields zero, not an error.
func (c *TaxCalculator) Amount(ctx context.Context, subtotal decimal.Decimal, country string) (decimal.Decimal, error) {
	rates, err := c.repo.TaxRatesByCountry(ctx, country)
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "tax rates")
	}

	rate, ok := effectiveRate(rates, c.now())
	if !ok {
		return decimal.Zero, nil
	}

	return subtotal.Mul(rate.Rate).Round(2), nil
}

// effectiveRate picks the active rate in effect at asOf. Ties on overlapping
// windows go to the latest start date.
func effectiveRate(rates []TaxRate, asOf time.Time) (TaxRate, bool) {
	var best TaxRate
	found := false
	for _, r := range rates {
		if !r.Active || r.StartDate.After(asOf) {
			continue
		}
		if r.EndDate != nil && r.EndDate.Before(asOf) {
			continue
		}
		if !found || r.StartDate.After(best.StartDate) {
			best = r
			found = true
		}
	}
	return best, found
}
