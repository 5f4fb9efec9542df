// Package pricing computes shipping cost and tax amount from reference data.
// The calculators are deterministic: their only I/O is reference-data lookup,
// and all mutation happens elsewhere.
package pricing

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	// ErrNoZoneForCountry is returned when no shipping zone covers a country.
	ErrNoZoneForCountry = errors.New("no shipping zone for country")
	// ErrMethodNotOffered is returned when a zone has no active shipping
	// method with the requested name.
	ErrMethodNotOffered = errors.New("shipping method not offered in zone")
)

// ShippingMethod is one way of delivering to a zone. FreeOver, when set,
// makes shipping free for subtotals at or above the threshold.
type ShippingMethod struct {
	ID       uuid.UUID
	ZoneID   uuid.UUID
	Name     string
	Cost     decimal.Decimal
	FreeOver *decimal.Decimal
	Active   bool
}

// TaxRate is a zone's tax rate effective between StartDate and EndDate
// (nil EndDate = open-ended). Rate is a fraction, e.g. 0.20 for 20%.
type TaxRate struct {
	ID        uuid.UUID
	ZoneID    uuid.UUID
	Rate      decimal.Decimal
	StartDate time.Time
	EndDate   *time.Time
	Active    bool
}

// Repository provides reference-data lookups for the calculators. All data
// is read-only during checkout.
type Repository interface {
	// DeliverableCountry reports whether any shipping zone covers country.
	DeliverableCountry(ctx context.Context, country string) (bool, error)
	// ShippingMethodsByCountry returns the active methods of the zone
	// covering country, or ErrNoZoneForCountry.
	ShippingMethodsByCountry(ctx context.Context, country string) ([]ShippingMethod, error)
	// TaxRatesByCountry returns the active rates of the tax zone covering
	// country. An empty slice (no zone, or no rates) is not an error.
	TaxRatesByCountry(ctx context.Context, country string) ([]TaxRate, error)
}
