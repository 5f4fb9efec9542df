package pricing

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockPricingRepo struct {
	deliverable bool
	methods     []ShippingMethod
	methodsErr  error
	rates       []TaxRate
	ratesErr    error
}

func (m *mockPricingRepo) DeliverableCountry(_ context.Context, _ string) (bool, error) {
	return m.deliverable, nil
}

func (m *mockPricingRepo) ShippingMethodsByCountry(_ context.Context, _ string) ([]ShippingMethod, error) {
	return m.methods, m.methodsErr
}

func (m *mockPricingRepo) TaxRatesByCountry(_ context.Context, _ string) ([]TaxRate, error) {
	return m.rates, m.ratesErr
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestShippingCalculator_Cost(t *testing.T) {
	standard := ShippingMethod{
		ID:     uuid.New(),
		Name:   "Standard",
		Cost:   dec("4.99"),
		Active: true,
	}
	express := ShippingMethod{
		ID:     uuid.New(),
		Name:   "Express",
		Cost:   dec("14.99"),
		Active: true,
	}
	freeOver := dec("100.00")
	standardFree := standard
	standardFree.FreeOver = &freeOver

	tests := []struct {
		name     string
		repo     *mockPricingRepo
		subtotal decimal.Decimal
		method   string
		want     string
		wantErr  error
	}{
		{
			name:     "plain method cost",
			repo:     &mockPricingRepo{methods: []ShippingMethod{standard, express}},
			subtotal: dec("50.00"),
			method:   "Standard",
			want:     "4.99",
		},
		{
			name:     "named method selected",
			repo:     &mockPricingRepo{methods: []ShippingMethod{standard, express}},
			subtotal: dec("50.00"),
			method:   "Express",
			want:     "14.99",
		},
		{
			name:     "no zone for country",
			repo:     &mockPricingRepo{methodsErr: ErrNoZoneForCountry},
			subtotal: dec("50.00"),
			method:   "Standard",
			wantErr:  ErrNoZoneForCountry,
		},
		{
			name:     "method not offered",
			repo:     &mockPricingRepo{methods: []ShippingMethod{standard}},
			subtotal: dec("50.00"),
			method:   "Drone",
			wantErr:  ErrMethodNotOffered,
		},
		{
			name:     "inactive method not offered",
			repo:     &mockPricingRepo{methods: []ShippingMethod{{Name: "Standard", Cost: dec("4.99"), Active: false}}},
			subtotal: dec("50.00"),
			method:   "Standard",
			wantErr:  ErrMethodNotOffered,
		},
		{
			name:     "free over threshold",
			repo:     &mockPricingRepo{methods: []ShippingMethod{standardFree}},
			subtotal: dec("150.00"),
			method:   "Standard",
			want:     "0",
		},
		{
			name:     "free-over boundary is inclusive",
			repo:     &mockPricingRepo{methods: []ShippingMethod{standardFree}},
			subtotal: dec("100.00"),
			method:   "Standard",
			want:     "0",
		},
		{
			name:     "just under free-over threshold pays",
			repo:     &mockPricingRepo{methods: []ShippingMethod{standardFree}},
			subtotal: dec("99.99"),
			method:   "Standard",
			want:     "4.99",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calc := NewShippingCalculator(tt.repo)
			got, err := calc.Cost(context.Background(), tt.subtotal, "DE", tt.method)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, dec(tt.want).Equal(got), "expected %s, got %s", tt.want, got)
		})
	}
}

func TestTaxCalculator_Amount(t *testing.T) {
	fixedNow := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	old := fixedNow.AddDate(-1, 0, 0)
	recent := fixedNow.AddDate(0, -1, 0)
	future := fixedNow.AddDate(0, 1, 0)
	expired := fixedNow.AddDate(0, -2, 0)

	tests := []struct {
		name     string
		rates    []TaxRate
		subtotal decimal.Decimal
		want     string
	}{
		{
			name:     "no tax jurisdiction yields zero",
			rates:    nil,
			subtotal: dec("100.00"),
			want:     "0",
		},
		{
			name: "single active rate",
			rates: []TaxRate{
				{Rate: dec("0.20"), StartDate: old, Active: true},
			},
			subtotal: dec("100.00"),
			want:     "20.00",
		},
		{
			name: "latest start date wins on overlap",
			rates: []TaxRate{
				{Rate: dec("0.19"), StartDate: old, Active: true},
				{Rate: dec("0.21"), StartDate: recent, Active: true},
			},
			subtotal: dec("100.00"),
			want:     "21.00",
		},
		{
			name: "future rate ignored",
			rates: []TaxRate{
				{Rate: dec("0.19"), StartDate: old, Active: true},
				{Rate: dec("0.25"), StartDate: future, Active: true},
			},
			subtotal: dec("100.00"),
			want:     "19.00",
		},
		{
			name: "ended rate ignored",
			rates: []TaxRate{
				{Rate: dec("0.19"), StartDate: old, EndDate: &expired, Active: true},
			},
			subtotal: dec("100.00"),
			want:     "0",
		},
		{
			name: "inactive rate ignored",
			rates: []TaxRate{
				{Rate: dec("0.19"), StartDate: old, Active: false},
			},
			subtotal: dec("100.00"),
			want:     "0",
		},
		{
			name: "rounds half up to 2dp",
			rates: []TaxRate{
				{Rate: dec("0.15"), StartDate: old, Active: true},
			},
			subtotal: dec("33.33"), // 4.9995 -> 5.00
			want:     "5.00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calc := NewTaxCalculator(&mockPricingRepo{rates: tt.rates})
			calc.now = func() time.Time { return fixedNow }

			got, err := calc.Amount(context.Background(), tt.subtotal, "DE")
			require.NoError(t, err)
			assert.True(t, dec(tt.want).Equal(got), "expected %s, got %s", tt.want, got)
		})
	}
}
