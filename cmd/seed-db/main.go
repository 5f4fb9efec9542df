// Command seed-db populates a development database with vendors, products,
// shipping and tax zones, coupons, and test users with API tokens.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nordmarket/backend/internal/handler"
	"github.com/nordmarket/backend/internal/repository"
)

func main() {
	var (
		databaseURL string
		pepper      string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&pepper, "api-token-pepper", "", "HMAC pepper for API token hashing (or NM_API_TOKEN_PEPPER env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if pepper == "" {
		pepper = os.Getenv("NM_API_TOKEN_PEPPER")
	}
	if pepper == "" {
		slog.Error("API token pepper is required: set --api-token-pepper or NM_API_TOKEN_PEPPER")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, pepper); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, pepper string) error {
	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	// Vendors must land before products and users reference them.
	steps := []struct {
		name string
		fn   func(context.Context, *pgxpool.Pool) error
	}{
		{"vendors", seedVendors},
		{"products", seedProducts},
		{"shipping", seedShipping},
		{"taxes", seedTaxes},
		{"coupons", seedCoupons},
	}
	for _, step := range steps {
		if err := step.fn(ctx, pool); err != nil {
			return errors.Wrapf(err, "seed %s", step.name)
		}
		slog.Info("seeded", slog.String("what", step.name))
	}

	if err := seedUsers(ctx, pool, pepper); err != nil {
		return errors.Wrap(err, "seed users")
	}
	slog.Info("seeded", slog.String("what", "users"))

	return nil
}

func seedVendors(ctx context.Context, pool *pgxpool.Pool) error {
	vendors := []struct {
		name, slug, status string
	}{
		{"Fjord Furniture", "fjord-furniture", "approved"},
		{"Nordic Textiles", "nordic-textiles", "approved"},
		{"Aurora Ceramics", "aurora-ceramics", "pending"},
	}
	for _, v := range vendors {
		_, err := pool.Exec(ctx,
			`INSERT INTO vendors (name, slug, status) VALUES ($1, $2, $3)
			 ON CONFLICT (slug) DO UPDATE SET name = EXCLUDED.name, status = EXCLUDED.status`,
			v.name, v.slug, v.status)
		if err != nil {
			return errors.Wrapf(err, "vendor %s", v.slug)
		}
	}
	return nil
}

func seedProducts(ctx context.Context, pool *pgxpool.Pool) error {
	products := []struct {
		vendorSlug string // empty = platform-owned
		name       string
		price      string
		stock      int
	}{
		{"fjord-furniture", "Walnut Desk", "450.00", 12},
		{"fjord-furniture", "Oak Bookshelf", "320.00", 8},
		{"nordic-textiles", "Wool Throw", "89.00", 40},
		{"nordic-textiles", "Linen Cushion", "35.00", 100},
		{"", "Gift Card Sleeve", "4.50", 500},
	}
	for _, p := range products {
		// Seed runs are idempotent by (vendor, name).
		var err error
		if p.vendorSlug == "" {
			_, err = pool.Exec(ctx,
				`INSERT INTO products (vendor_id, name, price, stock)
				 SELECT NULL, $1, $2, $3
				 WHERE NOT EXISTS (SELECT 1 FROM products WHERE name = $1 AND vendor_id IS NULL)`,
				p.name, p.price, p.stock)
		} else {
			_, err = pool.Exec(ctx,
				`INSERT INTO products (vendor_id, name, price, stock)
				 SELECT v.id, $2, $3, $4 FROM vendors v WHERE v.slug = $1
				 AND NOT EXISTS (
				     SELECT 1 FROM products p WHERE p.name = $2 AND p.vendor_id = v.id
				 )`,
				p.vendorSlug, p.name, p.price, p.stock)
		}
		if err != nil {
			return errors.Wrapf(err, "product %s", p.name)
		}
	}
	return nil
}

func seedShipping(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
INSERT INTO shipping_zones (name) VALUES ('Nordics'), ('Europe')
ON CONFLICT (name) DO NOTHING;

INSERT INTO shipping_zone_countries (zone_id, country)
SELECT z.id, c.country
FROM shipping_zones z
JOIN (VALUES ('Nordics', 'NO'), ('Nordics', 'SE'), ('Nordics', 'DK'), ('Nordics', 'FI'),
             ('Europe', 'DE'), ('Europe', 'FR'), ('Europe', 'NL')) AS c (zone, country)
  ON c.zone = z.name
ON CONFLICT (country) DO NOTHING;

INSERT INTO shipping_methods (zone_id, name, cost, free_over, is_active)
SELECT z.id, m.name, m.cost::numeric, m.free_over::numeric, true
FROM shipping_zones z
JOIN (VALUES ('Nordics', 'Standard', '5.90', '100.00'),
             ('Nordics', 'Express', '14.90', NULL),
             ('Europe', 'Standard', '12.50', '150.00')) AS m (zone, name, cost, free_over)
  ON m.zone = z.name
ON CONFLICT (zone_id, name) DO UPDATE
  SET cost = EXCLUDED.cost, free_over = EXCLUDED.free_over, is_active = true;
`)
	return err
}

func seedTaxes(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
INSERT INTO tax_zones (name) VALUES ('Norway VAT'), ('EU VAT')
ON CONFLICT (name) DO NOTHING;

INSERT INTO tax_zone_countries (zone_id, country)
SELECT z.id, c.country
FROM tax_zones z
JOIN (VALUES ('Norway VAT', 'NO'),
             ('EU VAT', 'DE'), ('EU VAT', 'FR'), ('EU VAT', 'NL'),
             ('EU VAT', 'SE'), ('EU VAT', 'DK'), ('EU VAT', 'FI')) AS c (zone, country)
  ON c.zone = z.name
ON CONFLICT (country) DO NOTHING;

INSERT INTO tax_rates (zone_id, rate, start_date, is_active)
SELECT z.id, r.rate::numeric, '2020-01-01'::timestamptz, true
FROM tax_zones z
JOIN (VALUES ('Norway VAT', '0.25000'), ('EU VAT', '0.21000')) AS r (zone, rate)
  ON r.zone = z.name
WHERE NOT EXISTS (SELECT 1 FROM tax_rates t WHERE t.zone_id = z.id);
`)
	return err
}

func seedCoupons(ctx context.Context, pool *pgxpool.Pool) error {
	coupons := []struct {
		code, discountType, value string
		maxDiscount               *string
		minOrder                  string
		usageLimit, perUserLimit  int
	}{
		{code: "WELCOME10", discountType: "percentage", value: "10", minOrder: "0", perUserLimit: 1},
		{code: "SPRING20", discountType: "percentage", value: "20", maxDiscount: ptr("50.00"), minOrder: "100", usageLimit: 500},
		{code: "FIVER", discountType: "fixed", value: "5", minOrder: "25"},
	}
	for _, c := range coupons {
		_, err := pool.Exec(ctx,
			`INSERT INTO coupons (code, discount_type, discount_value, max_discount,
			                      min_order_amount, usage_limit, per_user_limit, is_active)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, true)
			 ON CONFLICT (code) DO UPDATE
			   SET discount_type = EXCLUDED.discount_type,
			       discount_value = EXCLUDED.discount_value,
			       max_discount = EXCLUDED.max_discount,
			       min_order_amount = EXCLUDED.min_order_amount,
			       usage_limit = EXCLUDED.usage_limit,
			       per_user_limit = EXCLUDED.per_user_limit,
			       is_active = true`,
			c.code, c.discountType, c.value, c.maxDiscount, c.minOrder, c.usageLimit, c.perUserLimit)
		if err != nil {
			return errors.Wrapf(err, "coupon %s", c.code)
		}
	}
	return nil
}

// seedUsers creates one user per role with a predictable dev token
// ("dev-<role>") and a default address. Tokens are stored hashed.
func seedUsers(ctx context.Context, pool *pgxpool.Pool, pepper string) error {
	users := []struct {
		email, role, vendorSlug, token string
	}{
		{"customer@nordmarket.dev", "customer", "", "dev-customer"},
		{"admin@nordmarket.dev", "admin", "", "dev-admin"},
		{"manager@nordmarket.dev", "manager", "", "dev-manager"},
		{"fjord@nordmarket.dev", "vendor_admin", "fjord-furniture", "dev-fjord"},
	}
	for _, u := range users {
		var err error
		if u.vendorSlug == "" {
			_, err = pool.Exec(ctx,
				`INSERT INTO users (email, role) VALUES ($1, $2)
				 ON CONFLICT (email) DO UPDATE SET role = EXCLUDED.role`,
				u.email, u.role)
		} else {
			_, err = pool.Exec(ctx,
				`INSERT INTO users (email, role, vendor_id)
				 SELECT $1, $2, v.id FROM vendors v WHERE v.slug = $3
				 ON CONFLICT (email) DO UPDATE SET role = EXCLUDED.role, vendor_id = EXCLUDED.vendor_id`,
				u.email, u.role, u.vendorSlug)
		}
		if err != nil {
			return errors.Wrapf(err, "user %s", u.email)
		}

		_, err = pool.Exec(ctx,
			`INSERT INTO api_tokens (user_id, token_hash, name)
			 SELECT u.id, $2, 'dev token' FROM users u WHERE u.email = $1
			 ON CONFLICT (token_hash) DO NOTHING`,
			u.email, handler.HashToken([]byte(pepper), u.token))
		if err != nil {
			return errors.Wrapf(err, "token for %s", u.email)
		}

		slog.Info("seeded user", slog.String("email", u.email), slog.String("token", u.token))
	}

	_, err := pool.Exec(ctx,
		`INSERT INTO addresses (user_id, line1, city, country, postcode, is_default)
		 SELECT u.id, 'Storgata 1', 'Oslo', 'NO', '0155', true
		 FROM users u
		 WHERE u.email = 'customer@nordmarket.dev'
		   AND NOT EXISTS (SELECT 1 FROM addresses a WHERE a.user_id = u.id)`)
	return errors.Wrap(err, "seed address")
}

func ptr(s string) *string { return &s }
