package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nordmarket/backend/internal/domain/address"
	"github.com/nordmarket/backend/internal/domain/auth"
	"github.com/nordmarket/backend/internal/domain/cart"
	"github.com/nordmarket/backend/internal/domain/coupon"
	"github.com/nordmarket/backend/internal/domain/pricing"
)

// ShippingQuoter prices delivery of one vendor order to a country.
type ShippingQuoter interface {
	Cost(ctx context.Context, subtotal decimal.Decimal, country, methodName string) (decimal.Decimal, error)
}

// TaxQuoter computes the tax amount for one vendor order.
type TaxQuoter interface {
	Amount(ctx context.Context, subtotal decimal.Decimal, country string) (decimal.Decimal, error)
}

// DeliveryChecker reports whether a destination country is served at all,
// independent of per-vendor shipping.
type DeliveryChecker interface {
	DeliverableCountry(ctx context.Context, country string) (bool, error)
}

// ServiceConfig holds the checkout policy knobs.
type ServiceConfig struct {
	// DefaultShippingMethod is used when a checkout names no method.
	DefaultShippingMethod string
	// ReleaseCouponOnCancel frees the consumed coupon usage slot when an
	// order is cancelled. Off by default: a cancelled order keeps its
	// coupon spent.
	ReleaseCouponOnCancel bool
}

// Service is the checkout orchestrator and status-machine coordinator. All
// computation happens up front; the Store commits the result atomically.
type Service struct {
	carts     cart.Repository
	addresses address.Repository
	coupons   coupon.Repository
	validator coupon.Validator
	shipping  ShippingQuoter
	taxes     TaxQuoter
	delivery  DeliveryChecker
	store     Store
	cfg       ServiceConfig
	now       func() time.Time
}

// NewService creates the order Service with its collaborators.
func NewService(
	carts cart.Repository,
	addresses address.Repository,
	coupons coupon.Repository,
	validator coupon.Validator,
	shipping ShippingQuoter,
	taxes TaxQuoter,
	delivery DeliveryChecker,
	store Store,
	cfg ServiceConfig,
) *Service {
	if cfg.DefaultShippingMethod == "" {
		cfg.DefaultShippingMethod = "Standard"
	}
	return &Service{
		carts:     carts,
		addresses: addresses,
		coupons:   coupons,
		validator: validator,
		shipping:  shipping,
		taxes:     taxes,
		delivery:  delivery,
		store:     store,
		cfg:       cfg,
		now:       time.Now,
	}
}

// CheckoutRequest is the input to a checkout: the authenticated principal is
// passed separately.
type CheckoutRequest struct {
	AddressID      uuid.UUID
	CouponCode     string
	ShippingMethod string
	Notes          string
}

// CheckoutResult lists the created vendor orders and their combined total.
type CheckoutResult struct {
	Orders      []*Order
	TotalAmount decimal.Decimal
}

// Checkout converts the principal's cart into one order per vendor present
// in it. Preconditions and all pricing run before any mutation; the commit
// is a single all-or-nothing settlement spanning every vendor group.
//
// The coupon, when given, is validated once against the cart-wide subtotal
// and its discount apportioned to vendor orders proportionally to their
// subtotal share, remainder to the last group, so the per-order discounts
// always reconcile to the single calculated discount.
func (s *Service) Checkout(ctx context.Context, p auth.Principal, req CheckoutRequest) (*CheckoutResult, error) {
	methodName := req.ShippingMethod
	if methodName == "" {
		methodName = s.cfg.DefaultShippingMethod
	}

	c, err := s.carts.Get(ctx, p.UserID)
	if err != nil {
		return nil, errors.Wrap(err, "load cart")
	}
	if len(c.Items) == 0 {
		return nil, ErrEmptyCart
	}

	addr, err := s.addresses.GetForUser(ctx, req.AddressID, p.UserID)
	if err != nil {
		if errors.Is(err, address.ErrNotFound) {
			return nil, ErrAddressNotFound
		}
		return nil, errors.Wrap(err, "load address")
	}

	ok, err := s.delivery.DeliverableCountry(ctx, addr.Country)
	if err != nil {
		return nil, errors.Wrap(err, "check delivery")
	}
	if !ok {
		return nil, ErrDeliveryUnavailable
	}

	groups := cart.SplitByVendor(c.Items)
	cartSubtotal := c.Subtotal()

	// Coupon: resolve, validate against the cart-wide subtotal, compute the
	// single discount to apportion.
	var (
		cpn      *coupon.Coupon
		usage    *coupon.Usage
		discount = decimal.Zero
	)
	if req.CouponCode != "" {
		cpn, err = s.coupons.FindByCode(ctx, req.CouponCode)
		if err != nil {
			return nil, err // coupon.ErrNotFound or infrastructure
		}
		if err := s.validator.Validate(ctx, cpn, p.UserID, cartSubtotal); err != nil {
			return nil, err
		}
		discount = coupon.CalculateDiscount(cpn, cartSubtotal)
	}

	discounts := apportion(discount, groups, cartSubtotal)

	now := s.now()
	orders := make([]*Order, 0, len(groups))
	for i, g := range groups {
		subtotal := decimal.Zero
		for _, item := range g.Items {
			subtotal = subtotal.Add(item.Subtotal())
		}

		shippingCost, err := s.shipping.Cost(ctx, subtotal, addr.Country, methodName)
		if err != nil {
			if errors.Is(err, pricing.ErrNoZoneForCountry) || errors.Is(err, pricing.ErrMethodNotOffered) {
				return nil, errors.Wrap(ErrShippingUnavailable, err.Error())
			}
			return nil, errors.Wrap(err, "calculate shipping")
		}

		taxAmount, err := s.taxes.Amount(ctx, subtotal, addr.Country)
		if err != nil {
			return nil, errors.Wrap(err, "calculate tax")
		}

		total := subtotal.Add(shippingCost).Add(taxAmount).Sub(discounts[i])
		if total.IsNegative() {
			total = decimal.Zero
		}

		o := &Order{
			ID:             uuid.New(),
			OrderNumber:    NewOrderNumber(now),
			UserID:         p.UserID,
			VendorID:       g.VendorID,
			AddressID:      addr.ID,
			Status:         StatusPending,
			Subtotal:       subtotal.Round(2),
			ShippingCost:   shippingCost.Round(2),
			TaxAmount:      taxAmount.Round(2),
			DiscountAmount: discounts[i],
			Total:          total.Round(2),
			Notes:          req.Notes,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if cpn != nil {
			o.CouponID = &cpn.ID
		}
		for _, item := range g.Items {
			o.Items = append(o.Items, Item{
				ID:          uuid.New(),
				OrderID:     o.ID,
				ProductID:   item.Product.ID,
				ProductName: item.Product.Name,
				Quantity:    item.Quantity,
				Price:       item.Product.Price,
				Subtotal:    item.Subtotal(),
			})
		}
		orders = append(orders, o)
	}

	// One usage row per checkout, recorded against the first created order.
	if cpn != nil {
		usage = &coupon.Usage{
			ID:             uuid.New(),
			CouponID:       cpn.ID,
			UserID:         p.UserID,
			OrderID:        orders[0].ID,
			DiscountAmount: discount,
		}
	}

	settlement := &Settlement{
		CartID: c.ID,
		Orders: orders,
		Coupon: cpn,
		Usage:  usage,
	}
	if err := s.store.Settle(ctx, settlement); err != nil {
		return nil, err
	}

	totalAmount := decimal.Zero
	for _, o := range orders {
		totalAmount = totalAmount.Add(o.Total)
	}
	return &CheckoutResult{Orders: orders, TotalAmount: totalAmount}, nil
}

// apportion splits discount across groups proportionally to their subtotal
// share of cartSubtotal, rounding each portion to 2 decimal places and
// assigning the remainder to the last group so the parts sum exactly.
// Each portion is capped at what is still unassigned: rounding up many small
// shares must never push the running sum past the discount, which would
// leave a negative remainder for the last group.
func apportion(discount decimal.Decimal, groups []cart.VendorGroup, cartSubtotal decimal.Decimal) []decimal.Decimal {
	out := make([]decimal.Decimal, len(groups))
	for i := range out {
		out[i] = decimal.Zero
	}
	if !discount.IsPositive() || !cartSubtotal.IsPositive() {
		return out
	}

	remaining := discount
	for i, g := range groups {
		if i == len(groups)-1 {
			out[i] = remaining
			break
		}
		subtotal := decimal.Zero
		for _, item := range g.Items {
			subtotal = subtotal.Add(item.Subtotal())
		}
		portion := discount.Mul(subtotal).Div(cartSubtotal).Round(2)
		if portion.GreaterThan(remaining) {
			portion = remaining
		}
		out[i] = portion
		remaining = remaining.Sub(portion)
	}
	return out
}

// StatusUpdate is the input to an order status change.
type StatusUpdate struct {
	Status         Status
	TrackingNumber string
	AdminNote      string
}

// UpdateStatus transitions an order through the lifecycle. Only staff and
// the order's approved vendor admin may update; anyone else sees ErrNotFound
// rather than learning the order exists. Cancelling restores stock (and,
// when configured, releases the coupon usage) atomically.
func (s *Service) UpdateStatus(ctx context.Context, p auth.Principal, orderID uuid.UUID, upd StatusUpdate) (*Order, error) {
	o, err := s.store.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !auth.CanUpdateOrderStatus(p, o.VendorID) {
		return nil, ErrNotFound
	}

	if !o.Status.CanTransitionTo(upd.Status) {
		return nil, &InvalidTransitionError{From: o.Status, To: upd.Status}
	}

	if upd.Status == StatusCancelled {
		if err := s.store.Cancel(ctx, o.ID, s.cfg.ReleaseCouponOnCancel); err != nil {
			return nil, errors.Wrap(err, "cancel order")
		}
	} else {
		if err := s.store.UpdateStatus(ctx, o.ID, o.Status, upd.Status, upd.TrackingNumber, upd.AdminNote); err != nil {
			return nil, errors.Wrap(err, "update status")
		}
	}

	return s.store.GetByID(ctx, o.ID)
}

// GetOrder returns one order, subject to the principal's visibility scope.
func (s *Service) GetOrder(ctx context.Context, p auth.Principal, orderID uuid.UUID) (*Order, error) {
	o, err := s.store.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	switch auth.OrderScopeFor(p) {
	case auth.ScopeAll:
		return o, nil
	case auth.ScopeVendor:
		if o.VendorID != nil && *o.VendorID == *p.VendorID {
			return o, nil
		}
	case auth.ScopeOwn:
		if o.UserID == p.UserID {
			return o, nil
		}
	}
	return nil, ErrNotFound
}

// ListOrders returns the orders visible to the principal.
func (s *Service) ListOrders(ctx context.Context, p auth.Principal) ([]Order, error) {
	switch auth.OrderScopeFor(p) {
	case auth.ScopeAll:
		return s.store.ListAll(ctx)
	case auth.ScopeVendor:
		return s.store.ListByVendor(ctx, *p.VendorID)
	default:
		return s.store.ListByUser(ctx, p.UserID)
	}
}
