package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nordmarket/backend/internal/domain/address"
	"github.com/nordmarket/backend/internal/domain/auth"
	"github.com/nordmarket/backend/internal/domain/cart"
	"github.com/nordmarket/backend/internal/domain/coupon"
	"github.com/nordmarket/backend/internal/domain/order"
	"github.com/nordmarket/backend/internal/domain/product"
	"github.com/nordmarket/backend/internal/domain/vendor"
)

// --- Mock implementations ---

type mockTokenRepo struct {
	byHash map[string]*auth.Principal
}

func (m *mockTokenRepo) PrincipalByTokenHash(_ context.Context, hash string) (*auth.Principal, error) {
	p, ok := m.byHash[hash]
	if !ok {
		return nil, auth.ErrTokenNotFound
	}
	return p, nil
}

type mockProductRepo struct {
	products []product.Product
	listErr  error
}

func (m *mockProductRepo) List(_ context.Context) ([]product.Product, error) {
	return m.products, m.listErr
}

func (m *mockProductRepo) GetByID(_ context.Context, id uuid.UUID) (*product.Product, error) {
	for i := range m.products {
		if m.products[i].ID == id {
			return &m.products[i], nil
		}
	}
	return nil, product.ErrNotFound
}

type mockVendorRepo struct {
	vendors []vendor.Vendor
}

func (m *mockVendorRepo) List(_ context.Context) ([]vendor.Vendor, error) {
	return m.vendors, nil
}

func (m *mockVendorRepo) GetByID(_ context.Context, id uuid.UUID) (*vendor.Vendor, error) {
	for i := range m.vendors {
		if m.vendors[i].ID == id {
			return &m.vendors[i], nil
		}
	}
	return nil, vendor.ErrNotFound
}

type mockCartRepo struct {
	carts  map[uuid.UUID]*cart.Cart
	addErr error
}

func (m *mockCartRepo) Get(_ context.Context, userID uuid.UUID) (*cart.Cart, error) {
	if c, ok := m.carts[userID]; ok {
		return c, nil
	}
	return &cart.Cart{ID: uuid.New(), UserID: userID}, nil
}

func (m *mockCartRepo) AddItem(_ context.Context, userID, productID uuid.UUID, quantity int) error {
	if m.addErr != nil {
		return m.addErr
	}
	if quantity < 1 {
		return cart.ErrInvalidQuantity
	}
	c, ok := m.carts[userID]
	if !ok {
		c = &cart.Cart{ID: uuid.New(), UserID: userID}
		m.carts[userID] = c
	}
	for i := range c.Items {
		if c.Items[i].Product.ID == productID {
			c.Items[i].Quantity += quantity
			return nil
		}
	}
	c.Items = append(c.Items, cart.Item{
		Product:  product.Product{ID: productID, Name: "added", Price: decimal.NewFromInt(1)},
		Quantity: quantity,
	})
	return nil
}

func (m *mockCartRepo) RemoveItem(_ context.Context, userID, productID uuid.UUID) (bool, error) {
	c, ok := m.carts[userID]
	if !ok {
		return false, nil
	}
	for i := range c.Items {
		if c.Items[i].Product.ID == productID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

type mockAddressRepo struct {
	addresses map[uuid.UUID]*address.Address
}

func (m *mockAddressRepo) GetForUser(_ context.Context, id, userID uuid.UUID) (*address.Address, error) {
	a, ok := m.addresses[id]
	if !ok || a.UserID != userID {
		return nil, address.ErrNotFound
	}
	return a, nil
}

type mockCouponRepo struct{}

func (m *mockCouponRepo) FindByCode(_ context.Context, _ string) (*coupon.Coupon, error) {
	return nil, coupon.ErrNotFound
}
func (m *mockCouponRepo) CountUsage(_ context.Context, _ uuid.UUID) (int, error) { return 0, nil }
func (m *mockCouponRepo) CountUserUsage(_ context.Context, _, _ uuid.UUID) (int, error) {
	return 0, nil
}

type mockValidator struct{}

func (m *mockValidator) Validate(_ context.Context, _ *coupon.Coupon, _ uuid.UUID, _ decimal.Decimal) error {
	return nil
}

type mockShipping struct {
	cost decimal.Decimal
}

func (m *mockShipping) Cost(_ context.Context, _ decimal.Decimal, _, _ string) (decimal.Decimal, error) {
	return m.cost, nil
}

type mockTax struct{}

func (m *mockTax) Amount(_ context.Context, _ decimal.Decimal, _ string) (decimal.Decimal, error) {
	return decimal.Zero, nil
}

type mockDelivery struct{ deliverable bool }

func (m *mockDelivery) DeliverableCountry(_ context.Context, _ string) (bool, error) {
	return m.deliverable, nil
}

type mockStore struct {
	orders    map[uuid.UUID]*order.Order
	settleErr error
}

func newMockStore() *mockStore {
	return &mockStore{orders: make(map[uuid.UUID]*order.Order)}
}

func (m *mockStore) Settle(_ context.Context, s *order.Settlement) error {
	if m.settleErr != nil {
		return m.settleErr
	}
	for _, o := range s.Orders {
		m.orders[o.ID] = o
	}
	return nil
}

func (m *mockStore) GetByID(_ context.Context, id uuid.UUID) (*order.Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	return o, nil
}

func (m *mockStore) ListByUser(_ context.Context, userID uuid.UUID) ([]order.Order, error) {
	var out []order.Order
	for _, o := range m.orders {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (m *mockStore) ListByVendor(_ context.Context, vendorID uuid.UUID) ([]order.Order, error) {
	var out []order.Order
	for _, o := range m.orders {
		if o.VendorID != nil && *o.VendorID == vendorID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (m *mockStore) ListAll(_ context.Context) ([]order.Order, error) {
	var out []order.Order
	for _, o := range m.orders {
		out = append(out, *o)
	}
	return out, nil
}

func (m *mockStore) UpdateStatus(_ context.Context, id uuid.UUID, from, to order.Status, tracking, note string) error {
	o, ok := m.orders[id]
	if !ok {
		return order.ErrNotFound
	}
	if o.Status != from {
		return &order.InvalidTransitionError{From: o.Status, To: to}
	}
	o.Status = to
	if tracking != "" {
		o.TrackingNumber = tracking
	}
	if note != "" {
		o.AdminNote = note
	}
	return nil
}

func (m *mockStore) Cancel(_ context.Context, id uuid.UUID, _ bool) error {
	o, ok := m.orders[id]
	if !ok {
		return order.ErrNotFound
	}
	o.Status = order.StatusCancelled
	return nil
}

// --- Test environment ---

const testPepper = "test-pepper"

type env struct {
	router   http.Handler
	products *mockProductRepo
	vendors  *mockVendorRepo
	carts    *mockCartRepo
	store    *mockStore

	customerID   uuid.UUID
	addressID    uuid.UUID
	vendorID     uuid.UUID
	productID    uuid.UUID
	vendorAdmin  string // raw tokens
	customer     string
	admin        string
	mockShipping *mockShipping
}

func newEnv(t *testing.T) *env {
	t.Helper()

	e := &env{
		customerID: uuid.New(),
		addressID:  uuid.New(),
		vendorID:   uuid.New(),
		productID:  uuid.New(),
		customer:   "tok-customer",
		admin:      "tok-admin",
	}
	e.vendorAdmin = "tok-vendor-admin"

	e.vendors = &mockVendorRepo{vendors: []vendor.Vendor{{
		ID:     e.vendorID,
		Name:   "Fjord Furniture",
		Slug:   "fjord-furniture",
		Status: auth.VendorApproved,
	}}}

	e.products = &mockProductRepo{products: []product.Product{{
		ID:       e.productID,
		VendorID: &e.vendorID,
		Name:     "Walnut Desk",
		Price:    decimal.NewFromInt(50),
		Stock:    10,
	}}}

	e.carts = &mockCartRepo{carts: map[uuid.UUID]*cart.Cart{
		e.customerID: {
			ID:     uuid.New(),
			UserID: e.customerID,
			Items: []cart.Item{{
				Product:  e.products.products[0],
				Quantity: 2,
			}},
		},
	}}

	addresses := &mockAddressRepo{addresses: map[uuid.UUID]*address.Address{
		e.addressID: {ID: e.addressID, UserID: e.customerID, Line1: "1 Main St", City: "Oslo", Country: "NO"},
	}}

	e.store = newMockStore()
	e.mockShipping = &mockShipping{cost: decimal.NewFromInt(5)}

	svc := order.NewService(
		e.carts, addresses, &mockCouponRepo{}, &mockValidator{},
		e.mockShipping, &mockTax{}, &mockDelivery{deliverable: true},
		e.store, order.ServiceConfig{},
	)

	tokens := &mockTokenRepo{byHash: map[string]*auth.Principal{
		HashToken([]byte(testPepper), e.customer): {
			UserID: e.customerID,
			Role:   auth.RoleCustomer,
		},
		HashToken([]byte(testPepper), e.admin): {
			UserID: uuid.New(),
			Role:   auth.RoleAdmin,
		},
		HashToken([]byte(testPepper), e.vendorAdmin): {
			UserID:       uuid.New(),
			Role:         auth.RoleVendorAdmin,
			VendorID:     &e.vendorID,
			VendorStatus: auth.VendorApproved,
		},
	}}

	h := NewHandler(e.products, e.vendors, e.carts, svc)
	e.router = h.Routes(Authenticator(tokens, []byte(testPepper)))
	return e
}

func (e *env) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

// --- Tests ---

func TestAuthenticator(t *testing.T) {
	e := newEnv(t)

	tests := []struct {
		name       string
		token      string
		wantStatus int
	}{
		{name: "valid token", token: e.customer, wantStatus: http.StatusOK},
		{name: "missing token", token: "", wantStatus: http.StatusUnauthorized},
		{name: "unknown token", token: "tok-bogus", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := e.do(t, http.MethodGet, "/products", tt.token, nil)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestListProducts(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodGet, "/products", e.customer, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	products := decodeBody[[]productResponse](t, rec)
	require.Len(t, products, 1)
	assert.Equal(t, "Walnut Desk", products[0].Name)
	assert.Equal(t, 50.0, products[0].Price)
}

func TestGetProduct(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodGet, "/products/"+e.productID.String(), e.customer, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = e.do(t, http.MethodGet, "/products/"+uuid.NewString(), e.customer, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = e.do(t, http.MethodGet, "/products/not-a-uuid", e.customer, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListVendors(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodGet, "/vendors", e.customer, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	vendors := decodeBody[[]vendorResponse](t, rec)
	require.Len(t, vendors, 1)
	assert.Equal(t, "Fjord Furniture", vendors[0].Name)
	assert.Equal(t, "approved", vendors[0].Status)
}

func TestGetVendor(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodGet, "/vendors/"+e.vendorID.String(), e.customer, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	v := decodeBody[vendorResponse](t, rec)
	assert.Equal(t, "fjord-furniture", v.Slug)

	rec = e.do(t, http.MethodGet, "/vendors/"+uuid.NewString(), e.customer, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = e.do(t, http.MethodGet, "/vendors/not-a-uuid", e.customer, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCartFlow(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodGet, "/cart", e.customer, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	c := decodeBody[cartResponse](t, rec)
	require.Len(t, c.Items, 1)
	assert.Equal(t, 100.0, c.Subtotal)

	// Adding the same product increments quantity.
	rec = e.do(t, http.MethodPost, "/cart/items", e.customer, addCartItemRequest{
		ProductID: e.productID.String(),
		Quantity:  3,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	c = decodeBody[cartResponse](t, rec)
	require.Len(t, c.Items, 1)
	assert.Equal(t, 5, c.Items[0].Quantity)

	rec = e.do(t, http.MethodPost, "/cart/items", e.customer, addCartItemRequest{
		ProductID: e.productID.String(),
		Quantity:  0,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(t, http.MethodDelete, "/cart/items/"+e.productID.String(), e.customer, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = e.do(t, http.MethodDelete, "/cart/items/"+e.productID.String(), e.customer, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCheckout(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodPost, "/checkout", e.customer, checkoutRequest{
		AddressID: e.addressID.String(),
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	resp := decodeBody[checkoutResponse](t, rec)
	require.Len(t, resp.Orders, 1)
	assert.Equal(t, "pending", resp.Orders[0].Status)
	// 2 x 50 subtotal + 5 shipping.
	assert.Equal(t, 105.0, resp.TotalAmount)
	require.Len(t, resp.Orders[0].Items, 1)
	assert.Equal(t, 2, resp.Orders[0].Items[0].Quantity)
}

func TestCheckout_Errors(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(e *env)
		body       any
		wantStatus int
	}{
		{
			name:       "empty cart",
			setup:      func(e *env) { delete(e.carts.carts, e.customerID) },
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown address",
			body:       checkoutRequest{AddressID: uuid.NewString()},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "invalid address id",
			body:       checkoutRequest{AddressID: "nope"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown coupon",
			setup:      nil,
			body:       nil, // filled below with coupon code
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "insufficient stock",
			setup: func(e *env) {
				e.store.settleErr = &order.InsufficientStockError{ProductID: e.productID}
			},
			wantStatus: http.StatusConflict,
		},
		{
			name: "settlement failure",
			setup: func(e *env) {
				e.store.settleErr = errors.New("db down")
			},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t)
			if tt.setup != nil {
				tt.setup(e)
			}
			body := tt.body
			if body == nil {
				body = checkoutRequest{AddressID: e.addressID.String()}
			}
			if tt.name == "unknown coupon" {
				body = checkoutRequest{AddressID: e.addressID.String(), CouponCode: "NOPE"}
			}

			rec := e.do(t, http.MethodPost, "/checkout", e.customer, body)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
		})
	}
}

func TestOrderLifecycle(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodPost, "/checkout", e.customer, checkoutRequest{
		AddressID: e.addressID.String(),
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeBody[checkoutResponse](t, rec)
	orderID := created.Orders[0].ID

	// Customer sees their order.
	rec = e.do(t, http.MethodGet, "/orders/"+orderID, e.customer, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// Customer cannot change status; the order hides as a 404.
	rec = e.do(t, http.MethodPatch, "/orders/"+orderID+"/status", e.customer, updateStatusRequest{
		Status: "paid",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Admin moves it pending -> paid with an admin note.
	rec = e.do(t, http.MethodPatch, "/orders/"+orderID+"/status", e.admin, updateStatusRequest{
		Status:    "paid",
		AdminNote: "payment confirmed",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	o := decodeBody[orderResponse](t, rec)
	assert.Equal(t, "paid", o.Status)

	// Vendor admin of the order's vendor ships it with a tracking number.
	rec = e.do(t, http.MethodPatch, "/orders/"+orderID+"/status", e.vendorAdmin, updateStatusRequest{
		Status:         "shipped",
		TrackingNumber: "TRK-001",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	o = decodeBody[orderResponse](t, rec)
	assert.Equal(t, "shipped", o.Status)
	assert.Equal(t, "TRK-001", o.TrackingNumber)

	// Shipped -> paid is not a legal transition.
	rec = e.do(t, http.MethodPatch, "/orders/"+orderID+"/status", e.admin, updateStatusRequest{
		Status: "paid",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Unknown status value.
	rec = e.do(t, http.MethodPatch, "/orders/"+orderID+"/status", e.admin, updateStatusRequest{
		Status: "teleported",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListOrders_Scoping(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodPost, "/checkout", e.customer, checkoutRequest{
		AddressID: e.addressID.String(),
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	for _, tt := range []struct {
		name  string
		token string
		want  int
	}{
		{name: "customer sees own", token: e.customer, want: 1},
		{name: "admin sees all", token: e.admin, want: 1},
		{name: "vendor admin sees vendor's", token: e.vendorAdmin, want: 1},
	} {
		t.Run(tt.name, func(t *testing.T) {
			rec := e.do(t, http.MethodGet, "/orders", tt.token, nil)
			require.Equal(t, http.StatusOK, rec.Code)
			orders := decodeBody[[]orderResponse](t, rec)
			assert.Len(t, orders, tt.want)
		})
	}
}
