// Package handler exposes the HTTP API: catalog and cart reads/writes, the
// checkout operation, and the RBAC'd order lifecycle. Business logic lives in
// the domain packages; handlers parse, delegate, and map errors to statuses.
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nordmarket/backend/internal/domain/cart"
	"github.com/nordmarket/backend/internal/domain/order"
	"github.com/nordmarket/backend/internal/domain/product"
	"github.com/nordmarket/backend/internal/domain/vendor"
)

// Handler serves the /api routes, delegating to the order service and the
// catalog/cart repositories.
type Handler struct {
	products     product.Repository
	vendors      vendor.Repository
	carts        cart.Repository
	orderService *order.Service
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	products product.Repository,
	vendors vendor.Repository,
	carts cart.Repository,
	orderService *order.Service,
) *Handler {
	return &Handler{
		products:     products,
		vendors:      vendors,
		carts:        carts,
		orderService: orderService,
	}
}

// Routes builds the /api route tree. Every route requires a valid Bearer
// token; auth is the middleware produced by Authenticator.
func (h *Handler) Routes(auth func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth)

	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.ListProducts)
		r.Get("/{id}", h.GetProduct)
	})

	r.Route("/vendors", func(r chi.Router) {
		r.Get("/", h.ListVendors)
		r.Get("/{id}", h.GetVendor)
	})

	r.Route("/cart", func(r chi.Router) {
		r.Get("/", h.GetCart)
		r.Post("/items", h.AddCartItem)
		r.Delete("/items/{productID}", h.RemoveCartItem)
	})

	r.Post("/checkout", h.Checkout)

	r.Route("/orders", func(r chi.Router) {
		r.Get("/", h.ListOrders)
		r.Get("/{id}", h.GetOrder)
		r.Patch("/{id}/status", h.UpdateOrderStatus)
	})

	return r
}
