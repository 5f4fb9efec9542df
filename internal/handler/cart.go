package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nordmarket/backend/internal/domain/cart"
)

type cartItemResponse struct {
	Product  productResponse `json:"product"`
	Quantity int             `json:"quantity"`
	Subtotal float64         `json:"subtotal"`
}

type cartResponse struct {
	Items    []cartItemResponse `json:"items"`
	Subtotal float64            `json:"subtotal"`
}

func toCartResponse(c *cart.Cart) cartResponse {
	resp := cartResponse{
		Items:    make([]cartItemResponse, 0, len(c.Items)),
		Subtotal: c.Subtotal().InexactFloat64(),
	}
	for _, it := range c.Items {
		resp.Items = append(resp.Items, cartItemResponse{
			Product:  toProductResponse(it.Product),
			Quantity: it.Quantity,
			Subtotal: it.Subtotal().InexactFloat64(),
		})
	}
	return resp
}

// GetCart returns the principal's cart. A user without a cart gets an empty
// one, not a 404.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "missing principal")
		return
	}

	c, err := h.carts.Get(r.Context(), p.UserID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toCartResponse(c))
}

type addCartItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// AddCartItem puts a product in the cart; adding a product already present
// increments its quantity.
func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "missing principal")
		return
	}

	var req addCartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid product id")
		return
	}

	if err := h.carts.AddItem(r.Context(), p.UserID, productID, req.Quantity); err != nil {
		writeDomainError(w, r, err)
		return
	}

	c, err := h.carts.Get(r.Context(), p.UserID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toCartResponse(c))
}

// RemoveCartItem deletes one product line from the cart.
func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "missing principal")
		return
	}

	productID, err := uuid.Parse(chi.URLParam(r, "productID"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid product id")
		return
	}

	removed, err := h.carts.RemoveItem(r.Context(), p.UserID, productID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if !removed {
		writeError(w, r, http.StatusNotFound, "item not in cart")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
