package handler

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/nordmarket/backend/internal/domain/order"
)

type checkoutRequest struct {
	AddressID      string `json:"address_id"`
	CouponCode     string `json:"coupon_code"`
	ShippingMethod string `json:"shipping_method"`
	Notes          string `json:"notes"`
}

type checkoutResponse struct {
	Orders      []orderResponse `json:"orders"`
	TotalAmount float64         `json:"total_amount"`
}

// Checkout converts the principal's cart into one pending order per vendor.
// The commit is all-or-nothing: on any failure no stock moves, no order
// exists, and the cart is untouched.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "missing principal")
		return
	}

	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	addressID, err := uuid.Parse(req.AddressID)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid address id")
		return
	}

	result, err := h.orderService.Checkout(r.Context(), p, order.CheckoutRequest{
		AddressID:      addressID,
		CouponCode:     req.CouponCode,
		ShippingMethod: req.ShippingMethod,
		Notes:          req.Notes,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	resp := checkoutResponse{
		Orders:      make([]orderResponse, 0, len(result.Orders)),
		TotalAmount: result.TotalAmount.InexactFloat64(),
	}
	for _, o := range result.Orders {
		resp.Orders = append(resp.Orders, toOrderResponse(o))
	}
	writeJSON(w, r, http.StatusCreated, resp)
}
