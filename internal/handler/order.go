package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nordmarket/backend/internal/domain/order"
)

type orderItemResponse struct {
	ProductID   string  `json:"product_id"`
	ProductName string  `json:"product_name"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price"`
	Subtotal    float64 `json:"subtotal"`
}

type orderResponse struct {
	ID             string              `json:"id"`
	OrderNumber    string              `json:"order_number"`
	VendorID       *string             `json:"vendor_id,omitempty"`
	Status         string              `json:"status"`
	Subtotal       float64             `json:"subtotal"`
	ShippingCost   float64             `json:"shipping_cost"`
	TaxAmount      float64             `json:"tax_amount"`
	DiscountAmount float64             `json:"discount_amount"`
	Total          float64             `json:"total"`
	TrackingNumber string              `json:"tracking_number,omitempty"`
	Notes          string              `json:"notes,omitempty"`
	Items          []orderItemResponse `json:"items,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
}

func toOrderResponse(o *order.Order) orderResponse {
	resp := orderResponse{
		ID:             o.ID.String(),
		OrderNumber:    o.OrderNumber,
		Status:         string(o.Status),
		Subtotal:       o.Subtotal.InexactFloat64(),
		ShippingCost:   o.ShippingCost.InexactFloat64(),
		TaxAmount:      o.TaxAmount.InexactFloat64(),
		DiscountAmount: o.DiscountAmount.InexactFloat64(),
		Total:          o.Total.InexactFloat64(),
		TrackingNumber: o.TrackingNumber,
		Notes:          o.Notes,
		CreatedAt:      o.CreatedAt,
	}
	if o.VendorID != nil {
		s := o.VendorID.String()
		resp.VendorID = &s
	}
	for _, it := range o.Items {
		resp.Items = append(resp.Items, orderItemResponse{
			ProductID:   it.ProductID.String(),
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			Price:       it.Price.InexactFloat64(),
			Subtotal:    it.Subtotal.InexactFloat64(),
		})
	}
	return resp
}

// ListOrders returns the orders visible to the principal: staff see all,
// vendor admins their vendor's, customers their own.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "missing principal")
		return
	}

	orders, err := h.orderService.ListOrders(r.Context(), p)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	out := make([]orderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, toOrderResponse(&orders[i]))
	}
	writeJSON(w, r, http.StatusOK, out)
}

// GetOrder returns one order; outside the principal's scope it is a 404.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "missing principal")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid order id")
		return
	}

	o, err := h.orderService.GetOrder(r.Context(), p, id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toOrderResponse(o))
}

type updateStatusRequest struct {
	Status         string `json:"status"`
	TrackingNumber string `json:"tracking_number"`
	AdminNote      string `json:"admin_note"`
}

// UpdateOrderStatus transitions an order through its lifecycle. Principals
// without authority over the order get a 404, not a 403, so they cannot
// probe for order existence.
func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "missing principal")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid order id")
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	status, err := order.ParseStatus(req.Status)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	o, err := h.orderService.UpdateStatus(r.Context(), p, id, order.StatusUpdate{
		Status:         status,
		TrackingNumber: req.TrackingNumber,
		AdminNote:      req.AdminNote,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toOrderResponse(o))
}
