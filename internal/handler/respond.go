package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/nordmarket/backend/internal/domain/cart"
	"github.com/nordmarket/backend/internal/domain/coupon"
	"github.com/nordmarket/backend/internal/domain/order"
	"github.com/nordmarket/backend/internal/domain/product"
	"github.com/nordmarket/backend/internal/domain/vendor"
)

// errorResponse is the JSON body of every error reply.
type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zctx.From(r.Context()).Error("Encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	writeJSON(w, r, status, errorResponse{Code: status, Message: message})
}

// writeDomainError maps domain errors to HTTP statuses. Client mistakes are
// 400, valid requests the system cannot honor are 422, conflicts with current
// state are 409, scoping misses are 404. Anything unrecognized is a 500 and
// gets logged with its full cause chain.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		couponErr     *coupon.InvalidError
		stockErr      *order.InsufficientStockError
		transitionErr *order.InvalidTransitionError
	)

	switch {
	case errors.Is(err, order.ErrEmptyCart),
		errors.Is(err, order.ErrAddressNotFound),
		errors.Is(err, coupon.ErrNotFound),
		errors.Is(err, cart.ErrInvalidQuantity):
		writeError(w, r, http.StatusBadRequest, err.Error())

	case errors.As(err, &couponErr):
		writeError(w, r, http.StatusBadRequest, couponErr.Error())

	case errors.Is(err, order.ErrDeliveryUnavailable),
		errors.Is(err, order.ErrShippingUnavailable):
		writeError(w, r, http.StatusUnprocessableEntity, err.Error())

	case errors.As(err, &stockErr):
		writeError(w, r, http.StatusConflict, stockErr.Error())

	case errors.As(err, &transitionErr):
		writeError(w, r, http.StatusConflict, transitionErr.Error())

	case errors.Is(err, order.ErrNotFound),
		errors.Is(err, product.ErrNotFound),
		errors.Is(err, vendor.ErrNotFound):
		writeError(w, r, http.StatusNotFound, err.Error())

	default:
		zctx.From(r.Context()).Error("Internal error", zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}
