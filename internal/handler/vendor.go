package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nordmarket/backend/internal/domain/vendor"
)

type vendorResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

func toVendorResponse(v vendor.Vendor) vendorResponse {
	return vendorResponse{
		ID:        v.ID.String(),
		Name:      v.Name,
		Slug:      v.Slug,
		Status:    string(v.Status),
		CreatedAt: v.CreatedAt,
	}
}

// ListVendors returns every vendor in creation order.
func (h *Handler) ListVendors(w http.ResponseWriter, r *http.Request) {
	vendors, err := h.vendors.List(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	out := make([]vendorResponse, 0, len(vendors))
	for _, v := range vendors {
		out = append(out, toVendorResponse(v))
	}
	writeJSON(w, r, http.StatusOK, out)
}

// GetVendor returns one vendor by ID.
func (h *Handler) GetVendor(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid vendor id")
		return
	}

	v, err := h.vendors.GetByID(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toVendorResponse(*v))
}
