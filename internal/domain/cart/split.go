package cart

import (
	"sort"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// VendorGroup is the slice of cart items fulfilled by a single vendor.
// VendorID is nil for the platform-owned group.
type VendorGroup struct {
	VendorID *uuid.UUID
	Items    []Item
}

// SplitByVendor partitions cart items into per-vendor groups. Group order is
// stable: the platform group (no vendor) comes first, then vendor groups in
// ascending vendor-ID order. Items keep their relative order within a group.
func SplitByVendor(items []Item) []VendorGroup {
	grouped := lo.GroupBy(items, func(item Item) string {
		if item.Product.VendorID == nil {
			return ""
		}
		return item.Product.VendorID.String()
	})

	keys := lo.Keys(grouped)
	sort.Strings(keys) // "" sorts before any UUID, so platform leads

	groups := make([]VendorGroup, 0, len(keys))
	for _, key := range keys {
		g := VendorGroup{Items: grouped[key]}
		if key != "" {
			id := uuid.MustParse(key)
			g.VendorID = &id
		}
		groups = append(groups, g)
	}
	return groups
}
