// Package auth defines the authenticated principal and the authorization
// decisions protected operations depend on. Roles form a closed set; every
// decision is a named function taking the principal explicitly, so there are
// no ad hoc role-string comparisons scattered around call sites.
package auth

import (
	"github.com/google/uuid"
)

// Role is the closed set of user roles.
type Role string

const (
	RoleCustomer    Role = "customer"
	RoleSeller      Role = "seller"
	RoleVendorAdmin Role = "vendor_admin"
	RoleManager     Role = "manager"
	RoleAdmin       Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleSeller, RoleVendorAdmin, RoleManager, RoleAdmin:
		return true
	}
	return false
}

// VendorStatus is the lifecycle state of a vendor account.
type VendorStatus string

const (
	VendorPending   VendorStatus = "pending"
	VendorApproved  VendorStatus = "approved"
	VendorRejected  VendorStatus = "rejected"
	VendorSuspended VendorStatus = "suspended"
)

// Principal is the authenticated identity a request acts as. Core operations
// receive it as an explicit argument, never via ambient request state.
type Principal struct {
	UserID       uuid.UUID
	Role         Role
	VendorID     *uuid.UUID
	VendorStatus VendorStatus
}

// isStaff reports whether the principal has platform-wide privileges.
func (p Principal) isStaff() bool {
	return p.Role == RoleAdmin || p.Role == RoleManager
}

// isApprovedVendorAdmin reports whether the principal administers an approved
// vendor. Pending, rejected, and suspended vendors are blocked entirely.
func (p Principal) isApprovedVendorAdmin() bool {
	return p.Role == RoleVendorAdmin && p.VendorID != nil && p.VendorStatus == VendorApproved
}

// OrderScope bounds which orders a principal may see.
type OrderScope int

const (
	// ScopeAll grants access to every order on the platform.
	ScopeAll OrderScope = iota
	// ScopeVendor grants access to orders of the principal's vendor.
	ScopeVendor
	// ScopeOwn grants access to the principal's own orders only.
	ScopeOwn
)

// OrderScopeFor decides the order visibility scope for a principal.
func OrderScopeFor(p Principal) OrderScope {
	switch {
	case p.isStaff():
		return ScopeAll
	case p.isApprovedVendorAdmin():
		return ScopeVendor
	default:
		return ScopeOwn
	}
}

// CanUpdateOrderStatus decides whether the principal may change the status of
// an order belonging to orderVendorID (nil for platform-fulfilled orders).
// Staff may update any order; approved vendor admins only their own vendor's.
func CanUpdateOrderStatus(p Principal, orderVendorID *uuid.UUID) bool {
	if p.isStaff() {
		return true
	}
	if !p.isApprovedVendorAdmin() {
		return false
	}
	return orderVendorID != nil && *orderVendorID == *p.VendorID
}
