package httpx

// Role is the caller's resolved role, supplied by the external identity
// provider via the X-Role header. The empty role is an anonymous shopper.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleAnalyst Role = "analyst"
)

// Capability names something a handler wants to do.
type Capability string

const (
	CapManageCatalog Capability = "catalog:write"
	CapManageSales   Capability = "sales:write"
	CapViewReports   Capability = "reports:read"
)

// Allow is the explicit policy check consulted by handlers: admins manage
// everything, analysts get read-only reporting access.
func Allow(role Role, cap Capability) bool {
	switch role {
	case RoleAdmin:
		return true
	case RoleAnalyst:
		return cap == CapViewReports
	default:
		return false
	}
}
