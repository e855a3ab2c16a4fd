// Package cart maintains the session-scoped product selections that have not
// been committed to a sale yet. Each session's cart is only ever touched by
// requests belonging to that session; there is no cross-session sharing.
package cart

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/Janetzy-GS18/Proyecto-PIA/internal/catalog/domain"
)

// Store is the persistence port for raw cart contents: a productID → quantity
// mapping per session. Validation lives in Service, not here.
type Store interface {
	// Items returns the full mapping for a session. A missing cart is an
	// empty map, not an error.
	Items(ctx context.Context, sessionID string) (map[string]int, error)

	// SetItem sets the quantity for one product, creating the cart if needed.
	SetItem(ctx context.Context, sessionID, productID string, quantity int) error

	// RemoveItem drops one product from the cart. Idempotent.
	RemoveItem(ctx context.Context, sessionID, productID string) error

	// Clear empties the cart. Idempotent.
	Clear(ctx context.Context, sessionID string) error
}

// Line is one product's row in the cart read projection.
type Line struct {
	Product  *domain.Product
	Quantity int
	Subtotal decimal.Decimal
}

// View is the ordered cart projection rendered by the storefront:
// lines sorted by product name, each with subtotal = price × quantity.
type View struct {
	Lines []Line
	Total decimal.Decimal
}
