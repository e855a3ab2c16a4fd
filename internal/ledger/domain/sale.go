// Package domain holds the sale entities and the error taxonomy of the order
// ledger.
package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// State is the lifecycle state of a sale. The model is two-state and one-way:
// active → voided, never back.
type State string

const (
	StateActive State = "active"
	StateVoided State = "voided"
)

var (
	// ErrEmptyCart rejects a checkout with no items.
	ErrEmptyCart = errors.New("cart is empty")

	// ErrSaleNotFound is returned when a sale ID does not exist.
	ErrSaleNotFound = errors.New("sale not found")

	// ErrLineNotFound is returned when a (sale, product) line does not exist.
	ErrLineNotFound = errors.New("sale line not found")

	// ErrAlreadyVoided rejects voiding a sale twice. Stock is restored
	// exactly once.
	ErrAlreadyVoided = errors.New("sale already voided")

	// ErrSaleVoided rejects line edits on a voided sale; its inventory
	// effect has already been reversed.
	ErrSaleVoided = errors.New("sale is voided")

	// ErrNotOwner rejects a void requested by an identity that does not own
	// the sale.
	ErrNotOwner = errors.New("sale does not belong to requester")
)

// Line is one product's quantity and subtotal within a sale. Subtotal is
// price × quantity captured at write time; later price changes do not
// retroactively alter it.
type Line struct {
	SaleID      string
	ProductID   string
	ProductName string
	Quantity    int
	Subtotal    decimal.Decimal
}

// Sale is a committed transaction. Total is derived — it always equals the
// sum of the line subtotals and is recomputed whenever a line changes.
// Voiding restores stock and flips State but preserves Total as a historical
// record.
type Sale struct {
	ID         string
	CustomerID string
	State      State
	Total      decimal.Decimal
	CreatedAt  time.Time
	Lines      []Line
}

// Voided reports whether the sale has reached its terminal state.
func (s *Sale) Voided() bool {
	return s.State == StateVoided
}
