package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ErrProductNotFound is returned when a product ID does not reference an
// existing catalog row.
var ErrProductNotFound = errors.New("product not found")

// Product is a catalog entry. Price is a fixed-point amount with two decimal
// places; Stock is the number of units available for sale right now.
type Product struct {
	ID          string
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int
	CreatedAt   time.Time
}

// Validate checks the constraints every catalog write must satisfy.
func (p Product) Validate() error {
	if p.Name == "" {
		return errors.New("product name is required")
	}
	if p.Price.IsNegative() {
		return fmt.Errorf("product %s: price must not be negative", p.Name)
	}
	if p.Stock < 0 {
		return fmt.Errorf("product %s: stock must not be negative", p.Name)
	}
	return nil
}

// InsufficientStockError reports a quantity that exceeds the units available
// for a product. It is a whole-operation failure: the caller must not apply
// any partial state change.
type InsufficientStockError struct {
	ProductID   string
	ProductName string
	Requested   int
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d",
		e.ProductName, e.Requested, e.Available)
}

// IsInsufficientStock reports whether err is (or wraps) an
// InsufficientStockError.
func IsInsufficientStock(err error) bool {
	var ise *InsufficientStockError
	return errors.As(err, &ise)
}
