// Package reporting is the read-only query surface over the ledger: sale
// listings with date-range and state filters, revenue aggregates, CSV export
// and the receipt projection consumed by the external PDF generator.
//
// Nothing in this package mutates state.
package reporting

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Filter narrows a sale listing. Zero-value fields are ignored. From/To are
// inclusive bounds on the sale's creation time. ExcludeState removes sales in
// that state; reporting excludes voided sales by filtering, never by deletion.
type Filter struct {
	From         time.Time
	To           time.Time
	ExcludeState string
	CustomerID   string
}

// SaleRow is one row in a sale listing.
type SaleRow struct {
	ID           string
	CustomerName string
	Date         time.Time
	Total        decimal.Decimal
	State        string
}

// ReceiptLine is one product row on a receipt.
type ReceiptLine struct {
	ProductName string
	Quantity    int
	Subtotal    decimal.Decimal
}

// Receipt carries everything the receipt generator needs: the customer's
// contact details and the sale's lines and total.
type Receipt struct {
	SaleID          string
	State           string
	Date            time.Time
	CustomerName    string
	CustomerAddress string
	CustomerPhones  []string
	Lines           []ReceiptLine
	Total           decimal.Decimal
}

// Repository is the read port backing the reports.
type Repository interface {
	ListSales(ctx context.Context, f Filter) ([]SaleRow, error)
	Receipt(ctx context.Context, saleID string) (*Receipt, error)
}
