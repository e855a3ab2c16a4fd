// Package sqlite implements the reporting read queries.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Janetzy-GS18/Proyecto-PIA/internal/ledger/domain"
	"github.com/Janetzy-GS18/Proyecto-PIA/internal/reporting"
	"github.com/Janetzy-GS18/Proyecto-PIA/internal/store"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// ListSales returns sale rows matching the filter, oldest first.
func (r *Repository) ListSales(ctx context.Context, f reporting.Filter) ([]reporting.SaleRow, error) {
	q := `
		SELECT s.id, c.name, s.created_at, s.total, s.state
		FROM   sales s
		JOIN   customers c ON c.id = s.customer_id
		WHERE  1 = 1`
	var args []any

	if !f.From.IsZero() {
		q += ` AND s.created_at >= ?`
		args = append(args, store.FormatTime(f.From))
	}
	if !f.To.IsZero() {
		q += ` AND s.created_at <= ?`
		args = append(args, store.FormatTime(f.To))
	}
	if f.ExcludeState != "" {
		q += ` AND s.state != ?`
		args = append(args, f.ExcludeState)
	}
	if f.CustomerID != "" {
		q += ` AND s.customer_id = ?`
		args = append(args, f.CustomerID)
	}
	q += ` ORDER BY s.created_at, s.id`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("reporting: list sales: %w", err)
	}
	defer rows.Close()

	var out []reporting.SaleRow
	for rows.Next() {
		var row reporting.SaleRow
		var createdAt, total string
		if err := rows.Scan(&row.ID, &row.CustomerName, &createdAt, &total, &row.State); err != nil {
			return nil, fmt.Errorf("reporting: list sales: %w", err)
		}
		if row.Date, err = store.ParseTime(createdAt); err != nil {
			return nil, err
		}
		if row.Total, err = decimal.NewFromString(total); err != nil {
			return nil, fmt.Errorf("reporting: parse total %q: %w", total, err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// Receipt builds the receipt projection for one sale.
func (r *Repository) Receipt(ctx context.Context, saleID string) (*reporting.Receipt, error) {
	const q = `
		SELECT s.id, s.state, s.created_at, s.total, c.id, c.name, c.address
		FROM   sales s
		JOIN   customers c ON c.id = s.customer_id
		WHERE  s.id = ?`

	var rec reporting.Receipt
	var createdAt, total, customerID string
	err := r.db.QueryRowContext(ctx, q, saleID).Scan(
		&rec.SaleID, &rec.State, &createdAt, &total, &customerID, &rec.CustomerName, &rec.CustomerAddress)
	if err == sql.ErrNoRows {
		return nil, domain.ErrSaleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reporting: receipt %s: %w", saleID, err)
	}
	if rec.Date, err = store.ParseTime(createdAt); err != nil {
		return nil, err
	}
	if rec.Total, err = decimal.NewFromString(total); err != nil {
		return nil, fmt.Errorf("reporting: parse total %q: %w", total, err)
	}

	phones, err := r.db.QueryContext(ctx,
		`SELECT phone FROM customer_phones WHERE customer_id = ? ORDER BY phone`, customerID)
	if err != nil {
		return nil, fmt.Errorf("reporting: receipt phones %s: %w", saleID, err)
	}
	defer phones.Close()
	for phones.Next() {
		var phone string
		if err := phones.Scan(&phone); err != nil {
			return nil, fmt.Errorf("reporting: receipt phones %s: %w", saleID, err)
		}
		rec.CustomerPhones = append(rec.CustomerPhones, phone)
	}
	if err := phones.Err(); err != nil {
		return nil, err
	}

	lines, err := r.db.QueryContext(ctx, `
		SELECT p.name, l.quantity, l.subtotal
		FROM   sale_lines l
		JOIN   products p ON p.id = l.product_id
		WHERE  l.sale_id = ?
		ORDER  BY p.name`, saleID)
	if err != nil {
		return nil, fmt.Errorf("reporting: receipt lines %s: %w", saleID, err)
	}
	defer lines.Close()
	for lines.Next() {
		var line reporting.ReceiptLine
		var subtotal string
		if err := lines.Scan(&line.ProductName, &line.Quantity, &subtotal); err != nil {
			return nil, fmt.Errorf("reporting: receipt lines %s: %w", saleID, err)
		}
		if line.Subtotal, err = decimal.NewFromString(subtotal); err != nil {
			return nil, fmt.Errorf("reporting: parse subtotal %q: %w", subtotal, err)
		}
		rec.Lines = append(rec.Lines, line)
	}
	return &rec, lines.Err()
}
