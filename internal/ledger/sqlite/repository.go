// Package sqlite implements the order ledger on SQLite.
//
// Every operation here is one transaction: a failure on the third of five
// lines rolls back everything, leaving product stock and sale totals exactly
// as they were. The stock check-and-apply is a guarded UPDATE
// (stock = stock - n WHERE stock >= n), indivisible with respect to other
// writers of the same row, so two racing checkouts serialize and the loser
// observes the committed stock and fails cleanly.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	catalogdomain "github.com/Janetzy-GS18/Proyecto-PIA/internal/catalog/domain"
	customerdomain "github.com/Janetzy-GS18/Proyecto-PIA/internal/customer/domain"
	"github.com/Janetzy-GS18/Proyecto-PIA/internal/ledger/domain"
	"github.com/Janetzy-GS18/Proyecto-PIA/internal/store"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Checkout converts a cart snapshot into a persisted sale with one line per
// product. Quantities are re-validated against current stock at commit time;
// the add-to-cart check is only advisory. All-or-nothing: any failure leaves
// every product untouched and creates no sale.
func (r *Repository) Checkout(ctx context.Context, customerID string, snapshot map[string]int) (*domain.Sale, error) {
	if len(snapshot) == 0 {
		return nil, domain.ErrEmptyCart
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("ledger: begin checkout: %w", err)
	}
	defer tx.Rollback()

	var one int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM customers WHERE id = ?`, customerID).Scan(&one)
	if err == sql.ErrNoRows {
		return nil, customerdomain.ErrCustomerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ledger: resolve customer %s: %w", customerID, err)
	}

	// Deterministic order so a multi-product failure always names the same
	// offending product.
	productIDs := make([]string, 0, len(snapshot))
	for id := range snapshot {
		productIDs = append(productIDs, id)
	}
	sort.Strings(productIDs)

	sale := &domain.Sale{
		ID:         uuid.NewString(),
		CustomerID: customerID,
		State:      domain.StateActive,
		Total:      decimal.Zero,
		CreatedAt:  time.Now().UTC(),
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO sales (id, customer_id, state, total, created_at) VALUES (?, ?, ?, '0', ?)`,
		sale.ID, sale.CustomerID, string(sale.State), store.FormatTime(sale.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("ledger: create sale: %w", err)
	}

	for _, productID := range productIDs {
		quantity := snapshot[productID]
		line, err := insertLine(ctx, tx, sale.ID, productID, quantity)
		if err != nil {
			return nil, err
		}
		sale.Lines = append(sale.Lines, *line)
		sale.Total = sale.Total.Add(line.Subtotal)
	}

	if err := writeTotal(ctx, tx, sale.ID, sale.Total); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("ledger: commit checkout: %w", err)
	}
	return sale, nil
}

// WriteLine creates or edits one (sale, product) line, keeping stock and the
// sale total consistent in the same transaction.
//
// New line: stock is decremented by the quantity. Existing line: the delta
// between new and old quantity is applied to stock (reversal-then-reapply),
// and only a positive delta is stock-checked.
func (r *Repository) WriteLine(ctx context.Context, saleID, productID string, quantity int) (*domain.Sale, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("ledger: line quantity must be positive, got %d", quantity)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("ledger: begin write line: %w", err)
	}
	defer tx.Rollback()

	if err := requireActiveSale(ctx, tx, saleID); err != nil {
		return nil, err
	}

	var oldQuantity int
	err = tx.QueryRowContext(ctx,
		`SELECT quantity FROM sale_lines WHERE sale_id = ? AND product_id = ?`,
		saleID, productID).Scan(&oldQuantity)
	switch {
	case err == sql.ErrNoRows:
		if _, err := insertLine(ctx, tx, saleID, productID, quantity); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, fmt.Errorf("ledger: read line %s/%s: %w", saleID, productID, err)
	default:
		product, err := lockProduct(ctx, tx, productID)
		if err != nil {
			return nil, err
		}
		delta := quantity - oldQuantity
		if delta > 0 {
			if err := decrementStock(ctx, tx, product, delta); err != nil {
				return nil, err
			}
		} else if delta < 0 {
			if err := incrementStock(ctx, tx, productID, -delta); err != nil {
				return nil, err
			}
		}
		subtotal := product.Price.Mul(decimal.NewFromInt(int64(quantity)))
		_, err = tx.ExecContext(ctx,
			`UPDATE sale_lines SET quantity = ?, subtotal = ? WHERE sale_id = ? AND product_id = ?`,
			quantity, subtotal.StringFixed(2), saleID, productID)
		if err != nil {
			return nil, fmt.Errorf("ledger: update line %s/%s: %w", saleID, productID, err)
		}
	}

	if err := recomputeTotal(ctx, tx, saleID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("ledger: commit write line: %w", err)
	}
	return r.GetByID(ctx, saleID)
}

// DeleteLine removes one line, restores its quantity to the product's stock
// and recomputes the sale total. Always succeeds when the line exists.
func (r *Repository) DeleteLine(ctx context.Context, saleID, productID string) (*domain.Sale, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("ledger: begin delete line: %w", err)
	}
	defer tx.Rollback()

	if err := requireActiveSale(ctx, tx, saleID); err != nil {
		return nil, err
	}

	var quantity int
	err = tx.QueryRowContext(ctx,
		`SELECT quantity FROM sale_lines WHERE sale_id = ? AND product_id = ?`,
		saleID, productID).Scan(&quantity)
	if err == sql.ErrNoRows {
		return nil, domain.ErrLineNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ledger: read line %s/%s: %w", saleID, productID, err)
	}

	if err := incrementStock(ctx, tx, productID, quantity); err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM sale_lines WHERE sale_id = ? AND product_id = ?`,
		saleID, productID); err != nil {
		return nil, fmt.Errorf("ledger: delete line %s/%s: %w", saleID, productID, err)
	}

	if err := recomputeTotal(ctx, tx, saleID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("ledger: commit delete line: %w", err)
	}
	return r.GetByID(ctx, saleID)
}

// Void flips the sale to its terminal state and restores every line's
// quantity back to stock. Voiding twice fails with ErrAlreadyVoided without
// double-restoring. The lines and the total are preserved for reporting.
func (r *Repository) Void(ctx context.Context, saleID string) (*domain.Sale, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("ledger: begin void: %w", err)
	}
	defer tx.Rollback()

	var state string
	err = tx.QueryRowContext(ctx, `SELECT state FROM sales WHERE id = ?`, saleID).Scan(&state)
	if err == sql.ErrNoRows {
		return nil, domain.ErrSaleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ledger: read sale %s: %w", saleID, err)
	}
	if domain.State(state) == domain.StateVoided {
		return nil, domain.ErrAlreadyVoided
	}

	rows, err := tx.QueryContext(ctx,
		`SELECT product_id, quantity FROM sale_lines WHERE sale_id = ?`, saleID)
	if err != nil {
		return nil, fmt.Errorf("ledger: lines for %s: %w", saleID, err)
	}
	type restore struct {
		productID string
		quantity  int
	}
	var restores []restore
	for rows.Next() {
		var re restore
		if err := rows.Scan(&re.productID, &re.quantity); err != nil {
			rows.Close()
			return nil, fmt.Errorf("ledger: lines for %s: %w", saleID, err)
		}
		restores = append(restores, re)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ledger: lines for %s: %w", saleID, err)
	}

	for _, re := range restores {
		if err := incrementStock(ctx, tx, re.productID, re.quantity); err != nil {
			return nil, err
		}
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE sales SET state = ? WHERE id = ?`,
		string(domain.StateVoided), saleID); err != nil {
		return nil, fmt.Errorf("ledger: void %s: %w", saleID, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("ledger: commit void: %w", err)
	}
	return r.GetByID(ctx, saleID)
}

// GetByID returns a sale with its lines, or domain.ErrSaleNotFound.
func (r *Repository) GetByID(ctx context.Context, saleID string) (*domain.Sale, error) {
	const q = `SELECT id, customer_id, state, total, created_at FROM sales WHERE id = ?`

	var sale domain.Sale
	var state, total, createdAt string
	err := r.db.QueryRowContext(ctx, q, saleID).Scan(&sale.ID, &sale.CustomerID, &state, &total, &createdAt)
	if err == sql.ErrNoRows {
		return nil, domain.ErrSaleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ledger: get sale %s: %w", saleID, err)
	}

	sale.State = domain.State(state)
	if sale.Total, err = decimal.NewFromString(total); err != nil {
		return nil, fmt.Errorf("ledger: parse total %q: %w", total, err)
	}
	if sale.CreatedAt, err = store.ParseTime(createdAt); err != nil {
		return nil, err
	}

	if sale.Lines, err = r.lines(ctx, saleID); err != nil {
		return nil, err
	}
	return &sale, nil
}

// ListByCustomer returns a customer's sales, newest first, lines included.
// This backs the purchase-history page.
func (r *Repository) ListByCustomer(ctx context.Context, customerID string) ([]*domain.Sale, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id FROM sales WHERE customer_id = ? ORDER BY created_at DESC, id`, customerID)
	if err != nil {
		return nil, fmt.Errorf("ledger: list sales for %s: %w", customerID, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("ledger: list sales for %s: %w", customerID, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sales := make([]*domain.Sale, 0, len(ids))
	for _, id := range ids {
		sale, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		sales = append(sales, sale)
	}
	return sales, nil
}

func (r *Repository) lines(ctx context.Context, saleID string) ([]domain.Line, error) {
	const q = `
		SELECT l.sale_id, l.product_id, p.name, l.quantity, l.subtotal
		FROM   sale_lines l
		JOIN   products p ON p.id = l.product_id
		WHERE  l.sale_id = ?
		ORDER  BY p.name`

	rows, err := r.db.QueryContext(ctx, q, saleID)
	if err != nil {
		return nil, fmt.Errorf("ledger: lines for %s: %w", saleID, err)
	}
	defer rows.Close()

	var lines []domain.Line
	for rows.Next() {
		var line domain.Line
		var subtotal string
		if err := rows.Scan(&line.SaleID, &line.ProductID, &line.ProductName, &line.Quantity, &subtotal); err != nil {
			return nil, fmt.Errorf("ledger: lines for %s: %w", saleID, err)
		}
		if line.Subtotal, err = decimal.NewFromString(subtotal); err != nil {
			return nil, fmt.Errorf("ledger: parse subtotal %q: %w", subtotal, err)
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

// --- transaction helpers ---

type productRow struct {
	ID    string
	Name  string
	Price decimal.Decimal
	Stock int
}

func lockProduct(ctx context.Context, tx *sql.Tx, productID string) (*productRow, error) {
	var p productRow
	var price string
	err := tx.QueryRowContext(ctx,
		`SELECT id, name, price, stock FROM products WHERE id = ?`, productID).
		Scan(&p.ID, &p.Name, &price, &p.Stock)
	if err == sql.ErrNoRows {
		return nil, catalogdomain.ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ledger: read product %s: %w", productID, err)
	}
	if p.Price, err = decimal.NewFromString(price); err != nil {
		return nil, fmt.Errorf("ledger: parse price %q: %w", price, err)
	}
	return &p, nil
}

// decrementStock is the atomic compare-and-decrement. The guard in the WHERE
// clause, not the earlier read, is what prevents stock going negative under
// concurrent writers.
func decrementStock(ctx context.Context, tx *sql.Tx, p *productRow, n int) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE products SET stock = stock - ? WHERE id = ? AND stock >= ?`, n, p.ID, n)
	if err != nil {
		return fmt.Errorf("ledger: decrement stock for %s: %w", p.ID, err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return &catalogdomain.InsufficientStockError{
			ProductID:   p.ID,
			ProductName: p.Name,
			Requested:   n,
			Available:   p.Stock,
		}
	}
	return nil
}

func incrementStock(ctx context.Context, tx *sql.Tx, productID string, n int) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE products SET stock = stock + ? WHERE id = ?`, n, productID)
	if err != nil {
		return fmt.Errorf("ledger: restore stock for %s: %w", productID, err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return catalogdomain.ErrProductNotFound
	}
	return nil
}

func insertLine(ctx context.Context, tx *sql.Tx, saleID, productID string, quantity int) (*domain.Line, error) {
	product, err := lockProduct(ctx, tx, productID)
	if err != nil {
		return nil, err
	}
	if quantity > product.Stock {
		return nil, &catalogdomain.InsufficientStockError{
			ProductID:   product.ID,
			ProductName: product.Name,
			Requested:   quantity,
			Available:   product.Stock,
		}
	}
	if err := decrementStock(ctx, tx, product, quantity); err != nil {
		return nil, err
	}

	subtotal := product.Price.Mul(decimal.NewFromInt(int64(quantity)))
	_, err = tx.ExecContext(ctx,
		`INSERT INTO sale_lines (sale_id, product_id, quantity, subtotal) VALUES (?, ?, ?, ?)`,
		saleID, productID, quantity, subtotal.StringFixed(2))
	if err != nil {
		return nil, fmt.Errorf("ledger: insert line %s/%s: %w", saleID, productID, err)
	}

	return &domain.Line{
		SaleID:      saleID,
		ProductID:   productID,
		ProductName: product.Name,
		Quantity:    quantity,
		Subtotal:    subtotal,
	}, nil
}

func requireActiveSale(ctx context.Context, tx *sql.Tx, saleID string) error {
	var state string
	err := tx.QueryRowContext(ctx, `SELECT state FROM sales WHERE id = ?`, saleID).Scan(&state)
	if err == sql.ErrNoRows {
		return domain.ErrSaleNotFound
	}
	if err != nil {
		return fmt.Errorf("ledger: read sale %s: %w", saleID, err)
	}
	if domain.State(state) == domain.StateVoided {
		return domain.ErrSaleVoided
	}
	return nil
}

func recomputeTotal(ctx context.Context, tx *sql.Tx, saleID string) error {
	rows, err := tx.QueryContext(ctx,
		`SELECT subtotal FROM sale_lines WHERE sale_id = ?`, saleID)
	if err != nil {
		return fmt.Errorf("ledger: recompute total for %s: %w", saleID, err)
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var subtotal string
		if err := rows.Scan(&subtotal); err != nil {
			return fmt.Errorf("ledger: recompute total for %s: %w", saleID, err)
		}
		d, err := decimal.NewFromString(subtotal)
		if err != nil {
			return fmt.Errorf("ledger: parse subtotal %q: %w", subtotal, err)
		}
		total = total.Add(d)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	return writeTotal(ctx, tx, saleID, total)
}

func writeTotal(ctx context.Context, tx *sql.Tx, saleID string, total decimal.Decimal) error {
	if _, err := tx.ExecContext(ctx,
		`UPDATE sales SET total = ? WHERE id = ?`, total.StringFixed(2), saleID); err != nil {
		return fmt.Errorf("ledger: write total for %s: %w", saleID, err)
	}
	return nil
}
