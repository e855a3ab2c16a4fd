// Package sqlite provides the SQLite-backed product repository.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Janetzy-GS18/Proyecto-PIA/internal/catalog/domain"
	"github.com/Janetzy-GS18/Proyecto-PIA/internal/store"
)

// Repository persists products. Stock mutations during checkout and voiding
// do not go through here: the ledger adjusts stock inside its own transaction.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new product. The ID is generated when empty.
func (r *Repository) Create(ctx context.Context, p *domain.Product) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	const q = `
		INSERT INTO products (id, name, description, price, stock, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, q,
		p.ID, p.Name, p.Description, p.Price.StringFixed(2), p.Stock, store.FormatTime(p.CreatedAt))
	if err != nil {
		return fmt.Errorf("catalog: create product %q: %w", p.Name, err)
	}
	return nil
}

// Update overwrites name, description, price and stock. This is the
// administrative edit path; it does not participate in any sale.
func (r *Repository) Update(ctx context.Context, p *domain.Product) error {
	if err := p.Validate(); err != nil {
		return err
	}

	const q = `
		UPDATE products
		SET    name = ?, description = ?, price = ?, stock = ?
		WHERE  id = ?`

	res, err := r.db.ExecContext(ctx, q,
		p.Name, p.Description, p.Price.StringFixed(2), p.Stock, p.ID)
	if err != nil {
		return fmt.Errorf("catalog: update product %s: %w", p.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

// GetByID returns a single product or domain.ErrProductNotFound.
func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	const q = `
		SELECT id, name, description, price, stock, created_at
		FROM   products
		WHERE  id = ?`

	p, err := scanProduct(r.db.QueryRowContext(ctx, q, id))
	if err == sql.ErrNoRows {
		return nil, domain.ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("catalog: get product %s: %w", id, err)
	}
	return p, nil
}

// List returns products ordered by name. A non-empty search string filters by
// a case-insensitive substring match on the name.
func (r *Repository) List(ctx context.Context, search string) ([]*domain.Product, error) {
	const q = `
		SELECT id, name, description, price, stock, created_at
		FROM   products
		WHERE  (? = '' OR name LIKE '%' || ? || '%')
		ORDER  BY name`

	rows, err := r.db.QueryContext(ctx, q, search, search)
	if err != nil {
		return nil, fmt.Errorf("catalog: list products: %w", err)
	}
	defer rows.Close()

	var out []*domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("catalog: list products: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(s scanner) (*domain.Product, error) {
	var p domain.Product
	var price, createdAt string
	if err := s.Scan(&p.ID, &p.Name, &p.Description, &price, &p.Stock, &createdAt); err != nil {
		return nil, err
	}

	var err error
	if p.Price, err = decimal.NewFromString(price); err != nil {
		return nil, fmt.Errorf("parse price %q: %w", price, err)
	}
	if p.CreatedAt, err = store.ParseTime(createdAt); err != nil {
		return nil, err
	}
	return &p, nil
}
