// Package sqlite provides the SQLite-backed customer repository.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Janetzy-GS18/Proyecto-PIA/internal/customer/domain"
	"github.com/Janetzy-GS18/Proyecto-PIA/internal/store"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a customer together with any phones carried on the struct.
func (r *Repository) Create(ctx context.Context, c *domain.Customer) error {
	if c.Name == "" || c.Email == "" {
		return errors.New("customer name and email are required")
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("customer: begin create: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO customers (id, name, email, address, created_at) VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.Email, c.Address, store.FormatTime(c.CreatedAt))
	if err != nil {
		return fmt.Errorf("customer: create %q: %w", c.Email, err)
	}

	for _, phone := range c.Phones {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO customer_phones (customer_id, phone) VALUES (?, ?)`,
			c.ID, phone); err != nil {
			return fmt.Errorf("customer: add phone %q: %w", phone, err)
		}
	}

	return tx.Commit()
}

// AddPhone registers another contact number. Duplicates are rejected by the
// primary key.
func (r *Repository) AddPhone(ctx context.Context, customerID, phone string) error {
	if _, err := r.GetByID(ctx, customerID); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO customer_phones (customer_id, phone) VALUES (?, ?)`,
		customerID, phone)
	if err != nil {
		return fmt.Errorf("customer: add phone %q for %s: %w", phone, customerID, err)
	}
	return nil
}

// GetByID returns the customer with phones loaded, or
// domain.ErrCustomerNotFound.
func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	const q = `SELECT id, name, email, address, created_at FROM customers WHERE id = ?`

	var c domain.Customer
	var createdAt string
	err := r.db.QueryRowContext(ctx, q, id).Scan(&c.ID, &c.Name, &c.Email, &c.Address, &createdAt)
	if err == sql.ErrNoRows {
		return nil, domain.ErrCustomerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("customer: get %s: %w", id, err)
	}
	if c.CreatedAt, err = store.ParseTime(createdAt); err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT phone FROM customer_phones WHERE customer_id = ? ORDER BY phone`, id)
	if err != nil {
		return nil, fmt.Errorf("customer: phones for %s: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var phone string
		if err := rows.Scan(&phone); err != nil {
			return nil, fmt.Errorf("customer: phones for %s: %w", id, err)
		}
		c.Phones = append(c.Phones, phone)
	}
	return &c, rows.Err()
}

// Exists reports whether id resolves to a registered customer.
func (r *Repository) Exists(ctx context.Context, id string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM customers WHERE id = ?`, id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("customer: exists %s: %w", id, err)
	}
	return true, nil
}
