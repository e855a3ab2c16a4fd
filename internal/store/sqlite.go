// Package store opens the shop's SQLite database and applies the schema.
//
// WAL mode is enabled on Open so that report queries never block checkout
// writes. The pool is capped at a single connection: SQLite performs best with
// one writer, and the ledger relies on that connection serializing stock
// updates.
package store

import (
	"database/sql"
	"fmt"

	// Register the pure-Go SQLite driver. modernc.org/sqlite avoids CGO,
	// which keeps the Docker (Alpine) build simple.
	_ "modernc.org/sqlite"
)

// schema is the DDL executed once on startup. Idempotent via IF NOT EXISTS.
//
// Money columns (price, subtotal, total) are canonical decimal strings, never
// floats; all arithmetic on them happens in Go with fixed-point decimals.
// Timestamps are RFC3339 TEXT, the SQLite idiom.
const schema = `
CREATE TABLE IF NOT EXISTS customers (
    id          TEXT PRIMARY KEY,
    name        TEXT NOT NULL,
    email       TEXT NOT NULL UNIQUE,
    address     TEXT NOT NULL DEFAULT '',
    created_at  TEXT NOT NULL
);

-- A customer can register any number of phones; duplicates are rejected.
CREATE TABLE IF NOT EXISTS customer_phones (
    customer_id TEXT NOT NULL REFERENCES customers(id) ON DELETE CASCADE,
    phone       TEXT NOT NULL,
    PRIMARY KEY (customer_id, phone)
);

CREATE TABLE IF NOT EXISTS products (
    id          TEXT PRIMARY KEY,
    name        TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    price       TEXT NOT NULL,
    stock       INTEGER NOT NULL CHECK (stock >= 0),
    created_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS sales (
    id          TEXT PRIMARY KEY,
    customer_id TEXT NOT NULL REFERENCES customers(id),
    -- 'active' or 'voided'. Voided sales keep their rows and their total;
    -- reporting filters on this column instead of deleting anything.
    state       TEXT NOT NULL DEFAULT 'active',
    total       TEXT NOT NULL DEFAULT '0',
    created_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS sale_lines (
    sale_id     TEXT NOT NULL REFERENCES sales(id) ON DELETE CASCADE,
    product_id  TEXT NOT NULL REFERENCES products(id),
    quantity    INTEGER NOT NULL CHECK (quantity > 0),
    subtotal    TEXT NOT NULL,
    -- A product appears at most once per sale; edits update the line in place.
    PRIMARY KEY (sale_id, product_id)
);

CREATE INDEX IF NOT EXISTS idx_sales_customer ON sales(customer_id, created_at);
CREATE INDEX IF NOT EXISTS idx_sales_created ON sales(created_at);
`

// Open opens (or creates) the SQLite database at the given path and applies
// the schema.
//
//	db, err := store.Open("./data/shop.db")
func Open(path string) (*sql.DB, error) {
	// The pure-Go driver takes _pragma query parameters for connection state.
	// busy_timeout waits for locks instead of failing immediately.
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)", path)

	// Use "sqlite", not "sqlite3", for the modernc driver.
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open %q: %w", path, err)
	}

	// Single writer connection; see package comment.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}

	return db, nil
}
