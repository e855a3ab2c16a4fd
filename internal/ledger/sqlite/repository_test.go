package sqlite_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	catalogdomain "github.com/Janetzy-GS18/Proyecto-PIA/internal/catalog/domain"
	catalogsqlite "github.com/Janetzy-GS18/Proyecto-PIA/internal/catalog/sqlite"
	customerdomain "github.com/Janetzy-GS18/Proyecto-PIA/internal/customer/domain"
	customersqlite "github.com/Janetzy-GS18/Proyecto-PIA/internal/customer/sqlite"
	"github.com/Janetzy-GS18/Proyecto-PIA/internal/ledger/domain"
	ledgersqlite "github.com/Janetzy-GS18/Proyecto-PIA/internal/ledger/sqlite"
	"github.com/Janetzy-GS18/Proyecto-PIA/internal/store"
)

type fixture struct {
	db       *sql.DB
	ledger   *ledgersqlite.Repository
	products *catalogsqlite.Repository
	customer *customerdomain.Customer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := store.Open(filepath.Join(t.TempDir(), "shop.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	f := &fixture{
		db:       db,
		ledger:   ledgersqlite.NewRepository(db),
		products: catalogsqlite.NewRepository(db),
	}

	f.customer = &customerdomain.Customer{Name: "Juan Perez", Email: "juan@example.com", Address: "Calle 1"}
	require.NoError(t, customersqlite.NewRepository(db).Create(context.Background(), f.customer))
	return f
}

func (f *fixture) product(t *testing.T, name, price string, stock int) *catalogdomain.Product {
	t.Helper()
	p := &catalogdomain.Product{
		Name:  name,
		Price: decimal.RequireFromString(price),
		Stock: stock,
	}
	require.NoError(t, f.products.Create(context.Background(), p))
	return p
}

func (f *fixture) stock(t *testing.T, productID string) int {
	t.Helper()
	p, err := f.products.GetByID(context.Background(), productID)
	require.NoError(t, err)
	return p.Stock
}

func TestCheckout(t *testing.T) {
	ctx := context.Background()

	t.Run("creates sale, lines and decrements stock", func(t *testing.T) {
		f := newFixture(t)
		p := f.product(t, "Laptop", "10.00", 5)

		sale, err := f.ledger.Checkout(ctx, f.customer.ID, map[string]int{p.ID: 3})
		require.NoError(t, err)

		assert.Equal(t, domain.StateActive, sale.State)
		assert.Equal(t, "30.00", sale.Total.StringFixed(2))
		require.Len(t, sale.Lines, 1)
		assert.Equal(t, 3, sale.Lines[0].Quantity)
		assert.Equal(t, "30.00", sale.Lines[0].Subtotal.StringFixed(2))
		assert.Equal(t, 2, f.stock(t, p.ID))
	})

	t.Run("total equals sum of line subtotals", func(t *testing.T) {
		f := newFixture(t)
		a := f.product(t, "A", "2.50", 10)
		b := f.product(t, "B", "7.25", 10)

		sale, err := f.ledger.Checkout(ctx, f.customer.ID, map[string]int{a.ID: 2, b.ID: 3})
		require.NoError(t, err)

		sum := decimal.Zero
		for _, line := range sale.Lines {
			sum = sum.Add(line.Subtotal)
		}
		assert.True(t, sale.Total.Equal(sum), "total %s != sum of subtotals %s", sale.Total, sum)
		assert.Equal(t, "26.75", sale.Total.StringFixed(2))
	})

	t.Run("insufficient stock fails whole operation", func(t *testing.T) {
		f := newFixture(t)
		p := f.product(t, "Laptop", "10.00", 5)

		_, err := f.ledger.Checkout(ctx, f.customer.ID, map[string]int{p.ID: 10})
		require.Error(t, err)
		assert.True(t, catalogdomain.IsInsufficientStock(err))
		assert.Equal(t, 5, f.stock(t, p.ID))

		var count int
		require.NoError(t, f.db.QueryRow(`SELECT COUNT(*) FROM sales`).Scan(&count))
		assert.Zero(t, count, "no sale row may survive a failed checkout")
	})

	t.Run("failure on one product leaves other products untouched", func(t *testing.T) {
		f := newFixture(t)
		a := f.product(t, "A", "1.00", 10)
		b := f.product(t, "B", "1.00", 2)

		_, err := f.ledger.Checkout(ctx, f.customer.ID, map[string]int{a.ID: 1, b.ID: 5})
		require.Error(t, err)
		assert.True(t, catalogdomain.IsInsufficientStock(err))
		assert.Equal(t, 10, f.stock(t, a.ID))
		assert.Equal(t, 2, f.stock(t, b.ID))
	})

	t.Run("empty cart", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.ledger.Checkout(ctx, f.customer.ID, nil)
		assert.ErrorIs(t, err, domain.ErrEmptyCart)
	})

	t.Run("unknown customer", func(t *testing.T) {
		f := newFixture(t)
		p := f.product(t, "Laptop", "10.00", 5)
		_, err := f.ledger.Checkout(ctx, "nope", map[string]int{p.ID: 1})
		assert.ErrorIs(t, err, customerdomain.ErrCustomerNotFound)
	})

	t.Run("unknown product", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.ledger.Checkout(ctx, f.customer.ID, map[string]int{"nope": 1})
		assert.ErrorIs(t, err, catalogdomain.ErrProductNotFound)
	})
}

func TestWriteLine(t *testing.T) {
	ctx := context.Background()

	t.Run("shrinking a line restores stock and lowers the total", func(t *testing.T) {
		f := newFixture(t)
		p := f.product(t, "Laptop", "10.00", 5)
		sale, err := f.ledger.Checkout(ctx, f.customer.ID, map[string]int{p.ID: 3})
		require.NoError(t, err)

		updated, err := f.ledger.WriteLine(ctx, sale.ID, p.ID, 1)
		require.NoError(t, err)

		assert.Equal(t, 4, f.stock(t, p.ID)) // 2 + restored 2
		assert.Equal(t, "10.00", updated.Total.StringFixed(2))
		require.Len(t, updated.Lines, 1)
		assert.Equal(t, 1, updated.Lines[0].Quantity)
	})

	t.Run("growing a line consumes only the delta", func(t *testing.T) {
		f := newFixture(t)
		p := f.product(t, "Laptop", "10.00", 5)
		sale, err := f.ledger.Checkout(ctx, f.customer.ID, map[string]int{p.ID: 2})
		require.NoError(t, err)

		updated, err := f.ledger.WriteLine(ctx, sale.ID, p.ID, 4)
		require.NoError(t, err)

		assert.Equal(t, 1, f.stock(t, p.ID))
		assert.Equal(t, "40.00", updated.Total.StringFixed(2))
	})

	t.Run("growing beyond stock fails without partial change", func(t *testing.T) {
		f := newFixture(t)
		p := f.product(t, "Laptop", "10.00", 5)
		sale, err := f.ledger.Checkout(ctx, f.customer.ID, map[string]int{p.ID: 3})
		require.NoError(t, err)

		_, err = f.ledger.WriteLine(ctx, sale.ID, p.ID, 9) // delta 6 > stock 2
		require.Error(t, err)
		assert.True(t, catalogdomain.IsInsufficientStock(err))

		assert.Equal(t, 2, f.stock(t, p.ID))
		unchanged, err := f.ledger.GetByID(ctx, sale.ID)
		require.NoError(t, err)
		assert.Equal(t, "30.00", unchanged.Total.StringFixed(2))
		assert.Equal(t, 3, unchanged.Lines[0].Quantity)
	})

	t.Run("adding a new line to an existing sale", func(t *testing.T) {
		f := newFixture(t)
		a := f.product(t, "A", "10.00", 5)
		b := f.product(t, "B", "5.00", 5)
		sale, err := f.ledger.Checkout(ctx, f.customer.ID, map[string]int{a.ID: 1})
		require.NoError(t, err)

		updated, err := f.ledger.WriteLine(ctx, sale.ID, b.ID, 2)
		require.NoError(t, err)

		require.Len(t, updated.Lines, 2)
		assert.Equal(t, "20.00", updated.Total.StringFixed(2))
		assert.Equal(t, 3, f.stock(t, b.ID))
	})

	t.Run("subtotal captures the current price on edit", func(t *testing.T) {
		f := newFixture(t)
		p := f.product(t, "Laptop", "10.00", 10)
		sale, err := f.ledger.Checkout(ctx, f.customer.ID, map[string]int{p.ID: 2})
		require.NoError(t, err)

		// Raise the price; the committed subtotal must not move on its own.
		fresh, err := f.products.GetByID(ctx, p.ID)
		require.NoError(t, err)
		fresh.Price = decimal.RequireFromString("12.00")
		require.NoError(t, f.products.Update(ctx, fresh))

		unchanged, err := f.ledger.GetByID(ctx, sale.ID)
		require.NoError(t, err)
		assert.Equal(t, "20.00", unchanged.Total.StringFixed(2))

		// An explicit edit of the line re-captures the price.
		updated, err := f.ledger.WriteLine(ctx, sale.ID, p.ID, 2)
		require.NoError(t, err)
		assert.Equal(t, "24.00", updated.Total.StringFixed(2))
	})

	t.Run("rejects edits on a voided sale", func(t *testing.T) {
		f := newFixture(t)
		p := f.product(t, "Laptop", "10.00", 5)
		sale, err := f.ledger.Checkout(ctx, f.customer.ID, map[string]int{p.ID: 1})
		require.NoError(t, err)
		_, err = f.ledger.Void(ctx, sale.ID)
		require.NoError(t, err)

		_, err = f.ledger.WriteLine(ctx, sale.ID, p.ID, 2)
		assert.ErrorIs(t, err, domain.ErrSaleVoided)
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		f := newFixture(t)
		p := f.product(t, "Laptop", "10.00", 5)
		sale, err := f.ledger.Checkout(ctx, f.customer.ID, map[string]int{p.ID: 1})
		require.NoError(t, err)

		_, err = f.ledger.WriteLine(ctx, sale.ID, p.ID, 0)
		assert.Error(t, err)
	})
}

func TestDeleteLine(t *testing.T) {
	ctx := context.Background()

	t.Run("restores stock and recomputes total", func(t *testing.T) {
		f := newFixture(t)
		a := f.product(t, "A", "10.00", 5)
		b := f.product(t, "B", "5.00", 5)
		sale, err := f.ledger.Checkout(ctx, f.customer.ID, map[string]int{a.ID: 2, b.ID: 1})
		require.NoError(t, err)

		updated, err := f.ledger.DeleteLine(ctx, sale.ID, a.ID)
		require.NoError(t, err)

		assert.Equal(t, 5, f.stock(t, a.ID))
		assert.Equal(t, "5.00", updated.Total.StringFixed(2))
		require.Len(t, updated.Lines, 1)
		assert.Equal(t, b.ID, updated.Lines[0].ProductID)
	})

	t.Run("missing line", func(t *testing.T) {
		f := newFixture(t)
		p := f.product(t, "Laptop", "10.00", 5)
		sale, err := f.ledger.Checkout(ctx, f.customer.ID, map[string]int{p.ID: 1})
		require.NoError(t, err)

		_, err = f.ledger.DeleteLine(ctx, sale.ID, "nope")
		assert.ErrorIs(t, err, domain.ErrLineNotFound)
	})
}

func TestVoid(t *testing.T) {
	ctx := context.Background()

	t.Run("restores stock, flips state, preserves total", func(t *testing.T) {
		f := newFixture(t)
		p := f.product(t, "Laptop", "10.00", 5)
		sale, err := f.ledger.Checkout(ctx, f.customer.ID, map[string]int{p.ID: 3})
		require.NoError(t, err)
		require.Equal(t, 2, f.stock(t, p.ID))

		voided, err := f.ledger.Void(ctx, sale.ID)
		require.NoError(t, err)

		assert.Equal(t, domain.StateVoided, voided.State)
		assert.Equal(t, "30.00", voided.Total.StringFixed(2))
		assert.Len(t, voided.Lines, 1, "voiding must not erase the lines")
		assert.Equal(t, 5, f.stock(t, p.ID))
	})

	t.Run("voiding twice fails without double-restoring", func(t *testing.T) {
		f := newFixture(t)
		p := f.product(t, "Laptop", "10.00", 5)
		sale, err := f.ledger.Checkout(ctx, f.customer.ID, map[string]int{p.ID: 3})
		require.NoError(t, err)

		_, err = f.ledger.Void(ctx, sale.ID)
		require.NoError(t, err)
		_, err = f.ledger.Void(ctx, sale.ID)
		assert.ErrorIs(t, err, domain.ErrAlreadyVoided)
		assert.Equal(t, 5, f.stock(t, p.ID))
	})

	t.Run("unknown sale", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.ledger.Void(ctx, "nope")
		assert.ErrorIs(t, err, domain.ErrSaleNotFound)
	})
}

func TestListByCustomer(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.product(t, "Laptop", "10.00", 50)

	first, err := f.ledger.Checkout(ctx, f.customer.ID, map[string]int{p.ID: 1})
	require.NoError(t, err)
	second, err := f.ledger.Checkout(ctx, f.customer.ID, map[string]int{p.ID: 2})
	require.NoError(t, err)

	sales, err := f.ledger.ListByCustomer(ctx, f.customer.ID)
	require.NoError(t, err)
	require.Len(t, sales, 2)
	// Newest first.
	assert.Equal(t, second.ID, sales[0].ID)
	assert.Equal(t, first.ID, sales[1].ID)
}
