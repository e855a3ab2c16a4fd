package sqlite_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	catalogdomain "github.com/Janetzy-GS18/Proyecto-PIA/internal/catalog/domain"
	catalogsqlite "github.com/Janetzy-GS18/Proyecto-PIA/internal/catalog/sqlite"
	customerdomain "github.com/Janetzy-GS18/Proyecto-PIA/internal/customer/domain"
	customersqlite "github.com/Janetzy-GS18/Proyecto-PIA/internal/customer/sqlite"
	ledgerdomain "github.com/Janetzy-GS18/Proyecto-PIA/internal/ledger/domain"
	ledgersqlite "github.com/Janetzy-GS18/Proyecto-PIA/internal/ledger/sqlite"
	"github.com/Janetzy-GS18/Proyecto-PIA/internal/reporting"
	reportingsqlite "github.com/Janetzy-GS18/Proyecto-PIA/internal/reporting/sqlite"
	"github.com/Janetzy-GS18/Proyecto-PIA/internal/store"
)

type fixture struct {
	reports  *reporting.Service
	customer *customerdomain.Customer
	active   *ledgerdomain.Sale
	voided   *ledgerdomain.Sale
}

// newFixture seeds one customer with two sales (10.00 and 20.00) and voids the
// second one.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	db, err := store.Open(filepath.Join(t.TempDir(), "shop.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	products := catalogsqlite.NewRepository(db)
	p := &catalogdomain.Product{Name: "Laptop", Price: decimal.RequireFromString("10.00"), Stock: 50}
	require.NoError(t, products.Create(ctx, p))

	customer := &customerdomain.Customer{
		Name:    "Juan Perez",
		Email:   "juan@example.com",
		Address: "Calle 1 #23",
		Phones:  []string{"8112345678"},
	}
	require.NoError(t, customersqlite.NewRepository(db).Create(ctx, customer))

	ledger := ledgersqlite.NewRepository(db)
	active, err := ledger.Checkout(ctx, customer.ID, map[string]int{p.ID: 1})
	require.NoError(t, err)
	second, err := ledger.Checkout(ctx, customer.ID, map[string]int{p.ID: 2})
	require.NoError(t, err)
	voided, err := ledger.Void(ctx, second.ID)
	require.NoError(t, err)

	return &fixture{
		reports:  reporting.NewService(reportingsqlite.NewRepository(db)),
		customer: customer,
		active:   active,
		voided:   voided,
	}
}

func TestListSales(t *testing.T) {
	ctx := context.Background()

	t.Run("no filter returns everything in creation order", func(t *testing.T) {
		f := newFixture(t)
		rows, err := f.reports.ListSales(ctx, reporting.Filter{})
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, f.active.ID, rows[0].ID)
		assert.Equal(t, f.voided.ID, rows[1].ID)
		assert.Equal(t, "Juan Perez", rows[0].CustomerName)
		assert.Equal(t, "active", rows[0].State)
		assert.Equal(t, "voided", rows[1].State)
	})

	t.Run("excluding voided keeps only active sales", func(t *testing.T) {
		f := newFixture(t)
		rows, err := f.reports.ListSales(ctx, reporting.Filter{ExcludeState: "voided"})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, f.active.ID, rows[0].ID)
	})

	t.Run("date range bounds are inclusive", func(t *testing.T) {
		f := newFixture(t)

		rows, err := f.reports.ListSales(ctx, reporting.Filter{From: f.active.CreatedAt, To: f.voided.CreatedAt})
		require.NoError(t, err)
		assert.Len(t, rows, 2)

		rows, err = f.reports.ListSales(ctx, reporting.Filter{To: f.active.CreatedAt})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, f.active.ID, rows[0].ID)

		rows, err = f.reports.ListSales(ctx, reporting.Filter{From: f.voided.CreatedAt.Add(time.Second)})
		require.NoError(t, err)
		assert.Empty(t, rows)
	})

	t.Run("customer filter", func(t *testing.T) {
		f := newFixture(t)
		rows, err := f.reports.ListSales(ctx, reporting.Filter{CustomerID: "nope"})
		require.NoError(t, err)
		assert.Empty(t, rows)

		rows, err = f.reports.ListSales(ctx, reporting.Filter{CustomerID: f.customer.ID})
		require.NoError(t, err)
		assert.Len(t, rows, 2)
	})
}

func TestRevenueTotal(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	// The voided 20.00 sale never counts, even with an empty filter.
	total, err := f.reports.RevenueTotal(ctx, reporting.Filter{})
	require.NoError(t, err)
	assert.Equal(t, "10.00", total.StringFixed(2))
}

func TestWriteCSV(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	var buf bytes.Buffer
	require.NoError(t, f.reports.WriteCSV(ctx, &buf, reporting.Filter{}))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"sale_id", "customer", "date", "total", "state"}, records[0])
	assert.Equal(t, f.active.ID, records[1][0])
	assert.Equal(t, "10.00", records[1][3])
	assert.Equal(t, "active", records[1][4])
	assert.Equal(t, "voided", records[2][4])
}

func TestReceipt(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	receipt, err := f.reports.Receipt(ctx, f.active.ID)
	require.NoError(t, err)

	assert.Equal(t, f.active.ID, receipt.SaleID)
	assert.Equal(t, "active", receipt.State)
	assert.Equal(t, "Juan Perez", receipt.CustomerName)
	assert.Equal(t, "Calle 1 #23", receipt.CustomerAddress)
	assert.Equal(t, []string{"8112345678"}, receipt.CustomerPhones)
	require.Len(t, receipt.Lines, 1)
	assert.Equal(t, "Laptop", receipt.Lines[0].ProductName)
	assert.Equal(t, 1, receipt.Lines[0].Quantity)
	assert.Equal(t, "10.00", receipt.Lines[0].Subtotal.StringFixed(2))
	assert.Equal(t, "10.00", receipt.Total.StringFixed(2))
}

func TestReceiptMissingSale(t *testing.T) {
	f := newFixture(t)
	_, err := f.reports.Receipt(context.Background(), "nope")
	assert.ErrorIs(t, err, ledgerdomain.ErrSaleNotFound)
}
