package cart_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Janetzy-GS18/Proyecto-PIA/internal/cart"
	"github.com/Janetzy-GS18/Proyecto-PIA/internal/cart/memory"
	"github.com/Janetzy-GS18/Proyecto-PIA/internal/catalog/domain"
)

type fakeCatalog map[string]*domain.Product

func (f fakeCatalog) GetByID(_ context.Context, id string) (*domain.Product, error) {
	p, ok := f[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return p, nil
}

func newCartService() (*cart.Service, fakeCatalog) {
	catalog := fakeCatalog{
		"p1": {ID: "p1", Name: "Laptop", Price: decimal.RequireFromString("10.00"), Stock: 5},
		"p2": {ID: "p2", Name: "Audifonos", Price: decimal.RequireFromString("2.50"), Stock: 3},
	}
	return cart.NewService(memory.NewStore(), catalog), catalog
}

const sid = "session-1"

func TestAdd(t *testing.T) {
	ctx := context.Background()

	t.Run("creates the entry at delta and accumulates", func(t *testing.T) {
		svc, _ := newCartService()
		require.NoError(t, svc.Add(ctx, sid, "p1", 2))
		require.NoError(t, svc.Add(ctx, sid, "p1", 1))

		items, err := svc.Snapshot(ctx, sid)
		require.NoError(t, err)
		assert.Equal(t, map[string]int{"p1": 3}, items)
	})

	t.Run("unknown product", func(t *testing.T) {
		svc, _ := newCartService()
		err := svc.Add(ctx, sid, "nope", 1)
		assert.ErrorIs(t, err, domain.ErrProductNotFound)
	})

	t.Run("rejects exceeding stock, cart untouched", func(t *testing.T) {
		svc, _ := newCartService()
		require.NoError(t, svc.Add(ctx, sid, "p1", 4))

		err := svc.Add(ctx, sid, "p1", 2) // 4+2 > stock 5
		require.Error(t, err)
		assert.True(t, domain.IsInsufficientStock(err))

		items, err := svc.Snapshot(ctx, sid)
		require.NoError(t, err)
		assert.Equal(t, map[string]int{"p1": 4}, items)
	})

	t.Run("rejects non-positive delta", func(t *testing.T) {
		svc, _ := newCartService()
		assert.Error(t, svc.Add(ctx, sid, "p1", 0))
	})
}

func TestSetQuantity(t *testing.T) {
	ctx := context.Background()

	t.Run("sets exactly", func(t *testing.T) {
		svc, _ := newCartService()
		got, clamped, err := svc.SetQuantity(ctx, sid, "p1", 4)
		require.NoError(t, err)
		assert.Equal(t, 4, got)
		assert.False(t, clamped)
	})

	t.Run("clamps to stock and reports it", func(t *testing.T) {
		svc, _ := newCartService()
		got, clamped, err := svc.SetQuantity(ctx, sid, "p2", 10)
		require.NoError(t, err)
		assert.Equal(t, 3, got)
		assert.True(t, clamped)

		items, err := svc.Snapshot(ctx, sid)
		require.NoError(t, err)
		assert.Equal(t, 3, items["p2"])
	})

	t.Run("zero removes the entry", func(t *testing.T) {
		svc, _ := newCartService()
		require.NoError(t, svc.Add(ctx, sid, "p1", 2))

		got, clamped, err := svc.SetQuantity(ctx, sid, "p1", 0)
		require.NoError(t, err)
		assert.Zero(t, got)
		assert.False(t, clamped)

		items, err := svc.Snapshot(ctx, sid)
		require.NoError(t, err)
		assert.Empty(t, items)
	})

	t.Run("clamp against a sold-out product removes the entry", func(t *testing.T) {
		svc, catalog := newCartService()
		require.NoError(t, svc.Add(ctx, sid, "p2", 1))
		catalog["p2"].Stock = 0

		got, clamped, err := svc.SetQuantity(ctx, sid, "p2", 2)
		require.NoError(t, err)
		assert.Zero(t, got)
		assert.True(t, clamped)

		items, err := svc.Snapshot(ctx, sid)
		require.NoError(t, err)
		assert.Empty(t, items)
	})
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	svc, _ := newCartService()

	require.NoError(t, svc.Add(ctx, sid, "p1", 1))
	require.NoError(t, svc.Remove(ctx, sid, "p1"))
	// Removing an absent product is a no-op, not an error.
	require.NoError(t, svc.Remove(ctx, sid, "p1"))

	items, err := svc.Snapshot(ctx, sid)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestView(t *testing.T) {
	ctx := context.Background()
	svc, _ := newCartService()

	require.NoError(t, svc.Add(ctx, sid, "p1", 2))
	require.NoError(t, svc.Add(ctx, sid, "p2", 3))

	view, err := svc.View(ctx, sid)
	require.NoError(t, err)

	require.Len(t, view.Lines, 2)
	// Ordered by product name.
	assert.Equal(t, "Audifonos", view.Lines[0].Product.Name)
	assert.Equal(t, "Laptop", view.Lines[1].Product.Name)
	assert.Equal(t, "7.50", view.Lines[0].Subtotal.StringFixed(2))
	assert.Equal(t, "20.00", view.Lines[1].Subtotal.StringFixed(2))
	assert.Equal(t, "27.50", view.Total.StringFixed(2))
}

func TestSessionsAreIsolated(t *testing.T) {
	ctx := context.Background()
	svc, _ := newCartService()

	require.NoError(t, svc.Add(ctx, "session-a", "p1", 1))
	require.NoError(t, svc.Add(ctx, "session-b", "p1", 2))

	a, err := svc.Snapshot(ctx, "session-a")
	require.NoError(t, err)
	b, err := svc.Snapshot(ctx, "session-b")
	require.NoError(t, err)
	assert.Equal(t, 1, a["p1"])
	assert.Equal(t, 2, b["p1"])
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	svc, _ := newCartService()

	require.NoError(t, svc.Add(ctx, sid, "p1", 1))
	require.NoError(t, svc.Clear(ctx, sid))

	items, err := svc.Snapshot(ctx, sid)
	require.NoError(t, err)
	assert.Empty(t, items)
}
