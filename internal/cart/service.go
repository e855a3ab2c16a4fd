package cart

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/Janetzy-GS18/Proyecto-PIA/internal/catalog/domain"
)

// Catalog is the slice of the product repository the cart needs. Stock checks
// here are advisory (the ledger re-validates at commit time), but they still
// read live rows, never a cached copy.
type Catalog interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
}

// Service implements the cart operations on top of a Store and the catalog.
type Service struct {
	store   Store
	catalog Catalog
}

func NewService(store Store, catalog Catalog) *Service {
	return &Service{store: store, catalog: catalog}
}

// Add increments the product's quantity by delta, creating the entry at delta
// when absent. It fails with domain.ErrProductNotFound for an unknown product
// and with *domain.InsufficientStockError when the resulting quantity would
// exceed the product's live stock.
func (s *Service) Add(ctx context.Context, sessionID, productID string, delta int) error {
	if delta <= 0 {
		return fmt.Errorf("cart: add delta must be positive, got %d", delta)
	}

	product, err := s.catalog.GetByID(ctx, productID)
	if err != nil {
		return err
	}

	items, err := s.store.Items(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("cart: load session %s: %w", sessionID, err)
	}

	next := items[productID] + delta
	if next > product.Stock {
		return &domain.InsufficientStockError{
			ProductID:   product.ID,
			ProductName: product.Name,
			Requested:   next,
			Available:   product.Stock,
		}
	}

	return s.store.SetItem(ctx, sessionID, productID, next)
}

// SetQuantity sets the product's quantity exactly. A quantity ≤ 0 removes the
// entry. A quantity above the product's stock is clamped to the stock and
// reported via the returned flag; the call itself still succeeds.
// The returned int is the quantity actually stored (0 when removed).
func (s *Service) SetQuantity(ctx context.Context, sessionID, productID string, quantity int) (int, bool, error) {
	if quantity <= 0 {
		return 0, false, s.store.RemoveItem(ctx, sessionID, productID)
	}

	product, err := s.catalog.GetByID(ctx, productID)
	if err != nil {
		return 0, false, err
	}

	clamped := false
	if quantity > product.Stock {
		quantity = product.Stock
		clamped = true
	}
	if quantity == 0 {
		// Clamping against a sold-out product empties the entry.
		return 0, clamped, s.store.RemoveItem(ctx, sessionID, productID)
	}

	return quantity, clamped, s.store.SetItem(ctx, sessionID, productID, quantity)
}

// Remove drops the product from the cart. Removing an absent product is a
// no-op.
func (s *Service) Remove(ctx context.Context, sessionID, productID string) error {
	return s.store.RemoveItem(ctx, sessionID, productID)
}

// View builds the cart projection: lines ordered by product name with
// per-line subtotals and the cart total. Purely a read, no mutation.
func (s *Service) View(ctx context.Context, sessionID string) (*View, error) {
	items, err := s.store.Items(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("cart: load session %s: %w", sessionID, err)
	}

	view := &View{Total: decimal.Zero}
	for productID, quantity := range items {
		product, err := s.catalog.GetByID(ctx, productID)
		if err != nil {
			return nil, err
		}
		subtotal := product.Price.Mul(decimal.NewFromInt(int64(quantity)))
		view.Lines = append(view.Lines, Line{
			Product:  product,
			Quantity: quantity,
			Subtotal: subtotal,
		})
		view.Total = view.Total.Add(subtotal)
	}

	sort.Slice(view.Lines, func(i, j int) bool {
		return view.Lines[i].Product.Name < view.Lines[j].Product.Name
	})
	return view, nil
}

// Snapshot returns the raw productID → quantity mapping for checkout.
func (s *Service) Snapshot(ctx context.Context, sessionID string) (map[string]int, error) {
	return s.store.Items(ctx, sessionID)
}

// Clear empties the cart. Checkout calls this once after its transaction
// commits.
func (s *Service) Clear(ctx context.Context, sessionID string) error {
	return s.store.Clear(ctx, sessionID)
}
