// Package ledger converts carts into persisted sales and manages the sale
// lifecycle, keeping product stock and sale totals consistent.
package ledger

import (
	"context"
	"log/slog"
	"time"

	"github.com/Janetzy-GS18/Proyecto-PIA/internal/events"
	"github.com/Janetzy-GS18/Proyecto-PIA/internal/ledger/domain"
)

// Repository is the transactional persistence port. Every method is
// all-or-nothing: a failure leaves stock and totals untouched.
type Repository interface {
	Checkout(ctx context.Context, customerID string, snapshot map[string]int) (*domain.Sale, error)
	WriteLine(ctx context.Context, saleID, productID string, quantity int) (*domain.Sale, error)
	DeleteLine(ctx context.Context, saleID, productID string) (*domain.Sale, error)
	Void(ctx context.Context, saleID string) (*domain.Sale, error)
	GetByID(ctx context.Context, saleID string) (*domain.Sale, error)
	ListByCustomer(ctx context.Context, customerID string) ([]*domain.Sale, error)
}

// Carts is the slice of the cart service the ledger needs around a checkout.
type Carts interface {
	Snapshot(ctx context.Context, sessionID string) (map[string]int, error)
	Clear(ctx context.Context, sessionID string) error
}

// Invalidator drops cached product copies after the ledger changed stock
// behind the catalog's back.
type Invalidator interface {
	Invalidate(ctx context.Context, ids ...string)
}

type Service struct {
	repo      Repository
	carts     Carts
	products  Invalidator
	publisher events.Publisher
}

func NewService(repo Repository, carts Carts, products Invalidator, publisher events.Publisher) *Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Service{repo: repo, carts: carts, products: products, publisher: publisher}
}

// Checkout snapshots the session's cart, commits it as a sale and clears the
// cart. The repository re-validates every quantity against current stock
// inside its transaction, so stale add-to-cart checks cannot oversell.
func (s *Service) Checkout(ctx context.Context, customerID, sessionID string) (*domain.Sale, error) {
	snapshot, err := s.carts.Snapshot(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	sale, err := s.repo.Checkout(ctx, customerID, snapshot)
	if err != nil {
		return nil, err
	}

	if err := s.carts.Clear(ctx, sessionID); err != nil {
		// The sale is committed; a stale cart is an inconvenience, not a
		// consistency problem. The next checkout re-validates anyway.
		slog.WarnContext(ctx, "cart clear after checkout failed", "session_id", sessionID, "error", err)
	}
	s.invalidateLines(ctx, sale)
	s.publish(ctx, events.TypeSaleCompleted, sale)

	return sale, nil
}

// WriteLine creates or edits a line on an active sale.
func (s *Service) WriteLine(ctx context.Context, saleID, productID string, quantity int) (*domain.Sale, error) {
	sale, err := s.repo.WriteLine(ctx, saleID, productID, quantity)
	if err != nil {
		return nil, err
	}
	s.products.Invalidate(ctx, productID)
	return sale, nil
}

// DeleteLine removes a line from an active sale, restoring its stock.
func (s *Service) DeleteLine(ctx context.Context, saleID, productID string) (*domain.Sale, error) {
	sale, err := s.repo.DeleteLine(ctx, saleID, productID)
	if err != nil {
		return nil, err
	}
	s.products.Invalidate(ctx, productID)
	return sale, nil
}

// Void transitions a sale to voided and restores the stock its lines
// consumed. Only the owning customer may void; admin bypasses the ownership
// check. The transition is one-way.
func (s *Service) Void(ctx context.Context, saleID, requesterID string, admin bool) (*domain.Sale, error) {
	sale, err := s.repo.GetByID(ctx, saleID)
	if err != nil {
		return nil, err
	}
	if !admin && sale.CustomerID != requesterID {
		return nil, domain.ErrNotOwner
	}

	voided, err := s.repo.Void(ctx, saleID)
	if err != nil {
		return nil, err
	}

	s.invalidateLines(ctx, voided)
	s.publish(ctx, events.TypeSaleVoided, voided)
	return voided, nil
}

// Get returns a sale with its lines.
func (s *Service) Get(ctx context.Context, saleID string) (*domain.Sale, error) {
	return s.repo.GetByID(ctx, saleID)
}

// History returns a customer's sales, newest first.
func (s *Service) History(ctx context.Context, customerID string) ([]*domain.Sale, error) {
	return s.repo.ListByCustomer(ctx, customerID)
}

func (s *Service) invalidateLines(ctx context.Context, sale *domain.Sale) {
	ids := make([]string, 0, len(sale.Lines))
	for _, line := range sale.Lines {
		ids = append(ids, line.ProductID)
	}
	s.products.Invalidate(ctx, ids...)
}

func (s *Service) publish(ctx context.Context, eventType string, sale *domain.Sale) {
	// Detached from the request context so an already-sent HTTP response
	// does not cancel the publish.
	evt := events.SaleEvent{
		Type:       eventType,
		SaleID:     sale.ID,
		CustomerID: sale.CustomerID,
		Total:      sale.Total.StringFixed(2),
		OccurredAt: time.Now().UTC(),
	}
	if err := s.publisher.PublishSale(context.WithoutCancel(ctx), evt); err != nil {
		slog.ErrorContext(ctx, "sale event publish failed", "sale_id", sale.ID, "type", eventType, "error", err)
	}
}
