// Package catalog exposes the product catalog: administrative writes and a
// cached read path for the storefront.
package catalog

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Janetzy-GS18/Proyecto-PIA/internal/catalog/domain"
	"github.com/Janetzy-GS18/Proyecto-PIA/internal/pkg/cache"
)

// Repository is the persistence port for products.
type Repository interface {
	Create(ctx context.Context, p *domain.Product) error
	Update(ctx context.Context, p *domain.Product) error
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	List(ctx context.Context, search string) ([]*domain.Product, error)
}

// cacheTTL is deliberately short: cached copies feed the storefront only.
// Stock checks in the cart and the ledger always read the repository.
const cacheTTL = 30 * time.Second

// Service wraps the repository with a cache-aside read path.
// cache may be nil, in which case every read goes to the repository.
type Service struct {
	repo  Repository
	cache cache.Cache
	group singleflight.Group
}

func NewService(repo Repository, c cache.Cache) *Service {
	return &Service{repo: repo, cache: c}
}

// Create adds a product and invalidates nothing: a new ID cannot be cached yet.
func (s *Service) Create(ctx context.Context, p *domain.Product) error {
	return s.repo.Create(ctx, p)
}

// Update writes through to the repository and drops the cached copy so the
// next read observes the new price/stock.
func (s *Service) Update(ctx context.Context, p *domain.Product) error {
	if err := s.repo.Update(ctx, p); err != nil {
		return err
	}
	s.invalidate(ctx, p.ID)
	return nil
}

// Invalidate drops the cached copy of a product. The ledger calls this after
// committing a stock change it made directly against the database.
func (s *Service) Invalidate(ctx context.Context, ids ...string) {
	for _, id := range ids {
		s.invalidate(ctx, id)
	}
}

// Get returns a product for display, serving from the cache when possible.
// Concurrent misses for the same ID collapse into one repository read.
func (s *Service) Get(ctx context.Context, id string) (*domain.Product, error) {
	if s.cache == nil {
		return s.repo.GetByID(ctx, id)
	}

	key := s.cache.GenerateKey("product", id)
	if raw, err := s.cache.Get(ctx, key); err == nil && raw != "" {
		var p domain.Product
		if err := json.Unmarshal([]byte(raw), &p); err == nil {
			return &p, nil
		}
	}

	v, err, _ := s.group.Do(id, func() (interface{}, error) {
		p, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if raw, err := json.Marshal(p); err == nil {
			if err := s.cache.Set(ctx, key, string(raw), cacheTTL); err != nil {
				slog.WarnContext(ctx, "product cache set failed", "product_id", id, "error", err)
			}
		}
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Product), nil
}

// List is always served from the repository; search results are too varied to
// be worth caching.
func (s *Service) List(ctx context.Context, search string) ([]*domain.Product, error) {
	return s.repo.List(ctx, search)
}

func (s *Service) invalidate(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, s.cache.GenerateKey("product", id)); err != nil {
		slog.WarnContext(ctx, "product cache invalidation failed", "product_id", id, "error", err)
	}
}
