// Package redis stores carts as Redis hashes, one per session.
//
// Key layout: cart:<sessionID> → { productID: quantity }. Every write
// refreshes an idle TTL so abandoned carts expire on their own; the session
// layer never has to clean up after itself.
package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// idleTTL is how long an untouched cart survives.
const idleTTL = 24 * time.Hour

type Store struct {
	client *redis.Client
}

func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

func key(sessionID string) string {
	return "cart:" + sessionID
}

func (s *Store) Items(ctx context.Context, sessionID string) (map[string]int, error) {
	raw, err := s.client.HGetAll(ctx, key(sessionID)).Result()
	if err != nil {
		return nil, fmt.Errorf("cart redis: read %s: %w", sessionID, err)
	}

	items := make(map[string]int, len(raw))
	for productID, qty := range raw {
		n, err := strconv.Atoi(qty)
		if err != nil {
			return nil, fmt.Errorf("cart redis: corrupt quantity %q for product %s: %w", qty, productID, err)
		}
		items[productID] = n
	}
	return items, nil
}

func (s *Store) SetItem(ctx context.Context, sessionID, productID string, quantity int) error {
	k := key(sessionID)
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, k, productID, quantity)
	pipe.Expire(ctx, k, idleTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cart redis: set %s/%s: %w", sessionID, productID, err)
	}
	return nil
}

func (s *Store) RemoveItem(ctx context.Context, sessionID, productID string) error {
	if err := s.client.HDel(ctx, key(sessionID), productID).Err(); err != nil {
		return fmt.Errorf("cart redis: remove %s/%s: %w", sessionID, productID, err)
	}
	return nil
}

func (s *Store) Clear(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, key(sessionID)).Err(); err != nil {
		return fmt.Errorf("cart redis: clear %s: %w", sessionID, err)
	}
	return nil
}
