package facturx

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DocumentCache keeps built documents in Redis so repeated downloads of a
// finalized invoice skip the build. Entries are invalidated by key drop
// when an invoice changes (which only happens for drafts, never after
// finalization, so staleness is bounded to the TTL anyway).
type DocumentCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewDocumentCache instantiates the cache helper. A nil client disables
// caching: Fetch falls through to the loader.
func NewDocumentCache(client *redis.Client, ttl time.Duration) *DocumentCache {
	return &DocumentCache{client: client, ttl: ttl}
}

func documentKey(invoiceID uuid.UUID, profile Profile) string {
	return fmt.Sprintf("facturx:document:%s:%s", invoiceID, profile)
}

// Fetch returns the cached document or populates it using the loader.
func (c *DocumentCache) Fetch(ctx context.Context, invoiceID uuid.UUID, profile Profile, loader func(context.Context) ([]byte, error)) ([]byte, error) {
	if c == nil || c.client == nil {
		return loader(ctx)
	}
	key := documentKey(invoiceID, profile)
	payload, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		return payload, nil
	}
	if err != redis.Nil {
		return nil, fmt.Errorf("facturx: cache get: %w", err)
	}
	payload, err = loader(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		return nil, fmt.Errorf("facturx: cache set: %w", err)
	}
	return payload, nil
}

// Invalidate drops all cached documents for an invoice.
func (c *DocumentCache) Invalidate(ctx context.Context, invoiceID uuid.UUID, profiles []Profile) error {
	if c == nil || c.client == nil {
		return nil
	}
	keys := make([]string, 0, len(profiles))
	for _, p := range profiles {
		keys = append(keys, documentKey(invoiceID, p))
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}
