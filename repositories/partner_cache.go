package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/baaten/partner_console/models"
	"github.com/go-redis/redis/v8"
)

const partnerCachePrefix = "partners"

// PartnerCache stores partner list pages in Redis. Pages are keyed under a
// generation counter; bumping the counter orphans every page at once and the
// TTL reclaims them.
type PartnerCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewPartnerCache(client *redis.Client, ttl time.Duration) *PartnerCache {
	return &PartnerCache{client: client, ttl: ttl}
}

func generationKey() string {
	return partnerCachePrefix + ":gen"
}

func pageKey(gen int64, page, limit int) string {
	return fmt.Sprintf("%s:v%d:page:%d:limit:%d", partnerCachePrefix, gen, page, limit)
}

func (c *PartnerCache) generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, generationKey()).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return gen, err
}

// Get returns a cached page and the generation it was looked up in. Any
// Redis error counts as a miss; gen is -1 when the generation could not be read.
func (c *PartnerCache) Get(ctx context.Context, page, limit int) (*models.PartnerPage, int64, bool) {
	gen, err := c.generation(ctx)
	if err != nil {
		return nil, -1, false
	}

	raw, err := c.client.Get(ctx, pageKey(gen, page, limit)).Bytes()
	if err != nil {
		return nil, gen, false
	}

	var result models.PartnerPage
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, gen, false
	}
	return &result, gen, true
}

// Set stores a page under gen, the generation returned by the Get that missed.
// A page stored under a superseded generation is never read and expires with the TTL.
func (c *PartnerCache) Set(ctx context.Context, gen int64, page, limit int, result *models.PartnerPage) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, pageKey(gen, page, limit), raw, c.ttl).Err()
}

// Invalidate drops every cached page by bumping the generation
func (c *PartnerCache) Invalidate(ctx context.Context) error {
	return c.client.Incr(ctx, generationKey()).Err()
}
