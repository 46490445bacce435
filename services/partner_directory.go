package services

import (
	"context"

	"github.com/baaten/partner_console/models"
	"go.uber.org/zap"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// ListCache caches partner list pages. Invalidate drops every cached page.
//
// Get also reports the cache generation it read, negative when unknown. A page
// fetched after a miss is stored with Set under that generation, so a fetch
// that overlaps an Invalidate never lands in the new generation.
type ListCache interface {
	Get(ctx context.Context, page, limit int) (result *models.PartnerPage, gen int64, ok bool)
	Set(ctx context.Context, gen int64, page, limit int, result *models.PartnerPage) error
	Invalidate(ctx context.Context) error
}

// PartnerDirectory serves partner list pages, from cache when one is configured.
// The cache is wholly invalidated after every mutation, never patched.
type PartnerDirectory struct {
	api    PartnerAPI
	cache  ListCache
	logger *zap.Logger
}

// NewPartnerDirectory creates a directory; cache may be nil
func NewPartnerDirectory(api PartnerAPI, cache ListCache, logger *zap.Logger) *PartnerDirectory {
	return &PartnerDirectory{api: api, cache: cache, logger: logger.Named("directory")}
}

// NormalizePage clamps page and limit to the accepted range
func NormalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return page, limit
}

// List returns one page of partners
func (d *PartnerDirectory) List(ctx context.Context, page, limit int) (*models.PartnerPage, error) {
	page, limit = NormalizePage(page, limit)

	gen := int64(-1)
	if d.cache != nil {
		cached, g, ok := d.cache.Get(ctx, page, limit)
		if ok {
			return cached, nil
		}
		gen = g
	}

	result, err := d.api.ListPartners(ctx, page, limit)
	if err != nil {
		return nil, err
	}

	if d.cache != nil && gen >= 0 {
		if err := d.cache.Set(ctx, gen, page, limit, result); err != nil {
			d.logger.Warn("caching partner page failed", zap.Error(err))
		}
	}
	return result, nil
}

// Invalidate drops every cached page
func (d *PartnerDirectory) Invalidate(ctx context.Context) {
	if d.cache == nil {
		return
	}
	if err := d.cache.Invalidate(ctx); err != nil {
		d.logger.Warn("invalidating partner cache failed", zap.Error(err))
	}
}

// Refresh invalidates the cache and fetches the page again from the Partner API
func (d *PartnerDirectory) Refresh(ctx context.Context, page, limit int) (*models.PartnerPage, error) {
	d.Invalidate(ctx)
	return d.List(ctx, page, limit)
}
