package repository

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/mgrushin/go-shortlink/internal/cache"
	"github.com/mgrushin/go-shortlink/internal/model"
)

// CachedLinkRepository decorates a LinkRepository with a read-through cache
// for the hot redirect path. Cache failures never fail the operation.
type CachedLinkRepository struct {
	inner LinkRepository
	cache cache.Manager
	keys  *cache.KeyBuilder
	log   *zap.Logger
}

var _ LinkRepository = (*CachedLinkRepository)(nil)

func NewCachedLinkRepository(inner LinkRepository, c cache.Manager, logger *zap.Logger) *CachedLinkRepository {
	return &CachedLinkRepository{
		inner: inner,
		cache: c,
		keys:  c.GetKeyBuilder(),
		log:   logger,
	}
}

func (r *CachedLinkRepository) Create(ctx context.Context, link *model.Link) error {
	if err := r.inner.Create(ctx, link); err != nil {
		return err
	}

	if err := r.cache.Set(ctx, r.keys.Link(link.ShortCode), link); err != nil {
		r.log.Warn("failed to cache created link", zap.String("short_code", link.ShortCode), zap.Error(err))
	}

	return nil
}

func (r *CachedLinkRepository) GetByShortCode(ctx context.Context, shortCode string) (*model.Link, error) {
	cacheKey := r.keys.Link(shortCode)

	var cached model.Link
	err := r.cache.Get(ctx, cacheKey, &cached)
	if err == nil {
		// The counter mirror is refreshed on every increment while the
		// record may predate some of them; serve the fresher value.
		if count, countErr := r.cache.GetClickCount(ctx, shortCode); countErr == nil && count > cached.ClickCount {
			cached.ClickCount = count
		}
		return &cached, nil
	}

	if !errors.Is(err, cache.ErrCacheMiss) {
		r.log.Warn("link cache read failed", zap.String("short_code", shortCode), zap.Error(err))
	}

	link, err := r.inner.GetByShortCode(ctx, shortCode)
	if err != nil {
		return nil, err
	}

	if err := r.cache.Set(ctx, cacheKey, link); err != nil {
		r.log.Warn("failed to cache link", zap.String("short_code", shortCode), zap.Error(err))
	}

	// Keep the counter mirror in step with what we just read.
	if err := r.cache.SetClickCount(ctx, shortCode, link.ClickCount); err != nil {
		r.log.Warn("failed to cache click count", zap.String("short_code", shortCode), zap.Error(err))
	}

	return link, nil
}

func (r *CachedLinkRepository) GetByID(ctx context.Context, id int64) (*model.Link, error) {
	return r.inner.GetByID(ctx, id)
}

func (r *CachedLinkRepository) ListByOwner(ctx context.Context, ownerID int64) ([]*model.Link, error) {
	return r.inner.ListByOwner(ctx, ownerID)
}

func (r *CachedLinkRepository) TopByOwner(ctx context.Context, ownerID int64, n int) ([]*model.Link, error) {
	return r.inner.TopByOwner(ctx, ownerID, n)
}

func (r *CachedLinkRepository) UpdateOriginalURL(ctx context.Context, id int64, originalURL string) error {
	if err := r.inner.UpdateOriginalURL(ctx, id, originalURL); err != nil {
		return err
	}

	r.invalidateByID(ctx, id)
	return nil
}

// invalidateByID drops the cached record for a link addressed by id. The
// cache is keyed by short code, so this costs one store read.
func (r *CachedLinkRepository) invalidateByID(ctx context.Context, id int64) {
	link, err := r.inner.GetByID(ctx, id)
	if err != nil {
		r.log.Warn("failed to resolve link for cache invalidation", zap.Int64("link_id", id), zap.Error(err))
		return
	}

	if err := r.cache.Delete(ctx, r.keys.Link(link.ShortCode)); err != nil {
		r.log.Warn("failed to invalidate link cache", zap.String("short_code", link.ShortCode), zap.Error(err))
	}
}

func (r *CachedLinkRepository) Delete(ctx context.Context, id int64) error {
	link, err := r.inner.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := r.inner.Delete(ctx, id); err != nil {
		return err
	}

	keys := []string{r.keys.Link(link.ShortCode), r.keys.Clicks(link.ShortCode)}
	if err := r.cache.Delete(ctx, keys...); err != nil {
		r.log.Warn("failed to invalidate link cache", zap.String("short_code", link.ShortCode), zap.Error(err))
	}

	return nil
}

func (r *CachedLinkRepository) IncrementClickCount(ctx context.Context, id int64) (string, int64, error) {
	shortCode, newCount, err := r.inner.IncrementClickCount(ctx, id)
	if err != nil {
		return "", 0, err
	}

	// The cached record now carries a stale counter; drop it and refresh
	// the counter mirror with the committed value.
	if err := r.cache.Delete(ctx, r.keys.Link(shortCode)); err != nil {
		r.log.Warn("failed to invalidate link cache", zap.String("short_code", shortCode), zap.Error(err))
	}

	if err := r.cache.SetClickCount(ctx, shortCode, newCount); err != nil {
		r.log.Warn("failed to refresh click count cache", zap.String("short_code", shortCode), zap.Error(err))
	}

	return shortCode, newCount, nil
}

func (r *CachedLinkRepository) NextCodeSeq(ctx context.Context) (uint64, error) {
	return r.inner.NextCodeSeq(ctx)
}
