package services

import (
	"context"
	"fmt"
	"time"

	"github.com/kosaka-studio/mediarepo/internal/core/catalog/domain"
	"github.com/kosaka-studio/mediarepo/internal/core/catalog/ports"
	"github.com/kosaka-studio/mediarepo/internal/shared/cache"
)

// CachedTagsRepository wraps a TagsRepository with a read-through Redis
// cache over its hydration queries. Mutating calls pass straight through
// and invalidate the affected entries; the tag forest changes rarely
// enough relative to read volume that a short TTL plus targeted
// invalidation beats leaving every traversal to hit Postgres.
type CachedTagsRepository struct {
	repo  ports.TagsRepository
	cache *cache.CacheHelper
	ttl   time.Duration
}

// NewCachedTagsRepository wraps repo with a cache.Cache-backed decorator.
func NewCachedTagsRepository(repo ports.TagsRepository, cacheInstance cache.Cache, ttl time.Duration) *CachedTagsRepository {
	return &CachedTagsRepository{
		repo:  repo,
		cache: cache.NewCacheHelper(cacheInstance),
		ttl:   ttl,
	}
}

func tagCacheKey(id domain.TagID, depth domain.TagDepth) string {
	return fmt.Sprintf("tags:%s:depth:%d:%d", id.String(), depth.Parent, depth.Child)
}

func (c *CachedTagsRepository) Create(ctx context.Context, name, kana string, aliases []string, parent *domain.TagID, depth domain.TagDepth) (domain.Tag, error) {
	tag, err := c.repo.Create(ctx, name, kana, aliases, parent, depth)
	if err != nil {
		return domain.Tag{}, err
	}
	if parent != nil {
		_ = c.cache.InvalidatePattern(ctx, fmt.Sprintf("tags:%s:*", parent.String()))
	}
	return tag, nil
}

func (c *CachedTagsRepository) FetchAll(ctx context.Context, params ports.TagFetchAllParams) ([]domain.Tag, error) {
	// Listings vary by cursor/order/filters on every call; caching them
	// would mean keying on the whole params struct for little reuse, so
	// they pass straight through to the repository.
	return c.repo.FetchAll(ctx, params)
}

func (c *CachedTagsRepository) FetchByIDs(ctx context.Context, ids []domain.TagID, depth domain.TagDepth) ([]domain.Tag, error) {
	result := make([]domain.Tag, 0, len(ids))
	var misses []domain.TagID

	for _, id := range ids {
		var tag domain.Tag
		if err := c.cache.GetJSON(ctx, tagCacheKey(id, depth), &tag); err == nil {
			result = append(result, tag)
			continue
		}
		misses = append(misses, id)
	}

	if len(misses) == 0 {
		return result, nil
	}

	fetched, err := c.repo.FetchByIDs(ctx, misses, depth)
	if err != nil {
		return nil, err
	}
	for _, tag := range fetched {
		_ = c.cache.SetJSON(ctx, tagCacheKey(tag.ID, depth), tag, c.ttl)
		result = append(result, tag)
	}
	return result, nil
}

func (c *CachedTagsRepository) FetchByNameOrAliasLike(ctx context.Context, needle string, depth domain.TagDepth) ([]domain.Tag, error) {
	return c.repo.FetchByNameOrAliasLike(ctx, needle, depth)
}

func (c *CachedTagsRepository) UpdateByID(ctx context.Context, id domain.TagID, params ports.TagUpdateParams) (domain.Tag, error) {
	tag, err := c.repo.UpdateByID(ctx, id, params)
	if err != nil {
		return domain.Tag{}, err
	}
	_ = c.cache.InvalidatePattern(ctx, fmt.Sprintf("tags:%s:*", id.String()))
	return tag, nil
}

func (c *CachedTagsRepository) AttachByID(ctx context.Context, id, newParent domain.TagID, depth domain.TagDepth) (domain.Tag, error) {
	tag, err := c.repo.AttachByID(ctx, id, newParent, depth)
	if err != nil {
		return domain.Tag{}, err
	}
	_ = c.cache.InvalidatePattern(ctx, fmt.Sprintf("tags:%s:*", id.String()))
	_ = c.cache.InvalidatePattern(ctx, fmt.Sprintf("tags:%s:*", newParent.String()))
	return tag, nil
}

func (c *CachedTagsRepository) DetachByID(ctx context.Context, id domain.TagID, depth domain.TagDepth) (domain.Tag, error) {
	tag, err := c.repo.DetachByID(ctx, id, depth)
	if err != nil {
		return domain.Tag{}, err
	}
	_ = c.cache.InvalidatePattern(ctx, fmt.Sprintf("tags:%s:*", id.String()))
	return tag, nil
}

func (c *CachedTagsRepository) DeleteByID(ctx context.Context, id domain.TagID, recursive bool) (domain.DeleteResult, error) {
	result, err := c.repo.DeleteByID(ctx, id, recursive)
	if err != nil {
		return domain.DeleteResult{}, err
	}
	_ = c.cache.InvalidatePattern(ctx, fmt.Sprintf("tags:%s:*", id.String()))
	return result, nil
}
