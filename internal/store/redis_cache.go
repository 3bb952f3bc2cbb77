package store

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/linkbot/internal/shortener"
)

// RedisCacheRepository caches alias lookups in Redis in front of another
// Repository. Cached entries hold only the immutable link fields, so click
// counters must be read from the underlying store.
type RedisCacheRepository struct {
	store  shortener.Repository
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisCacheRepository creates the caching decorator. ttl <= 0 caches forever.
func NewRedisCacheRepository(
	store shortener.Repository, client *redis.Client, ttl time.Duration,
) *RedisCacheRepository {
	return &RedisCacheRepository{
		store:  store,
		client: client,
		prefix: "link:",
		ttl:    ttl,
	}
}

// Save stores the link and writes it through to the cache.
func (r *RedisCacheRepository) Save(ctx context.Context, link *shortener.ShortLink) error {
	if err := r.store.Save(ctx, link); err != nil {
		return err
	}

	r.cacheLink(ctx, link)

	return nil
}

// GetByAlias serves from the cache and falls back to the store on a miss or a cache error.
func (r *RedisCacheRepository) GetByAlias(ctx context.Context, alias shortener.Alias) (*shortener.ShortLink, error) {
	if link, err := r.getFromCache(ctx, alias); err == nil {
		return link, nil
	}

	link, err := r.store.GetByAlias(ctx, alias)
	if err != nil {
		return nil, err
	}

	r.cacheLink(ctx, link)

	return link, nil
}

// ListByOwner always reads the underlying store.
func (r *RedisCacheRepository) ListByOwner(ctx context.Context, ownerID int64) ([]*shortener.ShortLink, error) {
	return r.store.ListByOwner(ctx, ownerID)
}

func (r *RedisCacheRepository) getFromCache(ctx context.Context, alias shortener.Alias) (*shortener.ShortLink, error) {
	result, err := r.client.HGetAll(ctx, r.prefix+string(alias)).Result()
	if err != nil {
		return nil, err
	}

	if len(result) == 0 {
		return nil, shortener.ErrNotFound
	}

	link := &shortener.ShortLink{
		Alias:       shortener.Alias(result["alias"]),
		OriginalURL: result["original_url"],
	}

	if owner, err := strconv.ParseInt(result["owner_id"], 10, 64); err == nil {
		link.OwnerID = owner
	}

	if nanos, err := strconv.ParseInt(result["created_at"], 10, 64); err == nil {
		link.CreatedAt = time.Unix(0, nanos).UTC()
	}

	return link, nil
}

func (r *RedisCacheRepository) cacheLink(ctx context.Context, link *shortener.ShortLink) {
	pipe := r.client.Pipeline()
	key := r.prefix + string(link.Alias)

	pipe.HSet(ctx, key, map[string]any{
		"alias":        string(link.Alias),
		"original_url": link.OriginalURL,
		"owner_id":     link.OwnerID,
		"created_at":   link.CreatedAt.UnixNano(),
	})

	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
	}

	_, _ = pipe.Exec(ctx)
}

// Compile-time check.
var _ shortener.Repository = (*RedisCacheRepository)(nil)
