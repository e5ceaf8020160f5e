package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"quill/internal/models"
	"quill/internal/observability"

	"github.com/redis/go-redis/v9"
)

// PostTTL bounds how long a cached post may be served after a write that
// failed to invalidate it.
const PostTTL = 30 * time.Minute

// PostKey returns the cache key for a single post.
func PostKey(id string) string {
	return fmt.Sprintf("post:%s", id)
}

// PostCache is a read-through cache for single posts. A nil *PostCache or a
// PostCache without a client is valid and always misses.
type PostCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewPostCache returns a PostCache on client. ttl <= 0 uses PostTTL.
func NewPostCache(client *redis.Client, ttl time.Duration) *PostCache {
	if ttl <= 0 {
		ttl = PostTTL
	}
	return &PostCache{client: client, ttl: ttl}
}

// Aside returns the cached post for id or loads it with fetch and stores it.
// Redis failures are logged and treated as misses.
func (c *PostCache) Aside(ctx context.Context, id string, fetch func(context.Context) (*models.Post, error)) (*models.Post, error) {
	if c == nil || c.client == nil {
		return fetch(ctx)
	}

	key := PostKey(id)
	var cached models.Post
	found, err := GetJSON(ctx, c.client, key, &cached)
	if err != nil {
		observability.Logger.WarnContext(ctx, "post cache read failed", slog.String("key", key), slog.String("error", err.Error()))
	}
	if found {
		observability.PostCacheLookups.WithLabelValues("hit").Inc()
		return &cached, nil
	}
	observability.PostCacheLookups.WithLabelValues("miss").Inc()

	post, err := fetch(ctx)
	if err != nil {
		return nil, err
	}

	// Only canonical ids are cached so Invalidate(post.ID) reaches every entry.
	if post.ID != id {
		return post, nil
	}
	if err := SetJSON(ctx, c.client, key, post, c.ttl); err != nil {
		observability.Logger.WarnContext(ctx, "post cache write failed", slog.String("key", key), slog.String("error", err.Error()))
	}
	return post, nil
}

// Invalidate drops the cached copy of post id.
func (c *PostCache) Invalidate(ctx context.Context, id string) {
	if c == nil || c.client == nil {
		return
	}
	if err := Delete(ctx, c.client, PostKey(id)); err != nil {
		observability.Logger.WarnContext(ctx, "post cache invalidation failed", slog.String("post_id", id), slog.String("error", err.Error()))
	}
}
