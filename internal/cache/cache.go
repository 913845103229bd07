// Package cache implements the tag-based page cache behind profile
// and discovery reads. Rendered payloads are stored under a page key
// and registered into tag sets; invalidating a tag deletes every
// page registered under it.
package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"artlink_backend/internal/config"
)

const (
	pagePrefix = "page:"
	tagPrefix  = "tag:"
)

// NewClient connects a Redis client and verifies it with a ping.
func NewClient(cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return client, nil
}

// PageCache stores rendered pages under keys and tags.
type PageCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewPageCache builds a page cache; ttl bounds how long an
// un-invalidated page may live.
func NewPageCache(rdb *redis.Client, ttl time.Duration) *PageCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &PageCache{rdb: rdb, ttl: ttl}
}

// Set stores a rendered page and registers it under each tag.
func (c *PageCache) Set(ctx context.Context, key string, payload []byte, tags ...string) error {
	pipe := c.rdb.TxPipeline()
	pipe.Set(ctx, pagePrefix+key, payload, c.ttl)
	for _, tag := range tags {
		pipe.SAdd(ctx, tagPrefix+tag, pagePrefix+key)
		// Tag sets must outlive their members or invalidation loses
		// track of expired pages' siblings.
		pipe.Expire(ctx, tagPrefix+tag, 2*c.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// Get returns the cached payload, or (nil, nil) on a miss.
func (c *PageCache) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := c.rdb.Get(ctx, pagePrefix+key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Delete drops a single page without touching its tags.
func (c *PageCache) Delete(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, pagePrefix+key).Err()
}

// Invalidate deletes every page registered under any of the tags,
// then drops the tag sets themselves.
func (c *PageCache) Invalidate(ctx context.Context, tags ...string) error {
	if len(tags) == 0 {
		return nil
	}

	tagKeys := make([]string, 0, len(tags))
	for _, tag := range tags {
		tagKeys = append(tagKeys, tagPrefix+tag)
	}

	members, err := c.rdb.SUnion(ctx, tagKeys...).Result()
	if err != nil {
		return err
	}

	pipe := c.rdb.TxPipeline()
	if len(members) > 0 {
		pipe.Del(ctx, members...)
	}
	pipe.Del(ctx, tagKeys...)
	_, err = pipe.Exec(ctx)
	return err
}

// ProfileTag is the invalidation tag covering everything rendered
// from one profile.
func ProfileTag(profileID string) string { return "profile:" + profileID }

// HandleTag covers the public page addressed by a profile handle.
func HandleTag(handle string) string { return "handle:" + handle }

// DiscoveryTag covers homepage discovery sections.
const DiscoveryTag = "discovery"
