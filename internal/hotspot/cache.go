package hotspot

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"
)

// Cache stores resolved documents keyed by video ID.
type Cache interface {
	Get(ctx context.Context, videoID string) (Document, bool)
	Set(ctx context.Context, videoID string, doc Document)
	Delete(ctx context.Context, videoID string)
}

// CachedSource serves documents from a cache and falls through to src on a miss.
// Lookup failures are never cached.
type CachedSource struct {
	src   Source
	cache Cache
}

func NewCachedSource(src Source, cache Cache) *CachedSource {
	return &CachedSource{src: src, cache: cache}
}

func (s *CachedSource) Lookup(ctx context.Context, videoID string) (Document, error) {
	if doc, ok := s.cache.Get(ctx, videoID); ok {
		return doc, nil
	}
	doc, err := s.src.Lookup(ctx, videoID)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, videoID, doc)
	return doc, nil
}

// Invalidate drops a cached document, typically after it was replaced.
func (s *CachedSource) Invalidate(ctx context.Context, videoID string) {
	s.cache.Delete(ctx, videoID)
}

// LRUCache is an in-process cache with a fixed size and per-entry TTL.
type LRUCache struct {
	lru *expirable.LRU[string, Document]
}

func NewLRUCache(size int, ttl time.Duration) *LRUCache {
	if size <= 0 {
		size = 256
	}
	return &LRUCache{lru: expirable.NewLRU[string, Document](size, nil, ttl)}
}

func (c *LRUCache) Get(_ context.Context, videoID string) (Document, bool) {
	return c.lru.Get(videoID)
}

func (c *LRUCache) Set(_ context.Context, videoID string, doc Document) {
	c.lru.Add(videoID, doc)
}

func (c *LRUCache) Delete(_ context.Context, videoID string) {
	c.lru.Remove(videoID)
}

type redisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisCache shares documents between service replicas.
type RedisCache struct {
	client redisClient
	ttl    time.Duration
}

func NewRedisCache(client redisClient, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func redisKey(videoID string) string {
	return "hotspots:" + videoID
}

func (c *RedisCache) Get(ctx context.Context, videoID string) (Document, bool) {
	raw, err := c.client.Get(ctx, redisKey(videoID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Warn("hotspot: redis get failed", "video_id", videoID, "error", err)
		}
		return nil, false
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		slog.Warn("hotspot: dropping corrupt cache entry", "video_id", videoID, "error", err)
		c.Delete(ctx, videoID)
		return nil, false
	}
	return doc, true
}

func (c *RedisCache) Set(ctx context.Context, videoID string, doc Document) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, redisKey(videoID), raw, c.ttl).Err(); err != nil {
		slog.Warn("hotspot: redis set failed", "video_id", videoID, "error", err)
	}
}

func (c *RedisCache) Delete(ctx context.Context, videoID string) {
	if err := c.client.Del(ctx, redisKey(videoID)).Err(); err != nil {
		slog.Warn("hotspot: redis delete failed", "video_id", videoID, "error", err)
	}
}
