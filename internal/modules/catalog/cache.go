package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/georgemunganga/pricing-rules/internal/platform/metrics"
)

// PageCache stores encoded catalog pages. Entries are never invalidated
// explicitly; they expire by TTL only.
type PageCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// ── Redis ─────────────────────────────────────────────────────────────────────

type redisCache struct {
	client *redis.Client
	prefix string
}

func NewRedisCache(client *redis.Client) PageCache {
	return &redisCache{client: client, prefix: "pricing:catalog:"}
}

func (c *redisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return val, true, nil
}

func (c *redisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.prefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// ── in-memory ─────────────────────────────────────────────────────────────────

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryCache is used when no Redis address is configured.
type MemoryCache struct {
	mu    sync.RWMutex
	store map[string]memoryEntry
	now   func() time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{store: make(map[string]memoryEntry), now: time.Now}
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.store[key]
	if !ok {
		return nil, false, nil
	}
	if !e.expiresAt.IsZero() && !c.now().Before(e.expiresAt) {
		return nil, false, nil
	}
	return e.value, true, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := memoryEntry{value: value}
	if ttl > 0 {
		e.expiresAt = c.now().Add(ttl)
	}
	c.store[key] = e
	return nil
}

// ── decorator ─────────────────────────────────────────────────────────────────

// CachedProvider serves repeated page requests for the same scope and cursor
// from a PageCache. Cache failures degrade to a direct upstream call.
type CachedProvider struct {
	next  Provider
	cache PageCache
	ttl   time.Duration
}

func NewCachedProvider(next Provider, cache PageCache, ttl time.Duration) *CachedProvider {
	return &CachedProvider{next: next, cache: cache, ttl: ttl}
}

func (p *CachedProvider) FetchProductsPage(ctx context.Context, scope Scope, cursor string) (*ProductPage, error) {
	var page ProductPage
	err := p.cached(ctx, productsKey(scope, cursor), &page, func() (any, error) {
		return p.next.FetchProductsPage(ctx, scope, cursor)
	})
	if err != nil {
		return nil, err
	}
	return &page, nil
}

func (p *CachedProvider) GetCollectionTitle(ctx context.Context, collectionID string) (string, error) {
	var title string
	err := p.cached(ctx, "collection:"+collectionID, &title, func() (any, error) {
		return p.next.GetCollectionTitle(ctx, collectionID)
	})
	return title, err
}

func (p *CachedProvider) ListProductTags(ctx context.Context, cursor string) (*TagPage, error) {
	var page TagPage
	err := p.cached(ctx, "tags:"+normalizeCursor(cursor), &page, func() (any, error) {
		return p.next.ListProductTags(ctx, cursor)
	})
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// cached decodes a hit into out, or calls load, stores its result and decodes it into out.
func (p *CachedProvider) cached(ctx context.Context, key string, out any, load func() (any, error)) error {
	log := zerolog.Ctx(ctx)

	raw, ok, err := p.cache.Get(ctx, key)
	switch {
	case err != nil:
		metrics.CacheRequests.WithLabelValues("error").Inc()
		log.Warn().Err(err).Str("key", key).Msg("catalog cache read failed")
	case ok:
		if err := json.Unmarshal(raw, out); err == nil {
			metrics.CacheRequests.WithLabelValues("hit").Inc()
			return nil
		}
		metrics.CacheRequests.WithLabelValues("error").Inc()
	default:
		metrics.CacheRequests.WithLabelValues("miss").Inc()
	}

	val, err := load()
	if err != nil {
		return err
	}
	raw, err = json.Marshal(val)
	if err != nil {
		return fmt.Errorf("encode catalog page: %w", err)
	}
	if err := p.cache.Set(ctx, key, raw, p.ttl); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("catalog cache write failed")
	}
	return json.Unmarshal(raw, out)
}

func productsKey(scope Scope, cursor string) string {
	kind := scope.Kind
	if kind == "" {
		kind = ScopeAll
	}
	var values []string
	switch kind {
	case ScopeSpecificProducts:
		values = scope.ProductIDs
	case ScopeTags:
		values = scope.Tags
	case ScopeCollections:
		values = []string{scope.CollectionID}
	}
	return fmt.Sprintf("products:%s:%s:%s", kind, strings.Join(values, ","), normalizeCursor(cursor))
}

func normalizeCursor(cursor string) string {
	if IsFirstPage(cursor) {
		return ""
	}
	return cursor
}
