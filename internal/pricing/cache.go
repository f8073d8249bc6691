package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const snapshotCacheKey = "pricing:snapshot"

// Cache хранит сериализованный снимок прайса с TTL.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// RedisCache: кэш снимков в Redis.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache создает кэш поверх клиента go-redis.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// Get читает значение; отсутствие ключа не является ошибкой.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis GET error: %w", err)
	}
	return data, true, nil
}

// Set сохраняет значение с TTL.
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

type memoryItem struct {
	value     []byte
	expiresAt time.Time
}

// MemoryCache: кэш в памяти процесса, используется без Redis.
type MemoryCache struct {
	mu    sync.Mutex
	items map[string]memoryItem
	now   func() time.Time
}

// NewMemoryCache создает пустой кэш в памяти.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{items: make(map[string]memoryItem), now: time.Now}
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, ok := c.items[key]
	if !ok {
		return nil, false, nil
	}
	if !item.expiresAt.IsZero() && !c.now().Before(item.expiresAt) {
		delete(c.items, key)
		return nil, false, nil
	}
	return item.value, true, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	item := memoryItem{value: value}
	if ttl > 0 {
		item.expiresAt = c.now().Add(ttl)
	}
	c.items[key] = item
	return nil
}

// CachedSource отдает снимок из кэша и обращается к источнику только по истечении TTL.
type CachedSource struct {
	source Source
	cache  Cache
	ttl    time.Duration
}

// NewCachedSource оборачивает источник кэшем.
func NewCachedSource(source Source, cache Cache, ttl time.Duration) *CachedSource {
	return &CachedSource{source: source, cache: cache, ttl: ttl}
}

// Fetch возвращает снимок из кэша либо читает источник и кладет результат в кэш.
// Ошибки кэша не роняют запрос: источник остается главным.
func (s *CachedSource) Fetch(ctx context.Context) (Snapshot, error) {
	data, ok, err := s.cache.Get(ctx, snapshotCacheKey)
	if err != nil {
		slog.Warn("price cache read failed", slog.String("error", err.Error()))
	}
	if ok {
		var snapshot Snapshot
		if err := json.Unmarshal(data, &snapshot); err == nil {
			return snapshot, nil
		}
		slog.Warn("price cache entry is corrupt, refetching")
	}

	return s.Refresh(ctx)
}

// Refresh принудительно перечитывает источник и обновляет кэш.
func (s *CachedSource) Refresh(ctx context.Context) (Snapshot, error) {
	snapshot, err := s.source.Fetch(ctx)
	if err != nil {
		return Snapshot{}, err
	}

	payload, err := json.Marshal(snapshot)
	if err != nil {
		return snapshot, nil
	}

	if err := s.cache.Set(ctx, snapshotCacheKey, payload, s.ttl); err != nil {
		slog.Warn("price cache write failed", slog.String("error", err.Error()))
	}

	return snapshot, nil
}
