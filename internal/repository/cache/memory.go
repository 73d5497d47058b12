package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/bluele/gcache"
	"go.uber.org/zap"

	"github.com/map-metadata/internal/domain"
	"github.com/map-metadata/internal/domain/repository"
)

type memoryRepository struct {
	cache      gcache.Cache
	generation atomic.Int64
	logger     *zap.Logger
}

// NewMemoryCacheRepository создает in-process LRU кеш на capacity записей.
// Используется, когда Redis не настроен.
func NewMemoryCacheRepository(capacity int, logger *zap.Logger) repository.CacheRepository {
	return &memoryRepository{
		cache:  gcache.New(capacity).LRU().Build(),
		logger: logger,
	}
}

func (r *memoryRepository) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := r.cache.Get(key)
	if errors.Is(err, gcache.KeyNotFoundError) {
		return nil, nil // Cache miss
	}
	if err != nil {
		return nil, fmt.Errorf("cache get error: %w", err)
	}

	data, ok := val.([]byte)
	if !ok {
		return nil, fmt.Errorf("cache get error: unexpected value %T for %s", val, key)
	}
	r.logger.Debug("Cache hit", zap.String("key", key))
	return data, nil
}

func (r *memoryRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	var err error
	if ttl > 0 {
		err = r.cache.SetWithExpire(key, value, ttl)
	} else {
		err = r.cache.Set(key, value)
	}
	if err != nil {
		return fmt.Errorf("cache set error: %w", err)
	}

	r.logger.Debug("Cache set", zap.String("key", key), zap.Duration("ttl", ttl))
	return nil
}

func (r *memoryRepository) Delete(ctx context.Context, key string) error {
	r.cache.Remove(key)
	return nil
}

func (r *memoryRepository) Exists(ctx context.Context, key string) (bool, error) {
	return r.cache.Has(key), nil
}

func (r *memoryRepository) GetQuery(ctx context.Context, table domain.TableName, region domain.Region) ([]byte, error) {
	return r.Get(ctx, queryKey(r.generation.Load(), table, region))
}

func (r *memoryRepository) SetQuery(ctx context.Context, table domain.TableName, region domain.Region, data []byte, ttl time.Duration) error {
	return r.Set(ctx, queryKey(r.generation.Load(), table, region), data, ttl)
}

// InvalidateQueries переключает поколение; старые записи вытесняются LRU
func (r *memoryRepository) InvalidateQueries(ctx context.Context) error {
	gen := r.generation.Add(1)
	r.logger.Info("Query cache invalidated", zap.Int64("generation", gen))
	return nil
}

func (r *memoryRepository) GetDiagnostics(ctx context.Context) (*domain.Diagnostics, error) {
	data, err := r.Get(ctx, diagnosticsKey)
	if err != nil || data == nil {
		return nil, err
	}

	var diag domain.Diagnostics
	if err := json.Unmarshal(data, &diag); err != nil {
		return nil, fmt.Errorf("unmarshal diagnostics: %w", err)
	}
	return &diag, nil
}

func (r *memoryRepository) SetDiagnostics(ctx context.Context, diag *domain.Diagnostics, ttl time.Duration) error {
	data, err := json.Marshal(diag)
	if err != nil {
		return fmt.Errorf("marshal diagnostics: %w", err)
	}
	return r.Set(ctx, diagnosticsKey, data, ttl)
}
