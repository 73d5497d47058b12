package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/map-metadata/internal/domain"
	"github.com/map-metadata/internal/domain/repository"
)

type cacheRepository struct {
	client *redis.Client
	logger *zap.Logger
}

// NewCacheRepository создает кеш запросов поверх Redis
func NewCacheRepository(redis *Redis) repository.CacheRepository {
	return &cacheRepository{
		client: redis.Client(),
		logger: redis.logger,
	}
}

func (r *cacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil // Cache miss
	}
	if err != nil {
		r.logger.Error("Failed to get from cache", zap.String("key", key), zap.Error(err))
		return nil, fmt.Errorf("cache get error: %w", err)
	}

	r.logger.Debug("Cache hit", zap.String("key", key))
	return val, nil
}

func (r *cacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	err := r.client.Set(ctx, key, value, ttl).Err()
	if err != nil {
		r.logger.Error("Failed to set cache", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("cache set error: %w", err)
	}

	r.logger.Debug("Cache set", zap.String("key", key), zap.Duration("ttl", ttl))
	return nil
}

func (r *cacheRepository) Delete(ctx context.Context, key string) error {
	err := r.client.Del(ctx, key).Err()
	if err != nil {
		r.logger.Error("Failed to delete from cache", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("cache delete error: %w", err)
	}

	r.logger.Debug("Cache deleted", zap.String("key", key))
	return nil
}

func (r *cacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	val, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		r.logger.Error("Failed to check cache existence", zap.String("key", key), zap.Error(err))
		return false, fmt.Errorf("cache exists error: %w", err)
	}

	return val > 0, nil
}

// generation читает текущее поколение кеша запросов; отсутствие ключа - 0
func (r *cacheRepository) generation(ctx context.Context) (int64, error) {
	gen, err := r.client.Get(ctx, generationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("cache generation error: %w", err)
	}
	return gen, nil
}

func (r *cacheRepository) GetQuery(ctx context.Context, table domain.TableName, region domain.Region) ([]byte, error) {
	gen, err := r.generation(ctx)
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, queryKey(gen, table, region))
}

func (r *cacheRepository) SetQuery(ctx context.Context, table domain.TableName, region domain.Region, data []byte, ttl time.Duration) error {
	gen, err := r.generation(ctx)
	if err != nil {
		return err
	}
	return r.Set(ctx, queryKey(gen, table, region), data, ttl)
}

// InvalidateQueries увеличивает поколение; старые ключи истекают по TTL
func (r *cacheRepository) InvalidateQueries(ctx context.Context) error {
	gen, err := r.client.Incr(ctx, generationKey).Result()
	if err != nil {
		r.logger.Error("Failed to invalidate query cache", zap.Error(err))
		return fmt.Errorf("cache invalidate error: %w", err)
	}

	r.logger.Info("Query cache invalidated", zap.Int64("generation", gen))
	return nil
}

// GetDiagnostics получает диагностику последнего прогона из кеша
func (r *cacheRepository) GetDiagnostics(ctx context.Context) (*domain.Diagnostics, error) {
	data, err := r.Get(ctx, diagnosticsKey)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil // Cache miss
	}

	var diag domain.Diagnostics
	if err := json.Unmarshal(data, &diag); err != nil {
		r.logger.Error("Failed to unmarshal diagnostics from cache", zap.Error(err))
		return nil, fmt.Errorf("unmarshal diagnostics: %w", err)
	}

	return &diag, nil
}

// SetDiagnostics сохраняет диагностику последнего прогона в кеше
func (r *cacheRepository) SetDiagnostics(ctx context.Context, diag *domain.Diagnostics, ttl time.Duration) error {
	data, err := json.Marshal(diag)
	if err != nil {
		r.logger.Error("Failed to marshal diagnostics", zap.Error(err))
		return fmt.Errorf("marshal diagnostics: %w", err)
	}

	return r.Set(ctx, diagnosticsKey, data, ttl)
}
