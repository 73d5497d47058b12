package cache

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/map-metadata/internal/domain"
	"github.com/map-metadata/internal/domain/repository"
)

// getTestRedisClient creates a Redis client for testing
func getTestRedisClient(t *testing.T) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   1, // Use DB 1 for tests
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("Redis not available for integration tests: %v", err)
	}
	client.Del(ctx, generationKey, diagnosticsKey)
	return client
}

func backends(t *testing.T) map[string]func(t *testing.T) repository.CacheRepository {
	return map[string]func(t *testing.T) repository.CacheRepository{
		"memory": func(t *testing.T) repository.CacheRepository {
			return NewMemoryCacheRepository(16, zap.NewNop())
		},
		"redis": func(t *testing.T) repository.CacheRepository {
			client := getTestRedisClient(t)
			t.Cleanup(func() { client.Close() })
			return NewCacheRepository(NewRedisFromClient(client, zap.NewNop()))
		},
	}
}

func TestCache_GetSet(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			repo := open(t)
			ctx := context.Background()
			key := "metadata:test:" + uuid.NewString()

			got, err := repo.Get(ctx, key)
			require.NoError(t, err)
			assert.Nil(t, got, "miss is (nil, nil)")

			require.NoError(t, repo.Set(ctx, key, []byte("value"), time.Minute))
			got, err = repo.Get(ctx, key)
			require.NoError(t, err)
			assert.Equal(t, []byte("value"), got)

			ok, err := repo.Exists(ctx, key)
			require.NoError(t, err)
			assert.True(t, ok)

			require.NoError(t, repo.Delete(ctx, key))
			ok, err = repo.Exists(ctx, key)
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestCache_QueryInvalidation(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			repo := open(t)
			ctx := context.Background()
			region := domain.PointRegion(-40.95, 42.5)

			require.NoError(t, repo.SetQuery(ctx, domain.TableEdgeStructural, region, []byte("[]"), time.Minute))

			got, err := repo.GetQuery(ctx, domain.TableEdgeStructural, region)
			require.NoError(t, err)
			assert.Equal(t, []byte("[]"), got)

			got, err = repo.GetQuery(ctx, domain.TableNodeStructural, region)
			require.NoError(t, err)
			assert.Nil(t, got, "tables do not share entries")

			require.NoError(t, repo.InvalidateQueries(ctx))
			got, err = repo.GetQuery(ctx, domain.TableEdgeStructural, region)
			require.NoError(t, err)
			assert.Nil(t, got)
		})
	}
}

func TestCache_Diagnostics(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			repo := open(t)
			ctx := context.Background()

			got, err := repo.GetDiagnostics(ctx)
			require.NoError(t, err)
			assert.Nil(t, got)

			diag := &domain.Diagnostics{RunID: uuid.New(), PointsRead: 42, EdgeRows: 3}
			require.NoError(t, repo.SetDiagnostics(ctx, diag, time.Minute))

			got, err = repo.GetDiagnostics(ctx)
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, diag.RunID, got.RunID)
			assert.Equal(t, 42, got.PointsRead)
		})
	}
}

func TestRegionKey(t *testing.T) {
	tests := []struct {
		name   string
		region domain.Region
		want   string
	}{
		{"point", domain.PointRegion(-40.95, 42.5), "p:-40.95,42.5:0.05"},
		{"zero padding uses default", domain.Region{Point: &domain.Point{Lat: 42.5, Lon: -40.95}}, "p:-40.95,42.5:0.05"},
		{"corners", domain.CornersRegion(domain.Point{Lat: 1, Lon: 2}, domain.Point{Lat: 3, Lon: 4}), "c:2,1;4,3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, regionKey(tt.region))
		})
	}

	assert.NotEqual(t,
		queryKey(0, domain.TableEdgeStructural, domain.PointRegion(1, 2)),
		queryKey(1, domain.TableEdgeStructural, domain.PointRegion(1, 2)))
}
