package repository

import (
	"context"
	"time"

	"github.com/map-metadata/internal/domain"
)

// CacheRepository определяет методы для работы с кешем
type CacheRepository interface {
	// Get получает значение из кеша по ключу; промах - (nil, nil)
	Get(ctx context.Context, key string) ([]byte, error)

	// Set сохраняет значение в кеше с TTL
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete удаляет значение из кеша
	Delete(ctx context.Context, key string) error

	// Exists проверяет существование ключа
	Exists(ctx context.Context, key string) (bool, error)

	// GetQuery получает закешированный результат пространственного запроса
	GetQuery(ctx context.Context, table domain.TableName, region domain.Region) ([]byte, error)

	// SetQuery сохраняет результат пространственного запроса
	SetQuery(ctx context.Context, table domain.TableName, region domain.Region, data []byte, ttl time.Duration) error

	// InvalidateQueries удаляет все результаты запросов после нового прогона
	InvalidateQueries(ctx context.Context) error

	// GetDiagnostics получает диагностику последнего прогона
	GetDiagnostics(ctx context.Context) (*domain.Diagnostics, error)

	// SetDiagnostics сохраняет диагностику последнего прогона
	SetDiagnostics(ctx context.Context, diag *domain.Diagnostics, ttl time.Duration) error
}
