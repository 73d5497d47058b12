package usecase_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/map-metadata/internal/domain"
)

// MockTrajectoryRepository is a mock of TrajectoryRepository
type MockTrajectoryRepository struct {
	mock.Mock
}

func (m *MockTrajectoryRepository) LoadTrajectories(ctx context.Context, source string) (*domain.TrajectoryBatch, error) {
	args := m.Called(ctx, source)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TrajectoryBatch), args.Error(1)
}

// MockGraphRepository is a mock of GraphRepository
type MockGraphRepository struct {
	mock.Mock
}

func (m *MockGraphRepository) LoadGraph(ctx context.Context, edgesSource, nodesSource string) (*domain.Graph, error) {
	args := m.Called(ctx, edgesSource, nodesSource)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Graph), args.Error(1)
}

// MockMetadataRepository is a mock of MetadataRepository
type MockMetadataRepository struct {
	mock.Mock
}

func (m *MockMetadataRepository) SaveTables(ctx context.Context, tables *domain.MetadataTables) error {
	args := m.Called(ctx, tables)
	return args.Error(0)
}

func (m *MockMetadataRepository) LoadTables(ctx context.Context) (*domain.MetadataTables, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MetadataTables), args.Error(1)
}

func (m *MockMetadataRepository) SaveRun(ctx context.Context, diag *domain.Diagnostics) error {
	args := m.Called(ctx, diag)
	return args.Error(0)
}

func (m *MockMetadataRepository) LatestRun(ctx context.Context) (*domain.Diagnostics, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Diagnostics), args.Error(1)
}

// MockCacheRepository is a mock of CacheRepository
type MockCacheRepository struct {
	mock.Mock
}

func (m *MockCacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockCacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockCacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockCacheRepository) GetQuery(ctx context.Context, table domain.TableName, region domain.Region) ([]byte, error) {
	args := m.Called(ctx, table, region)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockCacheRepository) SetQuery(ctx context.Context, table domain.TableName, region domain.Region, data []byte, ttl time.Duration) error {
	args := m.Called(ctx, table, region, data, ttl)
	return args.Error(0)
}

func (m *MockCacheRepository) InvalidateQueries(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockCacheRepository) GetDiagnostics(ctx context.Context) (*domain.Diagnostics, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Diagnostics), args.Error(1)
}

func (m *MockCacheRepository) SetDiagnostics(ctx context.Context, diag *domain.Diagnostics, ttl time.Duration) error {
	args := m.Called(ctx, diag, ttl)
	return args.Error(0)
}
