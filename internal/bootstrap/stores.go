// Package bootstrap opens the repositories selected by configuration. It is
// shared by the API server, the stream worker and the CLI.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/map-metadata/internal/config"
	"github.com/map-metadata/internal/domain/repository"
	"github.com/map-metadata/internal/repository/cache"
	"github.com/map-metadata/internal/repository/csvfile"
	redisRepo "github.com/map-metadata/internal/repository/redis"
	"github.com/map-metadata/internal/repository/sqlstore"
)

// Options select the optional parts of Stores.
type Options struct {
	// Streams connects Redis even when the cache does not use it.
	Streams bool
}

// Stores holds the repositories of one process.
type Stores struct {
	Trajectories repository.TrajectoryRepository
	Graph        repository.GraphRepository
	Metadata     repository.MetadataRepository
	// Cache is nil when the cache backend is "none".
	Cache repository.CacheRepository
	// Streams is nil unless Options.Streams was set.
	Streams repository.StreamRepository

	db     *sqlstore.DB
	redis  *cache.Redis
	logger *zap.Logger
}

// Open builds Stores for cfg. On error everything opened so far is closed.
func Open(cfg *config.Config, opts Options, logger *zap.Logger) (*Stores, error) {
	compression, err := csvfile.ParseCompression(cfg.Input.Compression)
	if err != nil {
		return nil, err
	}

	csvOpts := csvfile.Options{Progress: cfg.Input.Progress}
	s := &Stores{
		Trajectories: csvfile.NewTrajectoryRepository(csvOpts, logger),
		Graph:        csvfile.NewGraphRepository(csvOpts, logger),
		logger:       logger,
	}

	switch cfg.Database.Driver {
	case "csv":
		s.Metadata = csvfile.NewTableStore(cfg.Input.OutputDir, compression, logger)
	default:
		db, err := sqlstore.New(&cfg.Database, logger)
		if err != nil {
			return nil, err
		}
		s.db = db
		s.Metadata = sqlstore.NewMetadataRepository(db)
	}

	if cfg.Cache.Backend == "redis" || opts.Streams {
		r, err := cache.NewRedis(&cfg.Redis, logger)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.redis = r
	}

	switch cfg.Cache.Backend {
	case "redis":
		s.Cache = cache.NewCacheRepository(s.redis)
	case "memory":
		s.Cache = cache.NewMemoryCacheRepository(cfg.Cache.MemoryCapacity, logger)
	case "none", "":
	default:
		s.Close()
		return nil, fmt.Errorf("unsupported cache backend %q", cfg.Cache.Backend)
	}

	if opts.Streams {
		s.Streams = redisRepo.NewStreamRepository(s.redis.Client(), redisRepo.StreamOptions{
			Block: cfg.Worker.StreamReadTimeout,
		}, logger)
	}

	logger.Info("Stores opened",
		zap.String("metadata_driver", cfg.Database.Driver),
		zap.String("cache_backend", cfg.Cache.Backend),
		zap.Bool("streams", opts.Streams))
	return s, nil
}

// Checks returns health checks of the connected backends by name.
func (s *Stores) Checks() map[string]func(ctx context.Context) error {
	checks := make(map[string]func(ctx context.Context) error)
	if s.db != nil {
		checks["database"] = s.db.Health
	}
	if s.redis != nil {
		checks["redis"] = s.redis.Health
	}
	return checks
}

// Close releases database and Redis connections.
func (s *Stores) Close() error {
	var errs []error
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
		s.db = nil
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
		s.redis = nil
	}
	return errors.Join(errs...)
}
