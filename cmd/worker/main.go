package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/map-metadata/internal/bootstrap"
	"github.com/map-metadata/internal/config"
	"github.com/map-metadata/internal/pkg/logger"
	"github.com/map-metadata/internal/usecase"
	"github.com/map-metadata/internal/worker"
	"github.com/map-metadata/internal/worker/aggregation"
)

func main() {
	configPath := flag.String("config", "", "path to config file (default .env)")
	flag.Parse()

	// 1. Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Check if worker is enabled
	if !cfg.Worker.Enabled {
		fmt.Println("Worker is disabled in configuration. Set WORKER_ENABLED=true to enable.")
		os.Exit(0)
	}

	// 2. Initialize logger
	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting Metadata Recompute Worker")
	log.Info("Configuration loaded",
		zap.String("consumer_group", cfg.Worker.ConsumerGroup),
		zap.Int("max_retries", cfg.Worker.MaxRetries),
		zap.Duration("stream_read_timeout", cfg.Worker.StreamReadTimeout),
		zap.String("db_driver", cfg.Database.Driver))

	// 3. Open stores and Redis Stream
	stores, err := bootstrap.Open(cfg, bootstrap.Options{Streams: true}, log)
	if err != nil {
		log.Fatal("Failed to open stores", zap.Error(err))
	}
	defer func() {
		if err := stores.Close(); err != nil {
			log.Error("Failed to close stores", zap.Error(err))
		}
	}()

	// 4. Initialize use cases
	aggregationUC := usecase.NewAggregationUseCase(
		stores.Trajectories,
		stores.Graph,
		stores.Metadata,
		stores.Cache,
		cfg,
		log,
	)

	// 5. Initialize workers
	recomputeWorker := aggregation.NewRecomputeWorker(
		stores.Streams,
		aggregationUC,
		cfg.Worker.ConsumerGroup,
		cfg.Worker.ConsumerName,
		cfg.Worker.MaxRetries,
		log,
	)

	// 6. Create worker manager and register workers
	workerManager := worker.NewWorkerManager(worker.DefaultShutdownTimeout, log)
	workerManager.Register(recomputeWorker)

	// 7. Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := workerManager.Start(ctx); err != nil {
		log.Fatal("Failed to start workers", zap.Error(err))
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	log.Info("Received shutdown signal")

	// Cancel context to stop workers
	cancel()

	if err := workerManager.Stop(); err != nil {
		log.Error("Error stopping workers", zap.Error(err))
	}

	log.Info("Worker shutdown complete")
}
