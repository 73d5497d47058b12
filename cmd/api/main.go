package main

// @title Map Metadata Service API
// @version 1.0.0
// @description Сервис агрегации метаданных дорожной сети по GPS-траекториям. Строит и отдаёт четыре таблицы: структурные и функциональные метаданные рёбер и узлов.
// @description
// @description Основные возможности:
// @description - Пересчёт таблиц по CSV траекторий и графа (синхронно или через Redis Stream)
// @description - Пространственные запросы к таблицам по точке или многоугольнику
// @description - Классификация поворота между курсами на ребре
// @description - Диагностика последнего прогона

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /
// @schemes http https

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/map-metadata/internal/bootstrap"
	"github.com/map-metadata/internal/config"
	httpDelivery "github.com/map-metadata/internal/delivery/http"
	"github.com/map-metadata/internal/delivery/http/handler"
	"github.com/map-metadata/internal/pkg/logger"
	"github.com/map-metadata/internal/usecase"
)

func main() {
	configPath := flag.String("config", "", "path to config file (default .env)")
	flag.Parse()

	// 1. Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// 2. Initialize logger
	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting Map Metadata Service")
	log.Info("Configuration loaded",
		zap.String("env", cfg.Server.Env),
		zap.String("server_addr", cfg.GetServerAddr()),
		zap.String("db_driver", cfg.Database.Driver),
		zap.String("cache_backend", cfg.Cache.Backend),
	)

	// 3. Open stores (метаданные, кеш, Redis Stream для асинхронных прогонов)
	stores, err := bootstrap.Open(cfg, bootstrap.Options{Streams: cfg.Worker.Enabled}, log)
	if err != nil {
		log.Fatal("Failed to open stores", zap.Error(err))
	}
	defer func() {
		if err := stores.Close(); err != nil {
			log.Error("Failed to close stores", zap.Error(err))
		}
	}()

	// 4. Health checks
	checks := make(map[string]handler.HealthCheck)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	for name, check := range stores.Checks() {
		if err := check(ctx); err != nil {
			log.Fatal("Health check failed", zap.String("component", name), zap.Error(err))
		}
		checks[name] = check
	}
	cancel()

	log.Info("All connections healthy", zap.Int("components", len(checks)))

	// 5. Initialize Use Cases
	aggregationUC := usecase.NewAggregationUseCase(
		stores.Trajectories,
		stores.Graph,
		stores.Metadata,
		stores.Cache,
		cfg,
		log,
	)

	queryUC := usecase.NewQueryUseCase(
		stores.Metadata,
		stores.Cache,
		cfg.Cache.QueryCacheTTL,
		cfg.Cache.RunCacheTTL,
		cfg.Pipeline.DefaultPadding,
		log,
	)

	log.Info("Use cases initialized")

	// 6. Initialize HTTP Handlers
	healthHandler := handler.NewHealthHandler(checks, log)
	metadataHandler := handler.NewMetadataHandler(queryUC, log)
	// без воркера Streams == nil, и async=true отвечает 503
	runHandler := handler.NewRunHandler(aggregationUC, queryUC, stores.Streams, log)

	log.Info("HTTP handlers initialized")

	// 7. Initialize HTTP Server
	server := httpDelivery.NewServer(
		cfg,
		log,
		healthHandler,
		metadataHandler,
		runHandler,
	)

	// 8. Start server in goroutine
	go func() {
		if err := server.Start(); err != nil {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	log.Info("Server started successfully",
		zap.String("address", cfg.GetServerAddr()),
		zap.String("env", cfg.Server.Env),
	)

	// 9. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server gracefully...")

	ctx, cancel = context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("Server shutdown error", zap.Error(err))
	}

	log.Info("Server stopped successfully")
}
