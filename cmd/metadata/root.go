package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/map-metadata/internal/bootstrap"
	"github.com/map-metadata/internal/config"
	"github.com/map-metadata/internal/pkg/logger"
	"github.com/map-metadata/internal/usecase"
)

var out io.Writer = os.Stdout

// RootCmd is the metadata command line tool.
var RootCmd = &cobra.Command{
	Use:          "metadata",
	Short:        "Aggregate and query road network metadata from GPS trajectories",
	SilenceUsage: true,
}

func init() {
	flags := RootCmd.PersistentFlags()
	flags.String("config", "", "path to config file (default .env)")
	flags.String("store", "", "metadata store override: csv:<dir>, sqlite:<file> or pgx")
	flags.String("log-level", "", "log level override")
}

// env holds what a command needs after configuration is loaded.
type env struct {
	cfg    *config.Config
	log    *zap.Logger
	stores *bootstrap.Stores
}

func (e *env) Close() {
	if err := e.stores.Close(); err != nil {
		e.log.Error("Failed to close stores", zap.Error(err))
	}
	_ = e.log.Sync()
}

func (e *env) aggregation() *usecase.AggregationUseCase {
	return usecase.NewAggregationUseCase(e.stores.Trajectories, e.stores.Graph, e.stores.Metadata, e.stores.Cache, e.cfg, e.log)
}

func (e *env) query() *usecase.QueryUseCase {
	return usecase.NewQueryUseCase(e.stores.Metadata, e.stores.Cache,
		e.cfg.Cache.QueryCacheTTL, e.cfg.Cache.RunCacheTTL, e.cfg.Pipeline.DefaultPadding, e.log)
}

func setup(cmd *cobra.Command) (*env, error) {
	flags := cmd.Flags()
	path, err := flags.GetString("config")
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	store, err := flags.GetString("store")
	if err != nil {
		return nil, err
	}
	if err := applyStore(cfg, store); err != nil {
		return nil, err
	}
	if level, _ := flags.GetString("log-level"); level != "" {
		cfg.Log.Level = level
	}

	log, err := logger.NewWithOutput(cfg.Log.Level, "stderr")
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}

	stores, err := bootstrap.Open(cfg, bootstrap.Options{}, log)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, log: log, stores: stores}, nil
}

// applyStore overrides the metadata store from a --store value.
func applyStore(cfg *config.Config, store string) error {
	if store == "" {
		return nil
	}
	driver, target, _ := strings.Cut(store, ":")
	switch driver {
	case "csv":
		cfg.Database.Driver = driver
		if target != "" {
			cfg.Input.OutputDir = target
		}
	case "sqlite":
		if target == "" {
			return fmt.Errorf("store %q: sqlite needs a file path", store)
		}
		cfg.Database.Driver = driver
		cfg.Database.Path = target
	case "pgx":
		cfg.Database.Driver = driver
	default:
		return fmt.Errorf("unknown store %q", store)
	}
	return nil
}
