package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Cache    CacheConfig
	Log      LogConfig
	Worker   WorkerConfig
	Pipeline PipelineConfig
	Input    InputConfig
}

type ServerConfig struct {
	Host string
	Port int    `validate:"gte=1,lte=65535"`
	Env  string `validate:"oneof=development production test"`

	// CORSOrigins is a comma separated origin list.
	CORSOrigins   string `validate:"required"`
	// RunsPerMinute limits POST /api/v1/runs per client IP.
	RunsPerMinute int    `validate:"gte=1"`
}

// DatabaseConfig selects the metadata store. Driver "csv" keeps the tables
// as files under Input.OutputDir; "sqlite" uses Path; "pgx" connects to
// PostgreSQL.
type DatabaseConfig struct {
	Driver          string `validate:"oneof=csv sqlite pgx"`
	Path            string
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxConns        int `validate:"gte=1"`
	MaxIdleConns    int `validate:"gte=0"`
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// RedisConfig is shared by the query cache and the run streams.
type RedisConfig struct {
	Host        string
	Port        int
	Password    string
	DB          int
	PoolSize    int `validate:"gte=0"`
	DialTimeout time.Duration
}

// CacheConfig selects the query cache. Backend "none" disables caching.
type CacheConfig struct {
	Backend        string `validate:"oneof=redis memory none"`
	QueryCacheTTL  time.Duration
	RunCacheTTL    time.Duration
	MemoryCapacity int `validate:"gte=1"`
}

type LogConfig struct {
	Level string `validate:"oneof=debug info warn error"`
}

type WorkerConfig struct {
	Enabled           bool
	ConsumerGroup     string `validate:"required"`
	ConsumerName      string
	StreamReadTimeout time.Duration
	MaxRetries        int `validate:"gte=0"`
}

// PipelineConfig tunes the aggregation run.
type PipelineConfig struct {
	MinEdgeSegments    int     `validate:"gte=1"`
	MinNodeSegments    int     `validate:"gte=1"`
	IncludeEmptyBins   bool
	DistanceNormalized bool
	MergeRevisits      bool
	Workers            int     `validate:"gte=1"`
	Alpha              float64 `validate:"gt=0,lt=1"`
	EdgeCutoffMeters   float64 `validate:"gte=0"`
	NodeCutoffMeters   float64 `validate:"gte=0"`
	DefaultPadding     float64 `validate:"gt=0,lte=10"`
}

// InputConfig names the default input files and the output directory.
type InputConfig struct {
	TrajectoryPath string
	EdgesPath      string
	NodesPath      string
	OutputDir      string
	Compression    string `validate:"oneof='' none gzip zstd lz4 xz"`
	Progress       bool
}

// Load reads configuration from the optional file at path (".env" when
// empty) and the environment. Environment variables win.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path == "" {
		path = ".env"
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}
	v.AutomaticEnv()

	cfg := &Config{
		Server: ServerConfig{
			Host: v.GetString("API_HOST"),
			Port: v.GetInt("API_PORT"),
			Env:  v.GetString("API_ENV"),

			CORSOrigins:   v.GetString("API_CORS_ORIGINS"),
			RunsPerMinute: v.GetInt("API_RUNS_PER_MINUTE"),
		},
		Database: DatabaseConfig{
			Driver:          v.GetString("DB_DRIVER"),
			Path:            v.GetString("DB_PATH"),
			Host:            v.GetString("DB_HOST"),
			Port:            v.GetInt("DB_PORT"),
			User:            v.GetString("DB_USER"),
			Password:        v.GetString("DB_PASSWORD"),
			DBName:          v.GetString("DB_NAME"),
			SSLMode:         v.GetString("DB_SSLMODE"),
			MaxConns:        v.GetInt("DB_MAX_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: time.Duration(v.GetInt("DB_CONN_MAX_LIFETIME")) * time.Second,
			ConnMaxIdleTime: time.Duration(v.GetInt("DB_CONN_MAX_IDLE_TIME")) * time.Second,
		},
		Redis: RedisConfig{
			Host:        v.GetString("REDIS_HOST"),
			Port:        v.GetInt("REDIS_PORT"),
			Password:    v.GetString("REDIS_PASSWORD"),
			DB:          v.GetInt("REDIS_DB"),
			PoolSize:    v.GetInt("REDIS_POOL_SIZE"),
			DialTimeout: time.Duration(v.GetInt("REDIS_DIAL_TIMEOUT")) * time.Millisecond,
		},
		Cache: CacheConfig{
			Backend:        v.GetString("CACHE_BACKEND"),
			QueryCacheTTL:  time.Duration(v.GetInt("QUERY_CACHE_TTL")) * time.Second,
			RunCacheTTL:    time.Duration(v.GetInt("RUN_CACHE_TTL")) * time.Second,
			MemoryCapacity: v.GetInt("CACHE_MEMORY_CAPACITY"),
		},
		Log: LogConfig{
			Level: v.GetString("LOG_LEVEL"),
		},
		Worker: WorkerConfig{
			Enabled:           v.GetBool("WORKER_ENABLED"),
			ConsumerGroup:     v.GetString("WORKER_CONSUMER_GROUP"),
			ConsumerName:      v.GetString("WORKER_CONSUMER_NAME"),
			StreamReadTimeout: time.Duration(v.GetInt("WORKER_STREAM_READ_TIMEOUT")) * time.Millisecond,
			MaxRetries:        v.GetInt("WORKER_MAX_RETRIES"),
		},
		Pipeline: PipelineConfig{
			MinEdgeSegments:    v.GetInt("PIPELINE_MIN_EDGE_SEGMENTS"),
			MinNodeSegments:    v.GetInt("PIPELINE_MIN_NODE_SEGMENTS"),
			IncludeEmptyBins:   v.GetBool("PIPELINE_INCLUDE_EMPTY_BINS"),
			DistanceNormalized: v.GetBool("PIPELINE_DISTANCE_NORMALIZED"),
			MergeRevisits:      v.GetBool("PIPELINE_MERGE_REVISITS"),
			Workers:            v.GetInt("PIPELINE_WORKERS"),
			Alpha:              v.GetFloat64("PIPELINE_ALPHA"),
			EdgeCutoffMeters:   v.GetFloat64("PIPELINE_EDGE_CUTOFF_M"),
			NodeCutoffMeters:   v.GetFloat64("PIPELINE_NODE_CUTOFF_M"),
			DefaultPadding:     v.GetFloat64("PIPELINE_DEFAULT_PADDING"),
		},
		Input: InputConfig{
			TrajectoryPath: v.GetString("INPUT_TRAJECTORIES"),
			EdgesPath:      v.GetString("INPUT_EDGES"),
			NodesPath:      v.GetString("INPUT_NODES"),
			OutputDir:      v.GetString("OUTPUT_DIR"),
			Compression:    v.GetString("OUTPUT_COMPRESSION"),
			Progress:       v.GetBool("INPUT_PROGRESS"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("API_HOST", "0.0.0.0")
	v.SetDefault("API_PORT", 8080)
	v.SetDefault("API_ENV", "development")
	v.SetDefault("API_CORS_ORIGINS", "http://localhost:3000,http://localhost:5173")
	v.SetDefault("API_RUNS_PER_MINUTE", 6)

	v.SetDefault("DB_DRIVER", "csv")
	v.SetDefault("DB_PATH", "metadata.db")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 2)
	v.SetDefault("DB_CONN_MAX_LIFETIME", 3600)
	v.SetDefault("DB_CONN_MAX_IDLE_TIME", 600)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_DIAL_TIMEOUT", 5000)

	v.SetDefault("CACHE_BACKEND", "memory")
	v.SetDefault("QUERY_CACHE_TTL", 600)
	v.SetDefault("RUN_CACHE_TTL", 3600)
	v.SetDefault("CACHE_MEMORY_CAPACITY", 1024)

	v.SetDefault("LOG_LEVEL", "info")

	v.SetDefault("WORKER_CONSUMER_GROUP", "metadata-aggregation-workers")
	v.SetDefault("WORKER_STREAM_READ_TIMEOUT", 5000)
	v.SetDefault("WORKER_MAX_RETRIES", 3)

	v.SetDefault("PIPELINE_MIN_EDGE_SEGMENTS", 5)
	v.SetDefault("PIPELINE_MIN_NODE_SEGMENTS", 5)
	v.SetDefault("PIPELINE_WORKERS", 4)
	v.SetDefault("PIPELINE_ALPHA", 0.05)
	v.SetDefault("PIPELINE_EDGE_CUTOFF_M", 10)
	v.SetDefault("PIPELINE_NODE_CUTOFF_M", 40)
	v.SetDefault("PIPELINE_DEFAULT_PADDING", 0.05)

	v.SetDefault("OUTPUT_DIR", "metadata")
}

// Validate checks field constraints declared in struct tags.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
		c.Database.SSLMode,
	)
}

func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}
