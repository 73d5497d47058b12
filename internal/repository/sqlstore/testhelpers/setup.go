package testhelpers

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/map-metadata/internal/domain"
	"github.com/map-metadata/internal/repository/sqlstore"
)

// TestDB represents a test database connection
type TestDB struct {
	DB     *sqlstore.DB
	Logger *zap.Logger
}

// SetupTestDB connects to the PostgreSQL test database and applies the
// schema. The test is skipped when TEST_DB_HOST is not set.
func SetupTestDB(t *testing.T) *TestDB {
	host := os.Getenv("TEST_DB_HOST")
	if host == "" {
		t.Skip("TEST_DB_HOST not set, skipping PostgreSQL tests")
	}
	port := getEnv("TEST_DB_PORT", "5433")
	user := getEnv("TEST_DB_USER", "postgres")
	password := getEnv("TEST_DB_PASSWORD", "postgres")
	dbname := getEnv("TEST_DB_NAME", "metadata_test")
	sslmode := getEnv("TEST_DB_SSLMODE", "disable")

	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, dbname, sslmode,
	)

	// Retry connection with exponential backoff to wait for DB recovery
	var db *sqlx.DB
	var err error
	maxRetries := 10
	retryDelay := 500 * time.Millisecond

	for i := 0; i < maxRetries; i++ {
		db, err = sqlx.Connect("postgres", connStr)
		if err == nil {
			break
		}

		if i < maxRetries-1 {
			t.Logf("Database not ready (attempt %d/%d), waiting %v...", i+1, maxRetries, retryDelay)
			time.Sleep(retryDelay)
			retryDelay *= 2
		}
	}

	if err != nil {
		t.Fatalf("Failed to connect to test database after %d attempts: %v", maxRetries, err)
	}

	logger := zap.NewNop()
	wrapped := sqlstore.NewDBForTest(db, logger)
	if err := wrapped.Migrate(context.Background()); err != nil {
		t.Fatalf("Failed to apply schema: %v", err)
	}

	return &TestDB{DB: wrapped, Logger: logger}
}

// SetupSQLite opens a private in-memory SQLite database with the schema.
func SetupSQLite(t *testing.T) *TestDB {
	logger := zap.NewNop()
	db, err := sqlstore.OpenSQLite(":memory:", logger)
	if err != nil {
		t.Fatalf("Failed to open sqlite: %v", err)
	}
	return &TestDB{DB: db, Logger: logger}
}

// Close closes the database connection
func (tdb *TestDB) Close() {
	if tdb.DB != nil {
		tdb.DB.Close()
	}
}

// Cleanup removes all metadata rows and run history
func (tdb *TestDB) Cleanup(ctx context.Context) error {
	tables := make([]string, 0, len(domain.AllTables)+1)
	for _, t := range domain.AllTables {
		tables = append(tables, string(t))
	}
	tables = append(tables, "metadata_runs")

	for _, table := range tables {
		if _, err := tdb.DB.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("cleanup %s: %w", table, err)
		}
	}
	return nil
}

// getEnv gets environment variable or returns default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
