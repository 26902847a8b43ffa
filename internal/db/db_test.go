// Package db provides integration tests for PostgreSQL operations.
package db

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/raphaelgruber/recipebox/internal/metrics"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

var testDB *Client
var testMetrics *metrics.Collector

// TestMain starts a PostgreSQL container shared by all integration tests.
// In short mode no container is started and integration tests skip.
func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		os.Exit(m.Run())
	}

	// Disable ryuk (cleanup container) as it can cause issues in some environments
	os.Setenv("TESTCONTAINERS_RYUK_DISABLED", "true")

	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("recipebox_test"),
		postgres.WithUsername("recipebox"),
		postgres.WithPassword("recipebox"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(2*time.Minute),
		),
	)
	if err != nil {
		log.Fatalf("Failed to start PostgreSQL container: %v", err)
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		log.Fatalf("Failed to get connection string: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	testMetrics = metrics.NewCollector()
	testDB, err = NewClient(ctx, Config{URL: connStr, MaxConns: 4}, logger, testMetrics)
	if err != nil {
		log.Fatalf("Failed to connect to test database: %v", err)
	}
	if err := testDB.Migrate(ctx); err != nil {
		log.Fatalf("Failed to apply migrations: %v", err)
	}

	code := m.Run()

	testDB.Close()
	_ = container.Terminate(ctx)

	os.Exit(code)
}

// testClient returns the shared client with an empty recipes/users dataset.
// Skips in short mode.
func testClient(t *testing.T) (*Client, context.Context) {
	t.Helper()
	if testing.Short() || testDB == nil {
		t.Skip("skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)

	if err := testDB.WipeData(ctx); err != nil {
		t.Fatalf("wipe data: %v", err)
	}
	return testDB, ctx
}
