package database

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupPostgresDB starts a throwaway postgres container. Set
// CAMLENS_PG_TESTS=1 to enable; it needs a running Docker daemon.
func setupPostgresDB(t *testing.T) *DB {
	t.Helper()

	if os.Getenv("CAMLENS_PG_TESTS") != "1" {
		t.Skip("set CAMLENS_PG_TESTS=1 to run postgres tests")
	}

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("camlens_test"),
		postgres.WithUsername("camlens_test"),
		postgres.WithPassword("camlens_test_password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	})

	host, err := pgContainer.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := pgContainer.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	db, err := NewDB(ctx, Config{
		Type:     "postgres",
		Host:     host,
		Port:     port.Int(),
		User:     "camlens_test",
		Password: "camlens_test_password",
		Name:     "camlens_test",
	})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, err := NewMigrator(db, zerolog.Nop()).Run(ctx); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return db
}

// eachDB runs fn against sqlite and, when enabled, postgres.
func eachDB(t *testing.T, fn func(t *testing.T, db *DB)) {
	t.Run("sqlite", func(t *testing.T) {
		fn(t, NewTestDB(t))
	})
	t.Run("postgres", func(t *testing.T) {
		fn(t, setupPostgresDB(t))
	})
}
