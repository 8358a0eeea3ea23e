package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/safar/barrio-store/internal/config"
	"github.com/safar/barrio-store/internal/database"
	"github.com/safar/barrio-store/internal/store"
	"github.com/safar/barrio-store/migrations"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupTestDocs starts a postgres container, migrates it and returns a
// bootstrapped document store backed by it.
func setupTestDocs(t *testing.T) (*database.DocStore, func()) {
	if testing.Short() {
		t.Skip("integration test needs docker")
	}
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:14-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "testuser",
			"POSTGRES_PASSWORD": "testpass",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	postgres, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start postgres container: %v", err)
	}

	host, err := postgres.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := postgres.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	db, err := database.NewConnection(&config.DatabaseConfig{
		Driver:          database.DriverPostgres,
		URL:             fmt.Sprintf("postgres://testuser:testpass@%s:%s/testdb?sslmode=disable", host, port.Port()),
		MaxOpenConns:    5,
		MaxIdleConns:    2,
		ConnMaxLifetime: time.Minute,
	})
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}

	if _, err := database.Migrate(ctx, db, migrations.FS, "up"); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	backend, err := database.NewSQLBackend(db)
	if err != nil {
		t.Fatalf("Failed to create backend: %v", err)
	}

	docs := database.NewDocStore(backend, nil)
	if err := store.Bootstrap(ctx, docs); err != nil {
		t.Fatalf("Failed to bootstrap collections: %v", err)
	}

	cleanup := func() {
		if err := docs.Close(); err != nil {
			t.Logf("Failed to close database: %v", err)
		}
		if err := postgres.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	}

	return docs, cleanup
}
