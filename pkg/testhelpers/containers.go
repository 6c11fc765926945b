package testhelpers

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"github.com/ekaya-inc/rfqportal/pkg/database"
)

// PostgresImage is the PostgreSQL image used for integration tests.
const PostgresImage = "postgres:16-alpine"

// PortalMaxConnections sizes the portal database pool. Concurrency tests must
// stay below it since every ScopedContext holds a connection until cleanup.
const PortalMaxConnections = 16

// acquireTimeout bounds ScopedContext so pool exhaustion fails the test.
const acquireTimeout = 30 * time.Second

// PortalDatabase is the database created inside the container for the
// application schema.
const PortalDatabase = "rfqportal_test"

// TestDB holds a shared test database container and superuser connection pool.
type TestDB struct {
	Container testcontainers.Container
	Pool      *pgxpool.Pool
	ConnStr   string
}

var (
	sharedTestDB     *TestDB
	sharedTestDBOnce sync.Once
	sharedTestDBErr  error
)

// GetTestDB returns a shared PostgreSQL container for integration tests.
// The container is created once and reused across all tests in the run.
func GetTestDB(t *testing.T) *TestDB {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode (requires Docker)")
	}

	sharedTestDBOnce.Do(func() {
		sharedTestDB, sharedTestDBErr = setupTestDB()
	})

	if sharedTestDBErr != nil {
		t.Fatalf("Failed to setup test database: %v", sharedTestDBErr)
	}

	return sharedTestDB
}

func setupTestDB() (*TestDB, error) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        PostgresImage,
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_DB":       "postgres",
			"POSTGRES_USER":     "rfq",
			"POSTGRES_PASSWORD": "test_password",
		},
		// The entrypoint restarts the server once after init.
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start test container: %w", err)
	}

	connStr, err := ConnString(ctx, container, "postgres")
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	var pingErr error
	for range 10 {
		if pingErr = pool.Ping(ctx); pingErr == nil {
			break
		}
		time.Sleep(500 * time.Millisecond)
	}
	if pingErr != nil {
		pool.Close()
		return nil, fmt.Errorf("test database never became reachable: %w", pingErr)
	}

	return &TestDB{
		Container: container,
		Pool:      pool,
		ConnStr:   connStr,
	}, nil
}

// ConnString builds a superuser connection string for dbName in the container.
func ConnString(ctx context.Context, container testcontainers.Container, dbName string) (string, error) {
	host, err := container.Host(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get container host: %w", err)
	}

	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		return "", fmt.Errorf("failed to get container port: %w", err)
	}

	return fmt.Sprintf("postgres://rfq:test_password@%s:%s/%s?sslmode=disable",
		host, port.Port(), dbName), nil
}

// PortalDB holds the application database connection with migrations applied.
// Use this for testing handlers, services, and repositories against a real database.
type PortalDB struct {
	DB      *database.DB
	ConnStr string
}

var (
	sharedPortalDB     *PortalDB
	sharedPortalDBOnce sync.Once
	sharedPortalDBErr  error
)

// GetPortalDB returns a shared application database for integration tests.
// The database has migrations applied and is reused across all tests.
func GetPortalDB(t *testing.T) *PortalDB {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode (requires Docker)")
	}

	testDB := GetTestDB(t)

	sharedPortalDBOnce.Do(func() {
		sharedPortalDB, sharedPortalDBErr = setupPortalDB(testDB)
	})

	if sharedPortalDBErr != nil {
		t.Fatalf("Failed to setup portal database: %v", sharedPortalDBErr)
	}

	return sharedPortalDB
}

func setupPortalDB(testDB *TestDB) (*PortalDB, error) {
	ctx := context.Background()

	if _, err := testDB.Pool.Exec(ctx, "CREATE DATABASE "+PortalDatabase); err != nil {
		return nil, fmt.Errorf("failed to create portal database: %w", err)
	}

	connStr, err := ConnString(ctx, testDB.Container, PortalDatabase)
	if err != nil {
		return nil, err
	}

	db, err := database.NewConnection(ctx, &database.Config{
		URL:            connStr,
		MaxConnections: PortalMaxConnections,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to portal database: %w", err)
	}

	sqlDB := stdlib.OpenDBFromPool(db.Pool)
	defer sqlDB.Close()

	if err := database.RunMigrations(sqlDB, zap.NewNop()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &PortalDB{
		DB:      db,
		ConnStr: connStr,
	}, nil
}

// ScopedContext returns a context holding a connection from the portal
// database. The connection is released when the test ends.
func (e *PortalDB) ScopedContext(t *testing.T) context.Context {
	t.Helper()

	acquireCtx, cancel := context.WithTimeout(context.Background(), acquireTimeout)
	defer cancel()

	scope, err := e.DB.Acquire(acquireCtx)
	if err != nil {
		t.Fatalf("Failed to acquire connection: %v", err)
	}
	t.Cleanup(scope.Close)

	return database.SetScope(context.Background(), scope)
}

// Truncate removes all application rows so each test starts clean.
func (e *PortalDB) Truncate(t *testing.T) {
	t.Helper()

	_, err := e.DB.Pool.Exec(context.Background(),
		"TRUNCATE emails, quotes, rfqs, suppliers CASCADE")
	if err != nil {
		t.Fatalf("Failed to truncate tables: %v", err)
	}
}
