//go:build integration

package postgres_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dejobratic/storefront/internal/cart"
	"github.com/dejobratic/storefront/internal/database"
	"github.com/dejobratic/storefront/internal/orders/adapters/postgres"
	"github.com/dejobratic/storefront/internal/orders/domain"
	"github.com/dejobratic/storefront/internal/orders/ports"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	testpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := testpostgres.Run(ctx,
		"postgres:16-alpine",
		testpostgres.WithDatabase("test"),
		testpostgres.WithUsername("test"),
		testpostgres.WithPassword("test"),
		testpostgres.BasicWaitStrategies(),
		testpostgres.WithWaitStrategy(wait.ForLog("database system is ready to accept connections").WithOccurrence(2)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	projectRoot := findProjectRoot(t)
	migrationsPath := filepath.Join(projectRoot, "migrations")

	if err := database.RunMigrations(connStr, migrationsPath); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	pool, err := database.NewPool(ctx, connStr)
	if err != nil {
		t.Fatalf("failed to create pool: %v", err)
	}

	t.Cleanup(func() {
		pool.Close()
	})

	return pool
}

func findProjectRoot(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working directory: %v", err)
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find project root (go.mod)")
		}
		dir = parent
	}
}

func testOrders() []domain.Order {
	return []domain.Order{{
		ID:        "1700000000000",
		CreatedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Items: []cart.LineItem{{
			ID:       "1",
			Title:    "Keyboard",
			Price:    decimal.RequireFromString("49.99"),
			Quantity: 2,
		}},
		Billing:       domain.Billing{Name: "Ada Lovelace", Phone: "+44123456", Address: "12 St James Square, London"},
		PaymentMethod: domain.PaymentCard,
	}}
}

func TestRepositoryRoundTrip(t *testing.T) {
	pool := setupTestDB(t)
	repo := postgres.NewRepository(pool, "myOrders")
	ctx := context.Background()

	want := testOrders()
	if err := repo.Save(ctx, want); err != nil {
		t.Fatalf("failed to save ledger: %v", err)
	}

	got, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("failed to load ledger: %v", err)
	}

	if len(got) != 1 {
		t.Fatalf("expected 1 order, got %d", len(got))
	}
	if got[0].ID != want[0].ID {
		t.Errorf("expected id %s, got %s", want[0].ID, got[0].ID)
	}
	if got[0].Items[0].Quantity != 2 {
		t.Errorf("expected quantity 2, got %d", got[0].Items[0].Quantity)
	}
	if !got[0].Items[0].Price.Equal(want[0].Items[0].Price) {
		t.Errorf("expected price %s, got %s", want[0].Items[0].Price, got[0].Items[0].Price)
	}
}

func TestRepositoryLoad_MissingRowIsEmptyLedger(t *testing.T) {
	pool := setupTestDB(t)
	repo := postgres.NewRepository(pool, "myOrders")

	orders, err := repo.Load(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(orders) != 0 {
		t.Errorf("expected empty ledger, got %d orders", len(orders))
	}
}

func TestRepositorySave_ReplacesWholesale(t *testing.T) {
	pool := setupTestDB(t)
	repo := postgres.NewRepository(pool, "myOrders")
	ctx := context.Background()

	if err := repo.Save(ctx, testOrders()); err != nil {
		t.Fatalf("failed to save ledger: %v", err)
	}
	if err := repo.Save(ctx, []domain.Order{}); err != nil {
		t.Fatalf("failed to save empty ledger: %v", err)
	}

	orders, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("failed to load ledger: %v", err)
	}
	if len(orders) != 0 {
		t.Errorf("expected the last write to win, got %d orders", len(orders))
	}
}

func TestRepositoryLoad_CorruptedPayload(t *testing.T) {
	pool := setupTestDB(t)
	repo := postgres.NewRepository(pool, "myOrders")
	ctx := context.Background()

	_, err := pool.Exec(ctx,
		`INSERT INTO ledgers (storage_key, payload) VALUES ($1, $2::jsonb)`,
		"myOrders", `{"not":"an array"}`,
	)
	if err != nil {
		t.Fatalf("failed to plant corrupted payload: %v", err)
	}

	_, err = repo.Load(ctx)
	if !errors.Is(err, ports.ErrCorrupted) {
		t.Fatalf("expected ErrCorrupted, got %v", err)
	}
}

func TestRepositoryListenSignalsOtherSessionWrites(t *testing.T) {
	pool := setupTestDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	listener := postgres.NewRepository(pool, "myOrders")
	if err := listener.Listen(ctx); err != nil {
		t.Fatalf("failed to listen: %v", err)
	}

	// a second repository over the same pool stands in for another session
	writer := postgres.NewRepository(pool, "myOrders")
	if err := writer.Save(ctx, testOrders()); err != nil {
		t.Fatalf("failed to save from other session: %v", err)
	}

	select {
	case <-listener.Changes():
	case <-time.After(5 * time.Second):
		t.Fatal("expected change notification from other session's write")
	}
}

func TestRepositoryListenIgnoresOtherStorageKeys(t *testing.T) {
	pool := setupTestDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	listener := postgres.NewRepository(pool, "myOrders")
	if err := listener.Listen(ctx); err != nil {
		t.Fatalf("failed to listen: %v", err)
	}

	other := postgres.NewRepository(pool, "otherOrders")
	if err := other.Save(ctx, testOrders()); err != nil {
		t.Fatalf("failed to save other ledger: %v", err)
	}

	select {
	case <-listener.Changes():
		t.Fatal("expected no signal for a different storage key")
	case <-time.After(500 * time.Millisecond):
	}
}
