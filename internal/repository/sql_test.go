package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/fjod/go_cart/mobile-cart/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupSQLite(t *testing.T, cartKey string) (*SQLRepository, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cart.db")

	repo, err := NewSQLiteRepository(path, cartKey)
	require.NoError(t, err)
	require.NoError(t, repo.RunMigrations())
	t.Cleanup(func() { repo.Close() })

	return repo, path
}

func TestSQLiteRepository_EmptyCart(t *testing.T) {
	repo, _ := setupSQLite(t, "device-1")

	items, err := repo.Load(context.Background())

	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestSQLiteRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	repo, path := setupSQLite(t, "device-1")

	require.NoError(t, repo.Save(ctx, sampleItems()))
	require.NoError(t, repo.Close())

	reopened, err := NewSQLiteRepository(path, "device-1")
	require.NoError(t, err)
	defer reopened.Close()
	require.NoError(t, reopened.RunMigrations())

	items, err := reopened.Load(ctx)
	require.NoError(t, err)
	assertSameItems(t, sampleItems(), items)
}

func TestSQLiteRepository_SaveReplacesAndKeepsOrder(t *testing.T) {
	ctx := context.Background()
	repo, _ := setupSQLite(t, "device-1")

	require.NoError(t, repo.Save(ctx, sampleItems()))

	reordered := []domain.LineItem{
		{ProductID: "p3", Name: "Gizmo", UnitPrice: decimal.RequireFromString("1.25"), Quantity: 4},
		sampleItems()[0],
	}
	require.NoError(t, repo.Save(ctx, reordered))

	items, err := repo.Load(ctx)
	require.NoError(t, err)
	assertSameItems(t, reordered, items)

	require.NoError(t, repo.Save(ctx, nil))
	items, err = repo.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestSQLiteRepository_KeepsSubCentPrices(t *testing.T) {
	ctx := context.Background()
	repo, _ := setupSQLite(t, "device-1")
	items := []domain.LineItem{
		{ProductID: "p4", Name: "Bolt", UnitPrice: decimal.RequireFromString("19.999"), Quantity: 2},
	}

	require.NoError(t, repo.Save(ctx, items))
	loaded, err := repo.Load(ctx)
	require.NoError(t, err)
	assertSameItems(t, items, loaded)
}

func TestSQLiteRepository_IsolatesCartKeys(t *testing.T) {
	ctx := context.Background()
	repo, path := setupSQLite(t, "device-1")
	require.NoError(t, repo.Save(ctx, sampleItems()))
	require.NoError(t, repo.Close())

	other, err := NewSQLiteRepository(path, "device-2")
	require.NoError(t, err)
	defer other.Close()

	items, err := other.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestSQLiteRepository_MigrationsAreIdempotent(t *testing.T) {
	repo, _ := setupSQLite(t, "device-1")
	assert.NoError(t, repo.RunMigrations())
}

func setupPostgres(t *testing.T) (*SQLRepository, func()) {
	if testing.Short() {
		t.Skip("skipping postgres container test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)

	port, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	creds := &Credentials{
		Host:     host,
		Port:     port.Int(),
		User:     "testuser",
		Password: "testpass",
		DBName:   "testdb",
	}

	repo, err := NewPostgresRepository(creds, "user-42")
	require.NoError(t, err)
	require.NoError(t, repo.RunMigrations())

	cleanup := func() {
		repo.Close()
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}

	return repo, cleanup
}

func TestPostgresRepository_RoundTrip(t *testing.T) {
	repo, cleanup := setupPostgres(t)
	defer cleanup()
	ctx := context.Background()

	items, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)

	require.NoError(t, repo.Save(ctx, sampleItems()))
	items, err = repo.Load(ctx)
	require.NoError(t, err)
	assertSameItems(t, sampleItems(), items)

	require.NoError(t, repo.Save(ctx, sampleItems()[1:]))
	items, err = repo.Load(ctx)
	require.NoError(t, err)
	assertSameItems(t, sampleItems()[1:], items)

	subCent := []domain.LineItem{
		{ProductID: "p4", Name: "Bolt", UnitPrice: decimal.RequireFromString("19.999"), Quantity: 2},
		{ProductID: "p5", Name: "Nut", UnitPrice: decimal.RequireFromString("0.0005"), Quantity: 1},
	}
	require.NoError(t, repo.Save(ctx, subCent))
	items, err = repo.Load(ctx)
	require.NoError(t, err)
	assertSameItems(t, subCent, items)
}
