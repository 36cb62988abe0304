package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func setupTestMongo(t *testing.T) (*mongo.Database, func()) {
	if testing.Short() {
		t.Skip("skipping mongodb container test in short mode")
	}
	ctx := context.Background()

	mongoContainer, err := mongodb.Run(ctx, "mongo:7")
	require.NoError(t, err)

	uri, err := mongoContainer.ConnectionString(ctx)
	require.NoError(t, err)

	db, err := ConnectMongoDB(ctx, uri, "testdb")
	require.NoError(t, err)

	cleanup := func() {
		_ = db.Client().Disconnect(ctx)
		if err := mongoContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}

	return db, cleanup
}

func TestMongoRepository(t *testing.T) {
	db, cleanup := setupTestMongo(t)
	defer cleanup()
	ctx := context.Background()

	repo := NewMongoRepository(db, "device-1")
	require.NoError(t, repo.CreateIndexes(ctx))

	t.Run("missing cart is empty", func(t *testing.T) {
		items, err := repo.Load(ctx)
		require.NoError(t, err)
		assert.Empty(t, items)
	})

	t.Run("round trip", func(t *testing.T) {
		require.NoError(t, repo.Save(ctx, sampleItems()))

		items, err := NewMongoRepository(db, "device-1").Load(ctx)
		require.NoError(t, err)
		assertSameItems(t, sampleItems(), items)
	})

	t.Run("save upserts a single document", func(t *testing.T) {
		require.NoError(t, repo.Save(ctx, sampleItems()[:1]))

		count, err := db.Collection(cartsCollection).CountDocuments(ctx, bson.M{"cart_key": "device-1"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)

		items, err := repo.Load(ctx)
		require.NoError(t, err)
		assertSameItems(t, sampleItems()[:1], items)
	})

	t.Run("carts are isolated by key", func(t *testing.T) {
		items, err := NewMongoRepository(db, "device-2").Load(ctx)
		require.NoError(t, err)
		assert.Empty(t, items)
	})
}
