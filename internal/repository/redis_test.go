package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis creates a miniredis server and a repository bound to it
func setupTestRedis(t *testing.T, ttl time.Duration) (*RedisRepository, *miniredis.Miniredis, func()) {
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	repo := NewRedisRepository(client, "device-1", ttl)

	cleanup := func() {
		client.Close()
		mr.Close()
	}

	return repo, mr, cleanup
}

func TestRedisRepository_MissingKeyIsEmpty(t *testing.T) {
	repo, _, cleanup := setupTestRedis(t, DefaultCartTTL)
	defer cleanup()

	items, err := repo.Load(context.Background())

	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestRedisRepository_RoundTrip(t *testing.T) {
	repo, mr, cleanup := setupTestRedis(t, DefaultCartTTL)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, sampleItems()))

	assert.True(t, mr.Exists("cart:device-1"))
	assert.Equal(t, DefaultCartTTL, mr.TTL("cart:device-1"))

	items, err := repo.Load(ctx)
	require.NoError(t, err)
	assertSameItems(t, sampleItems(), items)
}

func TestRedisRepository_NoTTL(t *testing.T) {
	repo, mr, cleanup := setupTestRedis(t, 0)
	defer cleanup()

	require.NoError(t, repo.Save(context.Background(), sampleItems()))

	assert.Equal(t, time.Duration(0), mr.TTL("cart:device-1"))
}

func TestRedisRepository_Expires(t *testing.T) {
	repo, mr, cleanup := setupTestRedis(t, time.Hour)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, sampleItems()))
	mr.FastForward(2 * time.Hour)

	items, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestRedisRepository_CorruptValue(t *testing.T) {
	repo, mr, cleanup := setupTestRedis(t, DefaultCartTTL)
	defer cleanup()
	require.NoError(t, mr.Set("cart:device-1", "not-json"))

	_, err := repo.Load(context.Background())

	assert.ErrorContains(t, err, "unmarshal cart failed")
}

func TestRedisRepository_ServerDown(t *testing.T) {
	repo, mr, cleanup := setupTestRedis(t, DefaultCartTTL)
	defer cleanup()
	mr.Close()

	err := repo.Save(context.Background(), sampleItems())

	assert.ErrorContains(t, err, "redis set failed")
}
