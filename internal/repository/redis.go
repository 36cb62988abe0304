package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/go_cart/mobile-cart/internal/domain"
	"github.com/redis/go-redis/v9"
)

// DefaultCartTTL matches the retention of abandoned carts in the document store.
const DefaultCartTTL = 90 * 24 * time.Hour

// RedisRepository keeps the cart as one JSON value under cart:<key>.
// Every save refreshes the expiry; a zero TTL keeps the key forever.
type RedisRepository struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

func NewRedisRepository(client *redis.Client, cartKey string, ttl time.Duration) *RedisRepository {
	return &RedisRepository{
		client: client,
		key:    cartKey,
		ttl:    ttl,
	}
}

func (r *RedisRepository) Load(ctx context.Context) ([]domain.LineItem, error) {
	data, err := r.client.Get(ctx, cacheKey(r.key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return []domain.LineItem{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var doc fileDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal cart failed: %w", err)
	}
	if doc.Items == nil {
		doc.Items = []domain.LineItem{}
	}
	return doc.Items, nil
}

func (r *RedisRepository) Save(ctx context.Context, items []domain.LineItem) error {
	if items == nil {
		items = []domain.LineItem{}
	}
	data, err := json.Marshal(fileDocument{Items: items})
	if err != nil {
		return fmt.Errorf("marshal cart failed: %w", err)
	}

	if err := r.client.Set(ctx, cacheKey(r.key), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func cacheKey(cartKey string) string {
	return fmt.Sprintf("cart:%s", cartKey)
}
