package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/decantaria/fulfillment/internal/core/domain"
	"github.com/redis/go-redis/v9"
)

const (
	quoteKeyPrefix       = "quotes:"
	idempotencyKeyPrefix = "idempotency:"
	idempotencyKeyTTL    = 24 * time.Hour
)

type RedisAdapter struct {
	client *redis.Client
}

func NewRedisAdapter(client *redis.Client) *RedisAdapter {
	return &RedisAdapter{client: client}
}

func (r *RedisAdapter) GetQuotes(ctx context.Context, key string) ([]domain.Offer, bool, error) {
	val, err := r.client.Get(ctx, quoteKeyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var offers []domain.Offer
	if err := json.Unmarshal([]byte(val), &offers); err != nil {
		return nil, false, err
	}
	return offers, true, nil
}

func (r *RedisAdapter) SetQuotes(ctx context.Context, key string, offers []domain.Offer, ttl time.Duration) error {
	payload, err := json.Marshal(offers)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, quoteKeyPrefix+key, payload, ttl).Err()
}

func (r *RedisAdapter) SetIdempotency(ctx context.Context, key string) (bool, error) {
	ok, err := r.client.SetNX(ctx, idempotencyKeyPrefix+key, 1, idempotencyKeyTTL).Result()
	if err != nil {
		return false, err
	}
	return ok, nil
}

func (r *RedisAdapter) ReleaseIdempotency(ctx context.Context, key string) error {
	return r.client.Del(ctx, idempotencyKeyPrefix+key).Err()
}
