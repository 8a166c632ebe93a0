package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cartesian-metadata-app/internal/domain"
	"cartesian-metadata-app/internal/ports"

	"github.com/redis/go-redis/v9"
)

const (
	statePrefix    = "cartesian:oauth:state:"
	deliveryPrefix = "cartesian:webhook:delivery:"
)

// NewRedisClient connects to the Redis instance at url and pings it
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

// RedisStateStore keeps OAuth state nonces as expiring keys
type RedisStateStore struct {
	client redis.Cmdable
}

// NewRedisStateStore creates a state store on client
func NewRedisStateStore(client redis.Cmdable) *RedisStateStore {
	return &RedisStateStore{client: client}
}

var _ ports.StateStore = (*RedisStateStore)(nil)

func (s *RedisStateStore) Put(ctx context.Context, state domain.OAuthState, ttl time.Duration) error {
	if err := s.client.Set(ctx, statePrefix+state.Nonce, state.Shop, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store oauth state: %w", err)
	}
	return nil
}

// Consume reads and deletes the nonce in one round trip so a state is used at most once
func (s *RedisStateStore) Consume(ctx context.Context, nonce string) (string, bool, error) {
	shop, err := s.client.GetDel(ctx, statePrefix+nonce).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to consume oauth state: %w", err)
	}
	return shop, true, nil
}

// RedisDeliveryDeduper remembers webhook delivery ids with SETNX
type RedisDeliveryDeduper struct {
	client redis.Cmdable
}

// NewRedisDeliveryDeduper creates a deduper on client
func NewRedisDeliveryDeduper(client redis.Cmdable) *RedisDeliveryDeduper {
	return &RedisDeliveryDeduper{client: client}
}

var _ ports.DeliveryDeduper = (*RedisDeliveryDeduper)(nil)

func (d *RedisDeliveryDeduper) FirstDelivery(ctx context.Context, id string, ttl time.Duration) (bool, error) {
	first, err := d.client.SetNX(ctx, deliveryPrefix+id, time.Now().Unix(), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to record webhook delivery: %w", err)
	}
	return first, nil
}

func (d *RedisDeliveryDeduper) Release(ctx context.Context, id string) error {
	if err := d.client.Del(ctx, deliveryPrefix+id).Err(); err != nil {
		return fmt.Errorf("failed to release webhook delivery: %w", err)
	}
	return nil
}
