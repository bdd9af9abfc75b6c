package account

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// redisKeyPrefix namespaces account hashes: steamsync:account:{name}
const redisKeyPrefix = "steamsync:account:"

// RedisStore keeps an account's settings in a single Redis hash.
type RedisStore struct {
	rdb redis.UniversalClient
	key string
}

// NewRedisStore creates a store for account on rdb.
func NewRedisStore(rdb redis.UniversalClient, account string) *RedisStore {
	return &RedisStore{rdb: rdb, key: buildAccountKey(account)}
}

// NewRedisClient connects to a single Redis server. The caller owns the
// client and closes it on shutdown.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return rdb, nil
}

func buildAccountKey(account string) string {
	return redisKeyPrefix + account
}

// Key returns the hash the store writes to.
func (r *RedisStore) Key() string {
	return r.key
}

// Get returns the value stored under key.
func (r *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := r.rdb.HGet(ctx, r.key, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return v, true, nil
}

// Set stores value under key.
func (r *RedisStore) Set(ctx context.Context, key, value string) error {
	if err := r.rdb.HSet(ctx, r.key, key, value).Err(); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

// Delete removes key.
func (r *RedisStore) Delete(ctx context.Context, key string) error {
	if err := r.rdb.HDel(ctx, r.key, key).Err(); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}
