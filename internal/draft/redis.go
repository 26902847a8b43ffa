package draft

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps the draft in Redis so several composer sessions can share it.
type RedisStore struct {
	rdb *redis.Client
	key string
	ttl time.Duration
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore stores the draft under key. A zero ttl keeps drafts forever.
func NewRedisStore(rdb *redis.Client, key string, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, key: key, ttl: ttl}
}

func (r *RedisStore) Get(ctx context.Context) (*State, error) {
	data, err := r.rdb.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get draft: %w", err)
	}
	return decode(data)
}

func (r *RedisStore) Set(ctx context.Context, s State) error {
	data, err := encode(s)
	if err != nil {
		return err
	}
	if err := r.rdb.Set(ctx, r.key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("set draft: %w", err)
	}
	return nil
}

func (r *RedisStore) Clear(ctx context.Context) error {
	if err := r.rdb.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("delete draft: %w", err)
	}
	return nil
}
