package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"basebond/internal/model"
)

const (
	redisKeyPrefix = "basebond:op:"
	redisIndexKey  = "basebond:ops"
)

// RedisStore keeps one JSON value per operation with a TTL, plus an index set
// of ids. Ids whose value expired are pruned from the index on List.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects to url. A value that is not a redis:// URL is taken
// as a plain host:port address.
func NewRedisStore(url string, ttl time.Duration) *RedisStore {
	opt, err := redis.ParseURL(url)
	if err != nil {
		opt = &redis.Options{
			Addr: url,
		}
	}
	return NewRedisStoreWithClient(redis.NewClient(opt), ttl)
}

// NewRedisStoreWithClient wraps an existing client.
func NewRedisStoreWithClient(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func redisKey(id string) string {
	return redisKeyPrefix + id
}

func (s *RedisStore) Put(ctx context.Context, op model.PendingOperation) error {
	data, err := json.Marshal(op)
	if err != nil {
		return fmt.Errorf("marshal operation: %w", err)
	}
	if err := s.client.Set(ctx, redisKey(op.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	if err := s.client.SAdd(ctx, redisIndexKey, op.ID).Err(); err != nil {
		return fmt.Errorf("redis index: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (model.PendingOperation, error) {
	data, err := s.client.Get(ctx, redisKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return model.PendingOperation{}, ErrNotFound
		}
		return model.PendingOperation{}, fmt.Errorf("redis get: %w", err)
	}
	var op model.PendingOperation
	if err := json.Unmarshal(data, &op); err != nil {
		return model.PendingOperation{}, fmt.Errorf("parse operation: %w", err)
	}
	return op, nil
}

func (s *RedisStore) List(ctx context.Context) ([]model.PendingOperation, error) {
	ids, err := s.client.SMembers(ctx, redisIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("redis members: %w", err)
	}
	out := make([]model.PendingOperation, 0, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = redisKey(id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis mget: %w", err)
	}

	expired := make([]interface{}, 0)
	for i, v := range values {
		text, ok := v.(string)
		if !ok {
			expired = append(expired, ids[i])
			continue
		}
		var op model.PendingOperation
		if err := json.Unmarshal([]byte(text), &op); err != nil {
			return nil, fmt.Errorf("parse operation %s: %w", ids[i], err)
		}
		out = append(out, op)
	}
	if len(expired) > 0 {
		if err := s.client.SRem(ctx, redisIndexKey, expired...).Err(); err != nil {
			return nil, fmt.Errorf("redis prune: %w", err)
		}
	}
	sortOperations(out)
	return out, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
