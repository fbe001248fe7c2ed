package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"
)

const (
	redisDataField    = "data"
	redisVersionField = "version"
	redisScanCount    = 200
)

// RedisStore persists each entry as a hash holding the payload and its version.
type RedisStore struct {
	client    *redis.Client
	namespace string
}

// NewRedisStore constructs a Redis-backed store. Keys are prefixed with namespace when it is not empty.
func NewRedisStore(client *redis.Client, namespace string) *RedisStore {
	return &RedisStore{client: client, namespace: namespace}
}

func (r *RedisStore) Get(ctx context.Context, key string) (Entry, error) {
	values, err := r.client.HMGet(ctx, r.redisKey(key), redisDataField, redisVersionField).Result()
	if err != nil {
		return Entry{}, fmt.Errorf("redis get %s: %w", key, err)
	}
	return decodeRedisEntry(key, values)
}

func (r *RedisStore) Set(ctx context.Context, key string, value []byte) (int64, error) {
	redisKey := r.redisKey(key)

	var incr *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, redisKey, redisDataField, value)
		incr = pipe.HIncrBy(ctx, redisKey, redisVersionField, 1)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("redis set %s: %w", key, err)
	}
	return incr.Val(), nil
}

func (r *RedisStore) CompareAndSwap(ctx context.Context, key string, value []byte, expected int64) (int64, error) {
	redisKey := r.redisKey(key)
	next := expected + 1

	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.HGet(ctx, redisKey, redisVersionField).Int64()
		if errors.Is(err, redis.Nil) {
			current = 0
		} else if err != nil {
			return err
		}
		if current != expected {
			return ErrVersionConflict
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, redisKey, redisDataField, value, redisVersionField, next)
			return nil
		})
		return err
	}, redisKey)

	switch {
	case err == nil:
		return next, nil
	case errors.Is(err, ErrVersionConflict), errors.Is(err, redis.TxFailedErr):
		return 0, ErrVersionConflict
	default:
		return 0, fmt.Errorf("redis compare-and-swap %s: %w", key, err)
	}
}

func (r *RedisStore) ScanPrefix(ctx context.Context, prefix string) ([]Entry, error) {
	pattern := escapeGlob(r.redisKey(prefix)) + "*"

	keys := make([]string, 0)
	iter := r.client.Scan(ctx, 0, pattern, redisScanCount).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan %s: %w", prefix, err)
	}
	sort.Strings(keys)

	out := make([]Entry, 0, len(keys))
	for _, redisKey := range keys {
		values, err := r.client.HMGet(ctx, redisKey, redisDataField, redisVersionField).Result()
		if err != nil {
			return nil, fmt.Errorf("redis scan %s: %w", prefix, err)
		}
		entry, err := decodeRedisEntry(strings.TrimPrefix(redisKey, r.namespace), values)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, nil
}

func (r *RedisStore) redisKey(key string) string {
	return r.namespace + key
}

func decodeRedisEntry(key string, values []interface{}) (Entry, error) {
	if len(values) != 2 || values[0] == nil {
		return Entry{}, ErrNotFound
	}

	data, ok := values[0].(string)
	if !ok {
		return Entry{}, fmt.Errorf("redis get %s: unexpected payload type %T", key, values[0])
	}

	var version int64
	if raw, ok := values[1].(string); ok {
		if _, err := fmt.Sscan(raw, &version); err != nil {
			return Entry{}, fmt.Errorf("redis get %s: invalid version: %w", key, err)
		}
	}

	return Entry{Key: key, Value: []byte(data), Version: version}, nil
}

func escapeGlob(value string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)
	return replacer.Replace(value)
}
