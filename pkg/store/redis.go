package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisBackend stores blobs as plain Redis strings.
type RedisBackend struct {
	client *redis.Client
}

// NewRedisBackend wraps an already connected client.
func NewRedisBackend(client *redis.Client) *RedisBackend {
	return &RedisBackend{client: client}
}

func (b *RedisBackend) Get(ctx context.Context, key string) ([]byte, error) {
	raw, err := b.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrKeyNotFound
		}
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return raw, nil
}

func (b *RedisBackend) Put(ctx context.Context, key string, value []byte) error {
	if err := b.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (b *RedisBackend) Delete(ctx context.Context, key string) error {
	if err := b.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis delete %s: %w", key, err)
	}
	return nil
}

// Commit wraps the writes in MULTI/EXEC.
func (b *RedisBackend) Commit(ctx context.Context, writes []Write) error {
	_, err := b.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, w := range writes {
			if w.Delete {
				pipe.Del(ctx, w.Key)
				continue
			}
			pipe.Set(ctx, w.Key, w.Value, 0)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis commit: %w", err)
	}
	return nil
}

func (b *RedisBackend) Close() error {
	return b.client.Close()
}
