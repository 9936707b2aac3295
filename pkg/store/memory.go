package store

import (
	"context"
	"sync"
)

// MemoryBackend keeps blobs in process memory.
type MemoryBackend struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryBackend constructs an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{data: make(map[string][]byte)}
}

func (b *MemoryBackend) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	value, ok := b.data[key]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return append([]byte(nil), value...), nil
}

func (b *MemoryBackend) Put(ctx context.Context, key string, value []byte) error {
	return b.Commit(ctx, []Write{{Key: key, Value: value}})
}

func (b *MemoryBackend) Delete(ctx context.Context, key string) error {
	return b.Commit(ctx, []Write{{Key: key, Delete: true}})
}

func (b *MemoryBackend) Commit(ctx context.Context, writes []Write) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, w := range writes {
		if w.Delete {
			delete(b.data, w.Key)
			continue
		}
		b.data[w.Key] = append([]byte(nil), w.Value...)
	}
	return nil
}

func (b *MemoryBackend) Close() error {
	return nil
}
