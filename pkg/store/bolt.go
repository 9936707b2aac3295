package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

var recordsBucket = []byte("Records")

// BoltBackend stores blobs in a single bbolt bucket.
type BoltBackend struct {
	db *bbolt.DB
}

// OpenBolt opens (or creates) the database file at path.
func OpenBolt(path string) (*BoltBackend, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create bolt directory: %w", err)
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt %s: %w", path, err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(recordsBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create bolt bucket: %w", err)
	}
	return &BoltBackend{db: db}, nil
}

func (b *BoltBackend) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []byte
	err := b.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(recordsBucket).Get([]byte(key))
		if v == nil {
			return ErrKeyNotFound
		}
		// v is only valid for the life of the transaction.
		out = append([]byte(nil), v...)
		return nil
	})
	return out, err
}

func (b *BoltBackend) Put(ctx context.Context, key string, value []byte) error {
	return b.Commit(ctx, []Write{{Key: key, Value: value}})
}

func (b *BoltBackend) Delete(ctx context.Context, key string) error {
	return b.Commit(ctx, []Write{{Key: key, Delete: true}})
}

func (b *BoltBackend) Commit(ctx context.Context, writes []Write) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(recordsBucket)
		for _, w := range writes {
			if w.Delete {
				if err := bucket.Delete([]byte(w.Key)); err != nil {
					return fmt.Errorf("bolt delete %s: %w", w.Key, err)
				}
				continue
			}
			if err := bucket.Put([]byte(w.Key), w.Value); err != nil {
				return fmt.Errorf("bolt put %s: %w", w.Key, err)
			}
		}
		return nil
	})
}

func (b *BoltBackend) Close() error {
	return b.db.Close()
}
