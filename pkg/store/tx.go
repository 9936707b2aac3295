package store

import (
	"context"
	"fmt"
	"time"
)

// Tx stages collection writes so several collections can be replaced in one atomic commit.
type Tx struct {
	ctx    context.Context
	store  *Store
	staged map[string][]byte
	order  []string
}

// Context returns the context the transaction was opened with.
func (tx *Tx) Context() context.Context {
	return tx.ctx
}

// Update runs fn and commits every collection it wrote through a single Backend.Commit.
// Nothing is written when fn returns an error. Calls are serialised within the process.
func (s *Store) Update(ctx context.Context, fn func(tx *Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &Tx{ctx: ctx, store: s, staged: make(map[string][]byte)}
	if err := fn(tx); err != nil {
		return err
	}
	if len(tx.order) == 0 {
		return nil
	}

	writes := make([]Write, 0, len(tx.order))
	for _, key := range tx.order {
		writes = append(writes, Write{Key: key, Value: tx.staged[key]})
	}
	start := time.Now()
	err := s.backend.Commit(ctx, writes)
	s.observe("commit", start, err)
	if err != nil {
		return fmt.Errorf("commit %d collections: %w", len(writes), err)
	}
	return nil
}

// Read loads a collection inside a transaction, observing writes already staged in it.
func Read[T any](tx *Tx, collection string) (Result[T], error) {
	if raw, ok := tx.staged[tx.store.Key(collection)]; ok {
		records, err := decode[T](raw)
		if err != nil {
			return Result[T]{Source: SourceNone}, fmt.Errorf("staged %s: %w: %w", collection, ErrCorrupt, err)
		}
		return Result[T]{Records: records, Source: SourceStore}, nil
	}
	return Load[T](tx.ctx, tx.store, collection)
}

// Stage stages a full replacement of a collection.
func Stage[T any](tx *Tx, collection string, records []T) error {
	payload, err := encode(records)
	if err != nil {
		return fmt.Errorf("encode %s: %w", collection, err)
	}
	key := tx.store.Key(collection)
	if _, ok := tx.staged[key]; !ok {
		tx.order = append(tx.order, key)
	}
	tx.staged[key] = payload
	return nil
}
