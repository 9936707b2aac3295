// Package store persists named JSON collections in a key-value blob store.
//
// A collection is written as one JSON array under a single key, so every save fully
// replaces the previous value. When a collection has never been written the store
// falls back to a bundled seed file named <collection>.json.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrKeyNotFound is returned by backends when a key holds no value.
	ErrKeyNotFound = errors.New("store: key not found")
	// ErrCorrupt marks stored or seeded data that is not valid JSON for the target type.
	ErrCorrupt = errors.New("store: malformed data")
	// ErrNoSeed reports that the seed source has nothing for a collection.
	ErrNoSeed = errors.New("store: no seed data")
)

// Write is a single staged mutation applied by Backend.Commit.
type Write struct {
	Key    string
	Value  []byte
	Delete bool
}

// Backend is the durable key-value blob store.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	// Commit applies all writes atomically: either every write lands or none does.
	Commit(ctx context.Context, writes []Write) error
	Close() error
}

// Observer receives timings for backend operations.
type Observer interface {
	ObserveStoreOperation(operation string, duration time.Duration, err error)
}

// Source tells where the records of a Result came from.
type Source string

const (
	SourceStore Source = "store"
	SourceSeed  Source = "seed"
	SourceNone  Source = "none"
)

// Result is the outcome of loading a collection.
type Result[T any] struct {
	Records []T
	Source  Source
}

// Empty reports whether the result holds no records.
func (r Result[T]) Empty() bool {
	return len(r.Records) == 0
}

// Options configures a Store.
type Options struct {
	KeyPrefix string
	Seeds     fs.FS
	Logger    *zap.Logger
	Observer  Observer
}

// Store layers collection semantics over a Backend.
type Store struct {
	backend  Backend
	prefix   string
	seeds    fs.FS
	logger   *zap.Logger
	observer Observer

	// mu serialises read-modify-write cycles issued through Save and Update.
	mu sync.Mutex
}

// New wraps a backend.
func New(backend Backend, opts Options) *Store {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		backend:  backend,
		prefix:   opts.KeyPrefix,
		seeds:    opts.Seeds,
		logger:   logger,
		observer: opts.Observer,
	}
}

// Key returns the backend key for a collection or value name.
func (s *Store) Key(name string) string {
	return s.prefix + name
}

// Ping reports whether the backend answers reads.
func (s *Store) Ping(ctx context.Context) error {
	if _, err := s.get(ctx, s.Key("ping")); err != nil && !errors.Is(err, ErrKeyNotFound) {
		return err
	}
	return nil
}

// Close releases the backend.
func (s *Store) Close() error {
	return s.backend.Close()
}

// Load reads a collection. A stored value wins; an absent or blank value falls back to the
// seed source, whose records are imported into the backend. Malformed data is reported as
// ErrCorrupt and left for the caller to handle.
func Load[T any](ctx context.Context, s *Store, collection string) (Result[T], error) {
	key := s.Key(collection)
	raw, err := s.get(ctx, key)
	if err != nil && !errors.Is(err, ErrKeyNotFound) {
		return Result[T]{Source: SourceNone}, fmt.Errorf("load %s: %w", collection, err)
	}
	if err == nil && len(bytes.TrimSpace(raw)) > 0 {
		records, err := decode[T](raw)
		if err != nil {
			return Result[T]{Source: SourceNone}, fmt.Errorf("load %s: %w: %w", collection, ErrCorrupt, err)
		}
		return Result[T]{Records: records, Source: SourceStore}, nil
	}

	seeded, err := LoadSeed[T](s, collection)
	if errors.Is(err, ErrNoSeed) {
		return Result[T]{Source: SourceNone}, nil
	}
	if err != nil {
		return Result[T]{Source: SourceNone}, err
	}

	payload, err := encode(seeded)
	if err == nil {
		err = s.put(ctx, key, payload)
	}
	if err != nil {
		s.logger.Warn("failed to import seed collection", zap.String("collection", collection), zap.Error(err))
	} else {
		s.logger.Info("imported seed collection", zap.String("collection", collection), zap.Int("records", len(seeded)))
	}
	return Result[T]{Records: seeded, Source: SourceSeed}, nil
}

// LoadSeed reads a collection from the seed source only.
func LoadSeed[T any](s *Store, collection string) ([]T, error) {
	if s.seeds == nil {
		return nil, ErrNoSeed
	}
	raw, err := fs.ReadFile(s.seeds, collection+".json")
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNoSeed
		}
		return nil, fmt.Errorf("read seed %s: %w", collection, err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, ErrNoSeed
	}
	records, err := decode[T](raw)
	if err != nil {
		return nil, fmt.Errorf("seed %s: %w: %w", collection, ErrCorrupt, err)
	}
	if len(records) == 0 {
		return nil, ErrNoSeed
	}
	return records, nil
}

// Save replaces a collection. It must not be called from inside Update; use Stage there.
func Save[T any](ctx context.Context, s *Store, collection string, records []T) error {
	payload, err := encode(records)
	if err != nil {
		return fmt.Errorf("encode %s: %w", collection, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.put(ctx, s.Key(collection), payload); err != nil {
		return fmt.Errorf("save %s: %w", collection, err)
	}
	return nil
}

// GetValue reads a single JSON value stored under name.
func GetValue[T any](ctx context.Context, s *Store, name string) (*T, error) {
	raw, err := s.get(ctx, s.Key(name))
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, ErrKeyNotFound
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("value %s: %w: %w", name, ErrCorrupt, err)
	}
	return &out, nil
}

// PutValue stores a single JSON value under name.
func PutValue[T any](ctx context.Context, s *Store, name string, value T) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	return s.put(ctx, s.Key(name), payload)
}

// DeleteValue removes the value stored under name. Missing values are not an error.
func DeleteValue(ctx context.Context, s *Store, name string) error {
	start := time.Now()
	err := s.backend.Delete(ctx, s.Key(name))
	if errors.Is(err, ErrKeyNotFound) {
		err = nil
	}
	s.observe("delete", start, err)
	return err
}

func (s *Store) get(ctx context.Context, key string) ([]byte, error) {
	start := time.Now()
	raw, err := s.backend.Get(ctx, key)
	if errors.Is(err, ErrKeyNotFound) {
		s.observe("get", start, nil)
		return nil, err
	}
	s.observe("get", start, err)
	return raw, err
}

func (s *Store) put(ctx context.Context, key string, payload []byte) error {
	start := time.Now()
	err := s.backend.Put(ctx, key, payload)
	s.observe("put", start, err)
	return err
}

func (s *Store) observe(operation string, start time.Time, err error) {
	if s.observer == nil {
		return
	}
	s.observer.ObserveStoreOperation(operation, time.Since(start), err)
}

func decode[T any](raw []byte) ([]T, error) {
	var records []T
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func encode[T any](records []T) ([]byte, error) {
	if records == nil {
		records = []T{}
	}
	return json.Marshal(records)
}
