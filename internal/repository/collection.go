package repository

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/noah-isme/lms-api/pkg/store"
)

// Collection names as persisted in the record store.
const (
	CollectionUsers       = "users"
	CollectionCourses     = "courses"
	CollectionEnrollments = "enrollments"
	CollectionAssignments = "assignments"
	sessionKeyPrefix      = "current-session:"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a write would break a uniqueness rule.
	ErrDuplicate = errors.New("duplicate record")
)

// loadCollection reads a collection and treats malformed data as an empty collection.
func loadCollection[T any](ctx context.Context, s *store.Store, logger *zap.Logger, name string) ([]T, error) {
	result, err := store.Load[T](ctx, s, name)
	if err != nil {
		if errors.Is(err, store.ErrCorrupt) {
			logger.Warn("discarding malformed collection", zap.String("collection", name), zap.Error(err))
			return nil, nil
		}
		return nil, err
	}
	return result.Records, nil
}

// readCollection is loadCollection for use inside a store transaction.
func readCollection[T any](tx *store.Tx, logger *zap.Logger, name string) ([]T, error) {
	result, err := store.Read[T](tx, name)
	if err != nil {
		if errors.Is(err, store.ErrCorrupt) {
			logger.Warn("discarding malformed collection", zap.String("collection", name), zap.Error(err))
			return nil, nil
		}
		return nil, err
	}
	return result.Records, nil
}

func orNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
