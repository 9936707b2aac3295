package repository

import (
	"context"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-api/pkg/store"
)

func newTestStore(t *testing.T, seeds fstest.MapFS) (*store.Store, *store.MemoryBackend) {
	t.Helper()
	backend := store.NewMemoryBackend()
	opts := store.Options{KeyPrefix: "lms_", Logger: zap.NewNop()}
	if seeds != nil {
		opts.Seeds = seeds
	}
	return store.New(backend, opts), backend
}

func putRaw(t *testing.T, backend *store.MemoryBackend, key, value string) {
	t.Helper()
	require.NoError(t, backend.Put(context.Background(), key, []byte(value)))
}

var fixedTime = time.Date(2024, 9, 1, 8, 0, 0, 0, time.UTC)
