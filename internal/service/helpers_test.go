package service

import (
	"context"
	"sync/atomic"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-api/internal/repository"
	appErrors "github.com/noah-isme/lms-api/pkg/errors"
	"github.com/noah-isme/lms-api/pkg/store"
)

var fixedNow = time.Date(2024, 9, 1, 8, 0, 0, 0, time.UTC)

type lmsFixture struct {
	store       *store.Store
	backend     *store.MemoryBackend
	users       *UserService
	courses     *CourseService
	enrollments *EnrollmentService
	grades      *GradeService
	assignments *AssignmentService
	courseRepo  *repository.CourseRepository
	enrollRepo  *repository.EnrollmentRepository
}

func newFixture(t *testing.T, seeds fstest.MapFS, courseCfg CourseConfig) *lmsFixture {
	t.Helper()
	backend := store.NewMemoryBackend()
	opts := store.Options{KeyPrefix: "lms_", Logger: zap.NewNop()}
	if seeds != nil {
		opts.Seeds = seeds
	}
	return newFixtureWithBackend(t, backend, opts, courseCfg)
}

func newFixtureWithBackend(t *testing.T, backend store.Backend, opts store.Options, courseCfg CourseConfig) *lmsFixture {
	t.Helper()
	s := store.New(backend, opts)
	logger := zap.NewNop()

	userRepo := repository.NewUserRepository(s, logger)
	sessionRepo := repository.NewSessionRepository(s, logger)
	courseRepo := repository.NewCourseRepository(s, logger)
	enrollRepo := repository.NewEnrollmentRepository(s, logger)
	assignmentRepo := repository.NewAssignmentRepository(s, logger)

	users := NewUserService(userRepo, sessionRepo, NewValidator(), logger, SessionConfig{Secret: "test-secret", TTL: time.Hour, Issuer: "lms-test"})
	users.now = func() time.Time { return fixedNow }
	courses := NewCourseService(courseRepo, logger, courseCfg)
	courses.now = func() time.Time { return fixedNow }
	enrollments := NewEnrollmentService(enrollRepo, courses, courseRepo, s, logger)
	enrollments.now = func() time.Time { return fixedNow }
	assignments := NewAssignmentService(assignmentRepo, logger)
	assignments.now = func() time.Time { return fixedNow }

	f := &lmsFixture{
		store:       s,
		users:       users,
		courses:     courses,
		enrollments: enrollments,
		grades:      NewGradeService(enrollRepo, courses, logger),
		assignments: assignments,
		courseRepo:  courseRepo,
		enrollRepo:  enrollRepo,
	}
	if mem, ok := backend.(*store.MemoryBackend); ok {
		f.backend = mem
	}
	return f
}

func requireAppError(t *testing.T, err error, base *appErrors.Error, message string) {
	t.Helper()
	require.Error(t, err)
	require.ErrorIs(t, err, base)
	assert.Equal(t, message, appErrors.FromError(err).Message)
}

// countingBackend records every backend call made through it.
type countingBackend struct {
	*store.MemoryBackend
	calls atomic.Int64
}

func newCountingBackend() *countingBackend {
	return &countingBackend{MemoryBackend: store.NewMemoryBackend()}
}

func (b *countingBackend) Get(ctx context.Context, key string) ([]byte, error) {
	b.calls.Add(1)
	return b.MemoryBackend.Get(ctx, key)
}

func (b *countingBackend) Put(ctx context.Context, key string, value []byte) error {
	b.calls.Add(1)
	return b.MemoryBackend.Put(ctx, key, value)
}

func (b *countingBackend) Delete(ctx context.Context, key string) error {
	b.calls.Add(1)
	return b.MemoryBackend.Delete(ctx, key)
}

func (b *countingBackend) Commit(ctx context.Context, writes []store.Write) error {
	b.calls.Add(1)
	return b.MemoryBackend.Commit(ctx, writes)
}
