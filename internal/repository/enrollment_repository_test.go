package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lms-api/internal/models"
	"github.com/noah-isme/lms-api/pkg/store"
)

func seedCourses(t *testing.T, repo *CourseRepository, courses ...models.Course) {
	t.Helper()
	require.NoError(t, repo.ReplaceAll(context.Background(), courses))
}

func TestEnrollmentCreateTxWritesRosterAtomically(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, nil)
	courses := NewCourseRepository(s, nil)
	enrollments := NewEnrollmentRepository(s, nil)
	seedCourses(t, courses, models.Course{ID: "c1", Name: "Intro", Students: []string{}})

	err := s.Update(ctx, func(tx *store.Tx) error {
		if err := enrollments.CreateTx(tx, &models.Enrollment{ID: "e1", StudentID: "s1", CourseID: "c1", Status: models.EnrollmentStatusActive}); err != nil {
			return err
		}
		return courses.AddStudentTx(tx, "c1", "s1")
	})
	require.NoError(t, err)

	active, err := enrollments.FindActive(ctx, "s1", "c1")
	require.NoError(t, err)
	assert.Equal(t, "e1", active.ID)

	result, err := courses.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, result.Records[0].Students)
}

func TestEnrollmentCreateTxAbortsWhenCourseVanished(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, nil)
	courses := NewCourseRepository(s, nil)
	enrollments := NewEnrollmentRepository(s, nil)
	seedCourses(t, courses, models.Course{ID: "c1", Name: "Intro"})

	err := s.Update(ctx, func(tx *store.Tx) error {
		if err := enrollments.CreateTx(tx, &models.Enrollment{ID: "e1", StudentID: "s1", CourseID: "gone", Status: models.EnrollmentStatusActive}); err != nil {
			return err
		}
		return courses.AddStudentTx(tx, "gone", "s1")
	})
	assert.True(t, errors.Is(err, ErrNotFound))

	all, err := enrollments.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestEnrollmentCreateTxRejectsDuplicatePair(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, nil)
	enrollments := NewEnrollmentRepository(s, nil)
	first := &models.Enrollment{ID: "e1", StudentID: "s1", CourseID: "c1", Status: models.EnrollmentStatusActive}

	require.NoError(t, s.Update(ctx, func(tx *store.Tx) error { return enrollments.CreateTx(tx, first) }))
	err := s.Update(ctx, func(tx *store.Tx) error {
		return enrollments.CreateTx(tx, &models.Enrollment{ID: "e2", StudentID: "s1", CourseID: "c1", Status: models.EnrollmentStatusActive})
	})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestEnrollmentDeleteAndUpdate(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, nil)
	enrollments := NewEnrollmentRepository(s, nil)
	require.NoError(t, s.Update(ctx, func(tx *store.Tx) error {
		if err := enrollments.CreateTx(tx, &models.Enrollment{ID: "e1", StudentID: "s1", CourseID: "c1", Status: models.EnrollmentStatusActive}); err != nil {
			return err
		}
		return enrollments.CreateTx(tx, &models.Enrollment{ID: "e2", StudentID: "s2", CourseID: "c1", Status: models.EnrollmentStatusActive})
	}))

	updated, err := enrollments.Update(ctx, "s2", "c1", func(e *models.Enrollment) error {
		grade := 91.5
		e.Grade = &grade
		return nil
	})
	require.NoError(t, err)
	require.NotNil(t, updated.Grade)
	assert.Equal(t, 91.5, *updated.Grade)

	_, err = enrollments.Update(ctx, "s9", "c1", func(*models.Enrollment) error { return nil })
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, enrollments.DeleteByPair(ctx, "s1", "c1"))
	assert.ErrorIs(t, enrollments.DeleteByPair(ctx, "s1", "c1"), ErrNotFound)

	byCourse, err := enrollments.ListByCourse(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, byCourse, 1)
	assert.Equal(t, "s2", byCourse[0].StudentID)
	assert.Equal(t, 91.5, *byCourse[0].Grade)
}
