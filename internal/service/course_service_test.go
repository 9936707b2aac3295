package service

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lms-api/internal/models"
	appErrors "github.com/noah-isme/lms-api/pkg/errors"
)

func TestCourseServiceListInitialisesDemoCourses(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil, CourseConfig{})

	courses, err := f.courses.List(ctx)
	require.NoError(t, err)
	require.Len(t, courses, 3)
	assert.Equal(t, "demo-course-1", courses[0].ID)
	assert.Equal(t, "Introduction to Web Development", courses[0].Name)
	assert.Equal(t, "Ayesha Khan", courses[0].TeacherName)
	assert.Empty(t, courses[0].Students)

	stored, err := f.courseRepo.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, stored.Records, 3)
}

func TestCourseServiceListPrefersSeed(t *testing.T) {
	seeds := fstest.MapFS{
		"courses.json": {Data: []byte(`[{"id":"seed-1","name":"Seeded","teacherId":"t1","students":[]}]`)},
	}
	f := newFixture(t, seeds, CourseConfig{})

	courses, err := f.courses.List(context.Background())
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, "seed-1", courses[0].ID)
}

func TestCourseServiceListTreatsCorruptDataAsEmpty(t *testing.T) {
	f := newFixture(t, nil, CourseConfig{})
	require.NoError(t, f.backend.Put(context.Background(), "lms_courses", []byte("{not json")))

	courses, err := f.courses.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, courses, 3)
}

func TestCourseServiceCreate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil, CourseConfig{})

	_, err := f.courses.Create(ctx, CreateCourseRequest{Name: "   ", TeacherID: "t1"})
	requireAppError(t, err, appErrors.ErrValidation, "Course name is required")

	_, err = f.courses.Create(ctx, CreateCourseRequest{Name: "Intro"})
	requireAppError(t, err, appErrors.ErrValidation, "Teacher ID is required")

	course, err := f.courses.Create(ctx, CreateCourseRequest{Name: "  Intro  ", TeacherID: "t1"})
	require.NoError(t, err)
	assert.Equal(t, "Intro", course.Name)
	assert.Equal(t, "", course.Description)
	assert.Equal(t, "Unknown Teacher", course.TeacherName)
	assert.Equal(t, []string{}, course.Students)
	assert.Equal(t, fixedNow, course.CreatedAt)

	_, err = f.courses.Create(ctx, CreateCourseRequest{Name: "INTRO", TeacherID: "t2"})
	requireAppError(t, err, appErrors.ErrConflict, "Course name already exists")

	courses, err := f.courses.List(ctx)
	require.NoError(t, err)
	assert.Len(t, courses, 4)
}

func TestCourseServiceUpdateKeepsID(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil, CourseConfig{})

	name := "Web Dev 101"
	updated, err := f.courses.Update(ctx, "anyone", "demo-course-1", models.CoursePatch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "demo-course-1", updated.ID)
	assert.Equal(t, "Web Dev 101", updated.Name)
	assert.Equal(t, "Ayesha Khan", updated.TeacherName)

	_, err = f.courses.Update(ctx, "anyone", "missing", models.CoursePatch{Name: &name})
	requireAppError(t, err, appErrors.ErrNotFound, "Course not found")
}

func TestCourseServiceUpdateRejectsDuplicateOrBlankName(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil, CourseConfig{})

	dup := "  data structures basics "
	_, err := f.courses.Update(ctx, "anyone", "demo-course-1", models.CoursePatch{Name: &dup})
	requireAppError(t, err, appErrors.ErrConflict, "Course name already exists")

	blank := "   "
	_, err = f.courses.Update(ctx, "anyone", "demo-course-1", models.CoursePatch{Name: &blank})
	requireAppError(t, err, appErrors.ErrValidation, "Course name is required")

	course, err := f.courses.GetByID(ctx, "demo-course-1")
	require.NoError(t, err)
	assert.Equal(t, "Introduction to Web Development", course.Name)

	recased := " INTRODUCTION TO WEB DEVELOPMENT "
	updated, err := f.courses.Update(ctx, "anyone", "demo-course-1", models.CoursePatch{Name: &recased})
	require.NoError(t, err)
	assert.Equal(t, "INTRODUCTION TO WEB DEVELOPMENT", updated.Name)

	desc := "Updated description"
	_, err = f.courses.Update(ctx, "anyone", "demo-course-2", models.CoursePatch{Description: &desc})
	require.NoError(t, err)
}

func TestCourseServiceDelete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil, CourseConfig{})

	require.NoError(t, f.courses.Delete(ctx, "", "demo-course-2"))
	_, err := f.courses.GetByID(ctx, "demo-course-2")
	requireAppError(t, err, appErrors.ErrNotFound, "Course not found")

	err = f.courses.Delete(ctx, "", "demo-course-2")
	requireAppError(t, err, appErrors.ErrNotFound, "Course not found")
}

func TestCourseServiceEnforcesOwnershipWhenEnabled(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil, CourseConfig{EnforceOwnership: true})

	name := "Hijacked"
	_, err := f.courses.Update(ctx, "demo-teacher-2", "demo-course-1", models.CoursePatch{Name: &name})
	require.ErrorIs(t, err, appErrors.ErrForbidden)
	require.ErrorIs(t, f.courses.Delete(ctx, "demo-teacher-2", "demo-course-1"), appErrors.ErrForbidden)

	_, err = f.courses.Update(ctx, "demo-teacher-1", "demo-course-1", models.CoursePatch{Name: &name})
	require.NoError(t, err)
	require.NoError(t, f.courses.Delete(ctx, "demo-teacher-1", "demo-course-1"))
}

func TestCourseServiceSearchAndListByTeacher(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil, CourseConfig{})

	results, err := f.courses.Search(ctx, "michael")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "demo-course-2", results[0].ID)

	results, err = f.courses.Search(ctx, "STORYTELLING")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "demo-course-3", results[0].ID)

	results, err = f.courses.Search(ctx, "")
	require.NoError(t, err)
	assert.Len(t, results, 3)

	mine, err := f.courses.ListByTeacher(ctx, "demo-teacher-3")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "Creative Writing Workshop", mine[0].Name)

	none, err := f.courses.ListByTeacher(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, none)
}
