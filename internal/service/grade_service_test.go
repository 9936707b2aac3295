package service

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lms-api/internal/models"
	appErrors "github.com/noah-isme/lms-api/pkg/errors"
)

func TestParseGrade(t *testing.T) {
	accepted := map[string]interface{}{
		"zero":           0,
		"hundred":        100.0,
		"numeric string": "85",
		"padded string":  " 72.5 ",
		"json number":    json.Number("64"),
	}
	for name, raw := range accepted {
		t.Run(name, func(t *testing.T) {
			_, err := parseGrade(raw)
			assert.NoError(t, err)
		})
	}

	rejected := map[string]interface{}{
		"negative":   -1,
		"above 100":  101,
		"word":       "abc",
		"empty":      "",
		"nil":        nil,
		"bool":       true,
		"nan":        math.NaN(),
		"inf string": "Inf",
	}
	for name, raw := range rejected {
		t.Run(name, func(t *testing.T) {
			_, err := parseGrade(raw)
			assert.ErrorIs(t, err, errInvalidGrade)
		})
	}

	value, err := parseGrade("85")
	require.NoError(t, err)
	assert.Equal(t, 85.0, value)
}

func TestGradeServiceUpdateGrade(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil, CourseConfig{})

	_, err := f.grades.UpdateGrade(ctx, "s1", "demo-course-1", "abc")
	requireAppError(t, err, appErrors.ErrNotFound, "Enrollment not found")

	_, err = f.enrollments.Enroll(ctx, EnrollRequest{StudentID: "s1", CourseID: "demo-course-1", StudentName: "Sam"})
	require.NoError(t, err)

	for _, bad := range []interface{}{-1, 101, "abc"} {
		_, err = f.grades.UpdateGrade(ctx, "s1", "demo-course-1", bad)
		requireAppError(t, err, appErrors.ErrValidation, "Grade must be a number between 0 and 100")
	}
	grades, err := f.grades.CourseGrades(ctx, "demo-course-1")
	require.NoError(t, err)
	require.Len(t, grades, 1)
	assert.Nil(t, grades[0].Grade)

	for _, tc := range []struct {
		raw  interface{}
		want float64
	}{{0, 0}, {100, 100}, {"85", 85}} {
		updated, err := f.grades.UpdateGrade(ctx, "s1", "demo-course-1", tc.raw)
		require.NoError(t, err)
		require.NotNil(t, updated.Grade)
		assert.Equal(t, tc.want, *updated.Grade)
	}

	grades, err = f.grades.CourseGrades(ctx, "demo-course-1")
	require.NoError(t, err)
	require.Len(t, grades, 1)
	assert.Equal(t, "s1", grades[0].StudentID)
	assert.Equal(t, "Sam", grades[0].StudentName)
	assert.Equal(t, 85.0, *grades[0].Grade)
	assert.Equal(t, fixedNow, grades[0].EnrolledAt)
}

func TestGradeServiceUpdateGradeNegativeZero(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil, CourseConfig{})

	_, err := f.enrollments.Enroll(ctx, EnrollRequest{StudentID: "s1", CourseID: "demo-course-1"})
	require.NoError(t, err)

	for _, raw := range []interface{}{"-0", math.Copysign(0, -1)} {
		updated, err := f.grades.UpdateGrade(ctx, "s1", "demo-course-1", raw)
		require.NoError(t, err)
		require.NotNil(t, updated.Grade)
		assert.False(t, math.Signbit(*updated.Grade))

		payload, err := json.Marshal(updated)
		require.NoError(t, err)
		assert.Contains(t, string(payload), `"grade":0`)
		assert.NotContains(t, string(payload), `"grade":-0`)
	}
}

func TestGradeServiceStudentsForTeacherDedupes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil, CourseConfig{})

	first, err := f.courses.Create(ctx, CreateCourseRequest{Name: "Algebra", TeacherID: "t1", TeacherName: "Tess"})
	require.NoError(t, err)
	second, err := f.courses.Create(ctx, CreateCourseRequest{Name: "Geometry", TeacherID: "t1", TeacherName: "Tess"})
	require.NoError(t, err)

	for _, req := range []EnrollRequest{
		{StudentID: "s2", CourseID: second.ID, StudentName: "Bo"},
		{StudentID: "s1", CourseID: first.ID, StudentName: "Al"},
		{StudentID: "s2", CourseID: first.ID, StudentName: "Bo"},
		{StudentID: "s3", CourseID: "demo-course-1", StudentName: "Cy"},
	} {
		_, err := f.enrollments.Enroll(ctx, req)
		require.NoError(t, err)
	}

	students, err := f.grades.StudentsForTeacher(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, students, 2)
	assert.Equal(t, "s1", students[0].StudentID)
	assert.Equal(t, first.ID, students[0].CourseID)
	assert.Equal(t, "s2", students[1].StudentID)
	assert.Equal(t, "Algebra", students[1].CourseName)
	assert.NotEmpty(t, students[1].EnrollmentID)

	empty, err := f.grades.StudentsForTeacher(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestGradeServiceTeacherDashboard(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil, CourseConfig{})

	for _, s := range []string{"s1", "s2", "s3"} {
		_, err := f.enrollments.Enroll(ctx, EnrollRequest{StudentID: s, CourseID: "demo-course-1"})
		require.NoError(t, err)
	}
	_, err := f.grades.UpdateGrade(ctx, "s1", "demo-course-1", 80)
	require.NoError(t, err)
	_, err = f.grades.UpdateGrade(ctx, "s2", "demo-course-1", "91")
	require.NoError(t, err)

	dashboard, err := f.grades.TeacherDashboard(ctx, "demo-teacher-1")
	require.NoError(t, err)
	assert.Equal(t, models.TeacherDashboard{
		TeacherID:    "demo-teacher-1",
		CourseCount:  1,
		StudentCount: 3,
		GradedCount:  2,
		AverageGrade: dashboard.AverageGrade,
	}, *dashboard)
	require.NotNil(t, dashboard.AverageGrade)
	assert.Equal(t, 85.5, *dashboard.AverageGrade)

	empty, err := f.grades.TeacherDashboard(ctx, "demo-teacher-2")
	require.NoError(t, err)
	assert.Equal(t, 1, empty.CourseCount)
	assert.Nil(t, empty.AverageGrade)
}

func TestGradeServiceExportCourseGrades(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil, CourseConfig{})

	_, err := f.enrollments.Enroll(ctx, EnrollRequest{StudentID: "s1", CourseID: "demo-course-1", StudentName: "Sam"})
	require.NoError(t, err)
	_, err = f.grades.UpdateGrade(ctx, "s1", "demo-course-1", 92.5)
	require.NoError(t, err)

	csvExport, err := f.grades.ExportCourseGrades(ctx, "demo-course-1", "csv")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", csvExport.ContentType)
	assert.Equal(t, "course-demo-course-1-grades.csv", csvExport.Filename)
	assert.Equal(t,
		"Student ID,Student Name,Grade,Enrolled At\ns1,Sam,92.5,2024-09-01T08:00:00Z\n",
		string(csvExport.Content))

	pdfExport, err := f.grades.ExportCourseGrades(ctx, "demo-course-1", "pdf")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", pdfExport.ContentType)
	assert.True(t, bytes.HasPrefix(pdfExport.Content, []byte("%PDF")))

	_, err = f.grades.ExportCourseGrades(ctx, "demo-course-1", "xlsx")
	requireAppError(t, err, appErrors.ErrValidation, "Unsupported export format")

	_, err = f.grades.ExportCourseGrades(ctx, "missing", "csv")
	requireAppError(t, err, appErrors.ErrNotFound, "Course not found")
}
