package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-api/internal/models"
	"github.com/noah-isme/lms-api/internal/repository"
	appErrors "github.com/noah-isme/lms-api/pkg/errors"
	"github.com/noah-isme/lms-api/pkg/export"
)

const (
	minGrade = 0
	maxGrade = 100
)

var errInvalidGrade = errors.New("grade must be a number between 0 and 100")

type gradeRepository interface {
	ListByCourse(ctx context.Context, courseID string) ([]models.Enrollment, error)
	Update(ctx context.Context, studentID, courseID string, mutate func(*models.Enrollment) error) (*models.Enrollment, error)
}

type teacherCatalog interface {
	GetByID(ctx context.Context, id string) (*models.Course, error)
	ListByTeacher(ctx context.Context, teacherID string) ([]models.Course, error)
}

// UpdateGradeRequest carries a grade that may arrive as a number or a numeric string.
type UpdateGradeRequest struct {
	StudentID string      `json:"studentId"`
	CourseID  string      `json:"courseId"`
	Grade     interface{} `json:"grade"`
}

// GradeExport is a rendered grade sheet ready for download.
type GradeExport struct {
	Filename    string
	ContentType string
	Content     []byte
}

// GradeService records grades and builds teacher-facing views over enrollments.
type GradeService struct {
	enrollments gradeRepository
	catalog     teacherCatalog
	logger      *zap.Logger
}

// NewGradeService constructs GradeService.
func NewGradeService(enrollments gradeRepository, catalog teacherCatalog, logger *zap.Logger) *GradeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradeService{enrollments: enrollments, catalog: catalog, logger: logger}
}

// UpdateGrade sets the grade on the pair's enrollment. The enrollment must exist before the
// grade value is checked.
func (s *GradeService) UpdateGrade(ctx context.Context, studentID, courseID string, grade interface{}) (*models.Enrollment, error) {
	updated, err := s.enrollments.Update(ctx, studentID, courseID, func(e *models.Enrollment) error {
		value, err := parseGrade(grade)
		if err != nil {
			return err
		}
		e.Grade = &value
		return nil
	})
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrNotFound):
		return nil, appErrors.ErrEnrollmentNotFound
	case errors.Is(err, errInvalidGrade):
		return nil, appErrors.Because(appErrors.ErrInvalidGrade, err)
	default:
		return nil, appErrors.Internal(err, "failed to update grade")
	}
	s.logger.Info("grade updated", zap.String("student_id", studentID), zap.String("course_id", courseID), zap.Float64("grade", *updated.Grade))
	return updated, nil
}

// parseGrade accepts numbers and numeric strings within [0, 100].
func parseGrade(raw interface{}) (float64, error) {
	switch v := raw.(type) {
	case nil, bool:
		return 0, errInvalidGrade
	case string:
		raw = strings.TrimSpace(v)
		if raw == "" {
			return 0, errInvalidGrade
		}
	}
	value, err := cast.ToFloat64E(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", errInvalidGrade, err)
	}
	if math.IsNaN(value) || math.IsInf(value, 0) || value < minGrade || value > maxGrade {
		return 0, errInvalidGrade
	}
	if value == 0 {
		// drop the sign of -0
		value = 0
	}
	return value, nil
}

// StudentsForTeacher lists the distinct students across the teacher's courses. Courses are
// visited in catalog order and the first enrollment seen for a student wins.
func (s *GradeService) StudentsForTeacher(ctx context.Context, teacherID string) ([]models.TeacherStudent, error) {
	courses, err := s.catalog.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, appErrors.FromError(err)
	}
	seen := make(map[string]struct{})
	out := make([]models.TeacherStudent, 0)
	for _, course := range courses {
		enrollments, err := s.enrollments.ListByCourse(ctx, course.ID)
		if err != nil {
			return nil, appErrors.Internal(err, "failed to list enrollments")
		}
		for _, e := range enrollments {
			if _, ok := seen[e.StudentID]; ok {
				continue
			}
			seen[e.StudentID] = struct{}{}
			out = append(out, models.TeacherStudent{
				StudentID:    e.StudentID,
				StudentName:  e.StudentName,
				CourseID:     course.ID,
				CourseName:   course.Name,
				Grade:        e.Grade,
				EnrollmentID: e.ID,
			})
		}
	}
	return out, nil
}

// CourseGrades lists each enrollment's grade for the course.
func (s *GradeService) CourseGrades(ctx context.Context, courseID string) ([]models.CourseGrade, error) {
	enrollments, err := s.enrollments.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list enrollments")
	}
	out := make([]models.CourseGrade, 0, len(enrollments))
	for _, e := range enrollments {
		out = append(out, models.CourseGrade{
			StudentID:   e.StudentID,
			StudentName: e.StudentName,
			Grade:       e.Grade,
			EnrolledAt:  e.EnrolledAt,
		})
	}
	return out, nil
}

// TeacherDashboard summarises the teacher's courses, students and grades.
func (s *GradeService) TeacherDashboard(ctx context.Context, teacherID string) (*models.TeacherDashboard, error) {
	courses, err := s.catalog.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, appErrors.FromError(err)
	}
	dashboard := &models.TeacherDashboard{TeacherID: teacherID, CourseCount: len(courses)}
	students := make(map[string]struct{})
	var total float64
	for _, course := range courses {
		enrollments, err := s.enrollments.ListByCourse(ctx, course.ID)
		if err != nil {
			return nil, appErrors.Internal(err, "failed to list enrollments")
		}
		for _, e := range enrollments {
			students[e.StudentID] = struct{}{}
			if e.Grade != nil {
				dashboard.GradedCount++
				total += *e.Grade
			}
		}
	}
	dashboard.StudentCount = len(students)
	if dashboard.GradedCount > 0 {
		avg := math.Round(total/float64(dashboard.GradedCount)*100) / 100
		dashboard.AverageGrade = &avg
	}
	return dashboard, nil
}

// ExportCourseGrades renders the course grade sheet as CSV or PDF.
func (s *GradeService) ExportCourseGrades(ctx context.Context, courseID, format string) (*GradeExport, error) {
	renderer, err := export.ForFormat(format)
	if err != nil {
		return nil, appErrors.Because(appErrors.ErrUnsupportedExport, err)
	}
	course, err := s.catalog.GetByID(ctx, courseID)
	if err != nil {
		return nil, appErrors.FromError(err)
	}
	grades, err := s.CourseGrades(ctx, courseID)
	if err != nil {
		return nil, err
	}

	dataset := export.Dataset{
		Title:   course.Name + " - Grades",
		Headers: []string{"Student ID", "Student Name", "Grade", "Enrolled At"},
		Rows:    make([][]string, 0, len(grades)),
	}
	for _, g := range grades {
		grade := ""
		if g.Grade != nil {
			grade = strconv.FormatFloat(*g.Grade, 'f', -1, 64)
		}
		dataset.Rows = append(dataset.Rows, []string{g.StudentID, g.StudentName, grade, g.EnrolledAt.Format(time.RFC3339)})
	}

	content, err := renderer.Render(dataset)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to render grade export")
	}
	return &GradeExport{
		Filename:    fmt.Sprintf("course-%s-grades.%s", course.ID, renderer.Extension()),
		ContentType: renderer.ContentType(),
		Content:     content,
	}, nil
}
