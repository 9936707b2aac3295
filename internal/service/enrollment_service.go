package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-api/internal/models"
	"github.com/noah-isme/lms-api/internal/repository"
	appErrors "github.com/noah-isme/lms-api/pkg/errors"
	"github.com/noah-isme/lms-api/pkg/store"
)

const defaultStudentName = "Unknown Student"

type enrollmentRepository interface {
	List(ctx context.Context) ([]models.Enrollment, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.Enrollment, error)
	ListByCourse(ctx context.Context, courseID string) ([]models.Enrollment, error)
	FindActive(ctx context.Context, studentID, courseID string) (*models.Enrollment, error)
	CreateTx(tx *store.Tx, enrollment *models.Enrollment) error
	DeleteByPair(ctx context.Context, studentID, courseID string) error
}

type courseCatalog interface {
	List(ctx context.Context) ([]models.Course, error)
	GetByID(ctx context.Context, id string) (*models.Course, error)
}

type rosterWriter interface {
	AddStudentTx(tx *store.Tx, courseID, studentID string) error
}

type txRunner interface {
	Update(ctx context.Context, fn func(tx *store.Tx) error) error
}

// EnrollRequest is the payload for enrolling a student.
type EnrollRequest struct {
	StudentID   string `json:"studentId"`
	CourseID    string `json:"courseId"`
	StudentName string `json:"studentName"`
}

// EnrollmentService records which students take which courses.
type EnrollmentService struct {
	repo    enrollmentRepository
	catalog courseCatalog
	roster  rosterWriter
	tx      txRunner
	logger  *zap.Logger
	now     func() time.Time
}

// NewEnrollmentService constructs EnrollmentService.
func NewEnrollmentService(repo enrollmentRepository, catalog courseCatalog, roster rosterWriter, tx txRunner, logger *zap.Logger) *EnrollmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{
		repo:    repo,
		catalog: catalog,
		roster:  roster,
		tx:      tx,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Enroll creates the enrollment and adds the student to the course roster in one commit.
func (s *EnrollmentService) Enroll(ctx context.Context, req EnrollRequest) (*models.Enrollment, error) {
	if strings.TrimSpace(req.StudentID) == "" || strings.TrimSpace(req.CourseID) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Student ID and Course ID are required")
	}
	course, err := s.catalog.GetByID(ctx, req.CourseID)
	if err != nil {
		return nil, appErrors.FromError(err)
	}

	studentName := req.StudentName
	if studentName == "" {
		studentName = defaultStudentName
	}
	enrollment := &models.Enrollment{
		ID:          uuid.NewString(),
		StudentID:   req.StudentID,
		StudentName: studentName,
		CourseID:    course.ID,
		CourseName:  course.Name,
		EnrolledAt:  s.now(),
		Status:      models.EnrollmentStatusActive,
	}

	err = s.tx.Update(ctx, func(tx *store.Tx) error {
		if err := s.repo.CreateTx(tx, enrollment); err != nil {
			return err
		}
		return s.roster.AddStudentTx(tx, course.ID, req.StudentID)
	})
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrDuplicate):
		return nil, appErrors.ErrAlreadyEnrolled
	case errors.Is(err, repository.ErrNotFound):
		return nil, appErrors.ErrCourseNotFound
	default:
		return nil, appErrors.Internal(err, "failed to enroll student")
	}
	s.logger.Info("student enrolled", zap.String("student_id", req.StudentID), zap.String("course_id", course.ID))
	return enrollment, nil
}

// Unenroll removes the enrollment for the pair. The course roster is left as it is.
func (s *EnrollmentService) Unenroll(ctx context.Context, studentID, courseID string) error {
	if err := s.repo.DeleteByPair(ctx, studentID, courseID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return appErrors.ErrEnrollmentNotFound
		}
		return appErrors.Internal(err, "failed to unenroll student")
	}
	s.logger.Info("student unenrolled", zap.String("student_id", studentID), zap.String("course_id", courseID))
	return nil
}

// StudentCourses joins each of the student's enrollments with its current course.
func (s *EnrollmentService) StudentCourses(ctx context.Context, studentID string) ([]models.StudentCourse, error) {
	enrollments, err := s.repo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list enrollments")
	}
	courses, err := s.catalog.List(ctx)
	if err != nil {
		return nil, appErrors.FromError(err)
	}
	byID := make(map[string]models.Course, len(courses))
	for _, c := range courses {
		byID[c.ID] = c
	}

	out := make([]models.StudentCourse, 0, len(enrollments))
	for _, e := range enrollments {
		item := models.StudentCourse{Enrollment: e}
		if c, ok := byID[e.CourseID]; ok {
			course := c
			item.Course = &course
		}
		out = append(out, item)
	}
	return out, nil
}

// IsEnrolled reports whether an active enrollment exists for the pair.
func (s *EnrollmentService) IsEnrolled(ctx context.Context, studentID, courseID string) (bool, error) {
	if _, err := s.repo.FindActive(ctx, studentID, courseID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, appErrors.Internal(err, "failed to check enrollment")
	}
	return true, nil
}

// List returns every enrollment.
func (s *EnrollmentService) List(ctx context.Context) ([]models.Enrollment, error) {
	enrollments, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list enrollments")
	}
	return enrollments, nil
}

// ListByStudent returns the student's enrollments.
func (s *EnrollmentService) ListByStudent(ctx context.Context, studentID string) ([]models.Enrollment, error) {
	enrollments, err := s.repo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list enrollments")
	}
	return enrollments, nil
}

// ListByCourse returns the course's enrollments.
func (s *EnrollmentService) ListByCourse(ctx context.Context, courseID string) ([]models.Enrollment, error) {
	enrollments, err := s.repo.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list enrollments")
	}
	return enrollments, nil
}
