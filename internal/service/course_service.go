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

const defaultTeacherName = "Unknown Teacher"

type courseRepository interface {
	Load(ctx context.Context) (store.Result[models.Course], error)
	LoadSeed() ([]models.Course, error)
	ReplaceAll(ctx context.Context, courses []models.Course) error
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, id string, mutate func(course *models.Course, catalog []models.Course) error) (*models.Course, error)
	Delete(ctx context.Context, id string) error
}

// CreateCourseRequest is the payload for creating a course.
type CreateCourseRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	TeacherID   string `json:"teacherId"`
	TeacherName string `json:"teacherName"`
}

// CourseConfig toggles catalog policies.
type CourseConfig struct {
	EnforceOwnership bool
}

// CourseService manages the course catalog.
type CourseService struct {
	repo   courseRepository
	logger *zap.Logger
	config CourseConfig
	now    func() time.Time
}

// NewCourseService constructs CourseService.
func NewCourseService(repo courseRepository, logger *zap.Logger, config CourseConfig) *CourseService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{
		repo:   repo,
		logger: logger,
		config: config,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// List returns the catalog. An empty catalog is initialised from the seed file or,
// failing that, from the demo courses, and the result is persisted.
func (s *CourseService) List(ctx context.Context) ([]models.Course, error) {
	result, err := s.repo.Load(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load courses")
	}
	if !result.Empty() {
		return result.Records, nil
	}

	courses, err := s.repo.LoadSeed()
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load course seed")
	}
	source := "seed"
	if len(courses) == 0 {
		courses = models.DefaultCourses(s.now())
		source = "demo"
	}
	if err := s.repo.ReplaceAll(ctx, courses); err != nil {
		return nil, appErrors.Internal(err, "failed to initialise courses")
	}
	s.logger.Info("course catalog initialised", zap.String("source", source), zap.Int("count", len(courses)))
	return courses, nil
}

// GetByID returns a single course.
func (s *CourseService) GetByID(ctx context.Context, id string) (*models.Course, error) {
	courses, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range courses {
		if courses[i].ID == id {
			return &courses[i], nil
		}
	}
	return nil, appErrors.ErrCourseNotFound
}

// ListByTeacher returns the teacher's courses in catalog order.
func (s *CourseService) ListByTeacher(ctx context.Context, teacherID string) ([]models.Course, error) {
	courses, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Course, 0)
	for _, c := range courses {
		if c.TeacherID == teacherID {
			out = append(out, c)
		}
	}
	return out, nil
}

// Search matches query case-insensitively against name, description and teacher name.
// A blank query returns the whole catalog.
func (s *CourseService) Search(ctx context.Context, query string) ([]models.Course, error) {
	courses, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return courses, nil
	}
	out := make([]models.Course, 0)
	for _, c := range courses {
		if strings.Contains(strings.ToLower(c.Name), q) ||
			strings.Contains(strings.ToLower(c.Description), q) ||
			strings.Contains(strings.ToLower(c.TeacherName), q) {
			out = append(out, c)
		}
	}
	return out, nil
}

// Create validates and appends a new course with an empty roster.
func (s *CourseService) Create(ctx context.Context, req CreateCourseRequest) (*models.Course, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, appErrors.ErrCourseNameRequired
	}
	if strings.TrimSpace(req.TeacherID) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Teacher ID is required")
	}

	courses, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range courses {
		if strings.EqualFold(strings.TrimSpace(c.Name), name) {
			return nil, appErrors.ErrCourseNameTaken
		}
	}

	teacherName := req.TeacherName
	if teacherName == "" {
		teacherName = defaultTeacherName
	}
	course := &models.Course{
		ID:          uuid.NewString(),
		Name:        name,
		Description: req.Description,
		TeacherID:   req.TeacherID,
		TeacherName: teacherName,
		CreatedAt:   s.now(),
		Students:    []string{},
	}
	if err := s.repo.Create(ctx, course); err != nil {
		return nil, appErrors.Internal(err, "failed to create course")
	}
	s.logger.Info("course created", zap.String("course_id", course.ID), zap.String("teacher_id", course.TeacherID))
	return course, nil
}

// Update merges patch into the course. The id is never changed.
func (s *CourseService) Update(ctx context.Context, actorID, id string, patch models.CoursePatch) (*models.Course, error) {
	if _, err := s.List(ctx); err != nil {
		return nil, err
	}
	updated, err := s.repo.Update(ctx, id, func(c *models.Course, catalog []models.Course) error {
		if err := s.checkOwner(actorID, c); err != nil {
			return err
		}
		patch.Apply(c)
		if patch.Name != nil {
			return checkRename(c, catalog)
		}
		return nil
	})
	if err != nil {
		return nil, s.mapWriteError(err, "failed to update course")
	}
	return updated, nil
}

// Delete removes the course. Enrollments and assignments that reference it are kept.
func (s *CourseService) Delete(ctx context.Context, actorID, id string) error {
	course, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.checkOwner(actorID, course); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return s.mapWriteError(err, "failed to delete course")
	}
	s.logger.Info("course deleted", zap.String("course_id", id))
	return nil
}

// checkRename keeps names non-blank and unique ignoring case and surrounding space.
func checkRename(course *models.Course, catalog []models.Course) error {
	course.Name = strings.TrimSpace(course.Name)
	if course.Name == "" {
		return appErrors.ErrCourseNameRequired
	}
	for _, other := range catalog {
		if other.ID != course.ID && strings.EqualFold(strings.TrimSpace(other.Name), course.Name) {
			return appErrors.ErrCourseNameTaken
		}
	}
	return nil
}

func (s *CourseService) checkOwner(actorID string, course *models.Course) error {
	if !s.config.EnforceOwnership || actorID == course.TeacherID {
		return nil
	}
	return appErrors.ErrNotCourseTeacher
}

func (s *CourseService) mapWriteError(err error, message string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return appErrors.ErrCourseNotFound
	}
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return appErrors.Internal(err, message)
}
