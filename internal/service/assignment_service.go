package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-api/internal/models"
	appErrors "github.com/noah-isme/lms-api/pkg/errors"
)

const defaultMaxScore = 100

type assignmentRepository interface {
	List(ctx context.Context) ([]models.Assignment, error)
	ListByCourse(ctx context.Context, courseID string) ([]models.Assignment, error)
	Create(ctx context.Context, assignment *models.Assignment) error
}

// CreateAssignmentRequest is the payload for creating an assignment.
type CreateAssignmentRequest struct {
	CourseID    string   `json:"courseId"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	DueDate     string   `json:"dueDate"`
	MaxScore    *float64 `json:"maxScore"`
}

// AssignmentService manages course assignments.
type AssignmentService struct {
	repo   assignmentRepository
	logger *zap.Logger
	now    func() time.Time
}

// NewAssignmentService constructs AssignmentService.
func NewAssignmentService(repo assignmentRepository, logger *zap.Logger) *AssignmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentService{repo: repo, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// Create stores an assignment. The course id is not checked against the catalog.
func (s *AssignmentService) Create(ctx context.Context, req CreateAssignmentRequest) (*models.Assignment, error) {
	title := strings.TrimSpace(req.Title)
	if strings.TrimSpace(req.CourseID) == "" || title == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Course ID and title are required")
	}
	maxScore := float64(defaultMaxScore)
	if req.MaxScore != nil && *req.MaxScore > 0 {
		maxScore = *req.MaxScore
	}
	assignment := &models.Assignment{
		ID:          uuid.NewString(),
		CourseID:    req.CourseID,
		Title:       title,
		Description: req.Description,
		MaxScore:    maxScore,
		CreatedAt:   s.now(),
	}
	if due := strings.TrimSpace(req.DueDate); due != "" {
		assignment.DueDate = &due
	}
	if err := s.repo.Create(ctx, assignment); err != nil {
		return nil, appErrors.Internal(err, "failed to create assignment")
	}
	s.logger.Info("assignment created", zap.String("assignment_id", assignment.ID), zap.String("course_id", assignment.CourseID))
	return assignment, nil
}

// List returns every assignment.
func (s *AssignmentService) List(ctx context.Context) ([]models.Assignment, error) {
	assignments, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list assignments")
	}
	return assignments, nil
}

// ListByCourse returns the course's assignments.
func (s *AssignmentService) ListByCourse(ctx context.Context, courseID string) ([]models.Assignment, error) {
	assignments, err := s.repo.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list assignments")
	}
	return assignments, nil
}
