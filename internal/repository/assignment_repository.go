package repository

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/lms-api/internal/models"
	"github.com/noah-isme/lms-api/pkg/store"
)

// AssignmentRepository provides access to the assignments collection.
type AssignmentRepository struct {
	store  *store.Store
	logger *zap.Logger
}

// NewAssignmentRepository constructs an assignment repository.
func NewAssignmentRepository(s *store.Store, logger *zap.Logger) *AssignmentRepository {
	return &AssignmentRepository{store: s, logger: orNop(logger)}
}

// List returns every assignment.
func (r *AssignmentRepository) List(ctx context.Context) ([]models.Assignment, error) {
	assignments, err := loadCollection[models.Assignment](ctx, r.store, r.logger, CollectionAssignments)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	return assignments, nil
}

// ListByCourse returns assignments for a course.
func (r *AssignmentRepository) ListByCourse(ctx context.Context, courseID string) ([]models.Assignment, error) {
	assignments, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Assignment, 0)
	for _, a := range assignments {
		if a.CourseID == courseID {
			out = append(out, a)
		}
	}
	return out, nil
}

// Create appends an assignment.
func (r *AssignmentRepository) Create(ctx context.Context, assignment *models.Assignment) error {
	return r.store.Update(ctx, func(tx *store.Tx) error {
		assignments, err := readCollection[models.Assignment](tx, r.logger, CollectionAssignments)
		if err != nil {
			return fmt.Errorf("read assignments: %w", err)
		}
		return store.Stage(tx, CollectionAssignments, append(assignments, *assignment))
	})
}
