package repository

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/lms-api/internal/models"
	"github.com/noah-isme/lms-api/pkg/store"
)

// EnrollmentRepository provides access to the enrollments collection.
type EnrollmentRepository struct {
	store  *store.Store
	logger *zap.Logger
}

// NewEnrollmentRepository constructs an enrollment repository.
func NewEnrollmentRepository(s *store.Store, logger *zap.Logger) *EnrollmentRepository {
	return &EnrollmentRepository{store: s, logger: orNop(logger)}
}

// List returns every enrollment.
func (r *EnrollmentRepository) List(ctx context.Context) ([]models.Enrollment, error) {
	enrollments, err := loadCollection[models.Enrollment](ctx, r.store, r.logger, CollectionEnrollments)
	if err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	return enrollments, nil
}

// ListByStudent returns the student's enrollments.
func (r *EnrollmentRepository) ListByStudent(ctx context.Context, studentID string) ([]models.Enrollment, error) {
	return r.filter(ctx, func(e models.Enrollment) bool { return e.StudentID == studentID })
}

// ListByCourse returns the course's enrollments.
func (r *EnrollmentRepository) ListByCourse(ctx context.Context, courseID string) ([]models.Enrollment, error) {
	return r.filter(ctx, func(e models.Enrollment) bool { return e.CourseID == courseID })
}

// FindActive returns the active enrollment for the pair.
func (r *EnrollmentRepository) FindActive(ctx context.Context, studentID, courseID string) (*models.Enrollment, error) {
	matches, err := r.filter(ctx, func(e models.Enrollment) bool {
		return e.Matches(studentID, courseID) && e.Status == models.EnrollmentStatusActive
	})
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, ErrNotFound
	}
	return &matches[0], nil
}

// CreateTx stages a new enrollment inside an open transaction.
func (r *EnrollmentRepository) CreateTx(tx *store.Tx, enrollment *models.Enrollment) error {
	enrollments, err := readCollection[models.Enrollment](tx, r.logger, CollectionEnrollments)
	if err != nil {
		return fmt.Errorf("read enrollments: %w", err)
	}
	for _, e := range enrollments {
		if e.Matches(enrollment.StudentID, enrollment.CourseID) && e.Status == models.EnrollmentStatusActive {
			return ErrDuplicate
		}
	}
	return store.Stage(tx, CollectionEnrollments, append(enrollments, *enrollment))
}

// DeleteByPair removes every enrollment for the pair.
func (r *EnrollmentRepository) DeleteByPair(ctx context.Context, studentID, courseID string) error {
	return r.store.Update(ctx, func(tx *store.Tx) error {
		enrollments, err := readCollection[models.Enrollment](tx, r.logger, CollectionEnrollments)
		if err != nil {
			return fmt.Errorf("read enrollments: %w", err)
		}
		kept := make([]models.Enrollment, 0, len(enrollments))
		for _, e := range enrollments {
			if !e.Matches(studentID, courseID) {
				kept = append(kept, e)
			}
		}
		if len(kept) == len(enrollments) {
			return ErrNotFound
		}
		return store.Stage(tx, CollectionEnrollments, kept)
	})
}

// Update applies mutate to the first enrollment for the pair and persists the collection.
func (r *EnrollmentRepository) Update(ctx context.Context, studentID, courseID string, mutate func(*models.Enrollment) error) (*models.Enrollment, error) {
	var updated models.Enrollment
	err := r.store.Update(ctx, func(tx *store.Tx) error {
		enrollments, err := readCollection[models.Enrollment](tx, r.logger, CollectionEnrollments)
		if err != nil {
			return fmt.Errorf("read enrollments: %w", err)
		}
		for i := range enrollments {
			if !enrollments[i].Matches(studentID, courseID) {
				continue
			}
			if err := mutate(&enrollments[i]); err != nil {
				return err
			}
			updated = enrollments[i]
			return store.Stage(tx, CollectionEnrollments, enrollments)
		}
		return ErrNotFound
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *EnrollmentRepository) filter(ctx context.Context, keep func(models.Enrollment) bool) ([]models.Enrollment, error) {
	enrollments, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Enrollment, 0)
	for _, e := range enrollments {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out, nil
}
