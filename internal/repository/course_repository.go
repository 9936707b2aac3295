package repository

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/lms-api/internal/models"
	"github.com/noah-isme/lms-api/pkg/store"
)

// CourseRepository provides access to the courses collection.
type CourseRepository struct {
	store  *store.Store
	logger *zap.Logger
}

// NewCourseRepository constructs a course repository.
func NewCourseRepository(s *store.Store, logger *zap.Logger) *CourseRepository {
	return &CourseRepository{store: s, logger: orNop(logger)}
}

// Load reads the stored collection, importing the seed file when nothing is stored yet.
// Malformed data reads as an empty result with SourceNone.
func (r *CourseRepository) Load(ctx context.Context) (store.Result[models.Course], error) {
	result, err := store.Load[models.Course](ctx, r.store, CollectionCourses)
	if err != nil {
		if errors.Is(err, store.ErrCorrupt) {
			r.logger.Warn("discarding malformed courses", zap.Error(err))
			return store.Result[models.Course]{Source: store.SourceNone}, nil
		}
		return result, fmt.Errorf("load courses: %w", err)
	}
	return result, nil
}

// LoadSeed reads the bundled seed file, returning nil when there is none.
func (r *CourseRepository) LoadSeed() ([]models.Course, error) {
	courses, err := store.LoadSeed[models.Course](r.store, CollectionCourses)
	switch {
	case err == nil:
		return courses, nil
	case errors.Is(err, store.ErrNoSeed):
		return nil, nil
	case errors.Is(err, store.ErrCorrupt):
		r.logger.Warn("ignoring malformed course seed", zap.Error(err))
		return nil, nil
	default:
		return nil, fmt.Errorf("load course seed: %w", err)
	}
}

// ReplaceAll overwrites the collection.
func (r *CourseRepository) ReplaceAll(ctx context.Context, courses []models.Course) error {
	return store.Save(ctx, r.store, CollectionCourses, courses)
}

// Create appends a course.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	return r.store.Update(ctx, func(tx *store.Tx) error {
		courses, err := readCollection[models.Course](tx, r.logger, CollectionCourses)
		if err != nil {
			return fmt.Errorf("read courses: %w", err)
		}
		return store.Stage(tx, CollectionCourses, append(courses, *course))
	})
}

// Update applies mutate to the course with the given id and persists the collection.
// mutate also receives the whole catalog, already holding the course being edited, and may
// veto the change by returning an error.
func (r *CourseRepository) Update(ctx context.Context, id string, mutate func(course *models.Course, catalog []models.Course) error) (*models.Course, error) {
	var updated models.Course
	err := r.store.Update(ctx, func(tx *store.Tx) error {
		courses, err := readCollection[models.Course](tx, r.logger, CollectionCourses)
		if err != nil {
			return fmt.Errorf("read courses: %w", err)
		}
		idx := indexOfCourse(courses, id)
		if idx < 0 {
			return ErrNotFound
		}
		if err := mutate(&courses[idx], courses); err != nil {
			return err
		}
		courses[idx].ID = id
		updated = courses[idx]
		return store.Stage(tx, CollectionCourses, courses)
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete removes a course. Dependent enrollments and assignments are left in place.
func (r *CourseRepository) Delete(ctx context.Context, id string) error {
	return r.store.Update(ctx, func(tx *store.Tx) error {
		courses, err := readCollection[models.Course](tx, r.logger, CollectionCourses)
		if err != nil {
			return fmt.Errorf("read courses: %w", err)
		}
		idx := indexOfCourse(courses, id)
		if idx < 0 {
			return ErrNotFound
		}
		return store.Stage(tx, CollectionCourses, append(courses[:idx], courses[idx+1:]...))
	})
}

// AddStudentTx stages studentID onto the course roster inside an open transaction.
func (r *CourseRepository) AddStudentTx(tx *store.Tx, courseID, studentID string) error {
	courses, err := readCollection[models.Course](tx, r.logger, CollectionCourses)
	if err != nil {
		return fmt.Errorf("read courses: %w", err)
	}
	idx := indexOfCourse(courses, courseID)
	if idx < 0 {
		return ErrNotFound
	}
	if courses[idx].HasStudent(studentID) {
		return nil
	}
	courses[idx].Students = append(courses[idx].Students, studentID)
	return store.Stage(tx, CollectionCourses, courses)
}

func indexOfCourse(courses []models.Course, id string) int {
	for i, c := range courses {
		if c.ID == id {
			return i
		}
	}
	return -1
}
