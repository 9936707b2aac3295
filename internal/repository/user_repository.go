package repository

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/lms-api/internal/models"
	"github.com/noah-isme/lms-api/pkg/store"
)

// UserRepository provides access to the users collection.
type UserRepository struct {
	store  *store.Store
	logger *zap.Logger
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(s *store.Store, logger *zap.Logger) *UserRepository {
	return &UserRepository{store: s, logger: orNop(logger)}
}

// List returns every user.
func (r *UserRepository) List(ctx context.Context) ([]models.User, error) {
	users, err := loadCollection[models.User](ctx, r.store, r.logger, CollectionUsers)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// FindByID returns a user by identifier.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	return r.find(ctx, func(u models.User) bool { return u.ID == id })
}

// FindByEmail returns a user by exact email.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.find(ctx, func(u models.User) bool { return u.Email == email })
}

// FindByUsername returns a user by exact username.
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.find(ctx, func(u models.User) bool { return u.Username == username })
}

// FindByCredentials returns the user whose email and password both match exactly.
func (r *UserRepository) FindByCredentials(ctx context.Context, email, password string) (*models.User, error) {
	return r.find(ctx, func(u models.User) bool { return u.Email == email && u.Password == password })
}

// Create appends a user to the collection.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	return r.store.Update(ctx, func(tx *store.Tx) error {
		users, err := readCollection[models.User](tx, r.logger, CollectionUsers)
		if err != nil {
			return fmt.Errorf("read users: %w", err)
		}
		for _, u := range users {
			if u.Email == user.Email || u.Username == user.Username {
				return ErrDuplicate
			}
		}
		return store.Stage(tx, CollectionUsers, append(users, *user))
	})
}

func (r *UserRepository) find(ctx context.Context, match func(models.User) bool) (*models.User, error) {
	users, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		if match(u) {
			found := u
			return &found, nil
		}
	}
	return nil, ErrNotFound
}
