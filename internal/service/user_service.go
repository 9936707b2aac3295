package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-api/internal/models"
	"github.com/noah-isme/lms-api/internal/repository"
	appErrors "github.com/noah-isme/lms-api/pkg/errors"
)

type userRepository interface {
	List(ctx context.Context) ([]models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByCredentials(ctx context.Context, email, password string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
}

type sessionRepository interface {
	Create(ctx context.Context, session *models.Session) error
	Find(ctx context.Context, id string) (*models.Session, error)
	Delete(ctx context.Context, id string) error
}

// RegisterRequest represents the registration payload.
type RegisterRequest struct {
	Username string          `json:"username" validate:"min=3"`
	Email    string          `json:"email" validate:"simple_email"`
	Password string          `json:"password" validate:"min=8"`
	Role     models.UserRole `json:"role"`
}

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

var registerMessages = map[string]string{
	"Username": "Username must be at least 3 characters",
	"Email":    "Invalid email address",
	"Password": "Password must be at least 8 characters",
}

// SessionConfig defines how session tokens are signed.
type SessionConfig struct {
	Secret string
	TTL    time.Duration
	Issuer string
}

// UserService is the user registry: registration, login and session resolution.
type UserService struct {
	users     userRepository
	sessions  sessionRepository
	validator *validator.Validate
	logger    *zap.Logger
	config    SessionConfig
	now       func() time.Time
}

// NewUserService creates an instance of UserService.
func NewUserService(users userRepository, sessions sessionRepository, validate *validator.Validate, logger *zap.Logger, config SessionConfig) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	registerRules(validate)
	if config.TTL <= 0 {
		config.TTL = 24 * time.Hour
	}
	return &UserService{
		users:     users,
		sessions:  sessions,
		validator: validate,
		logger:    logger,
		config:    config,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Register validates the payload, enforces unique email and username, and stores the user.
func (s *UserService) Register(ctx context.Context, req RegisterRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status,
			firstFieldMessage(err, registerMessages, "invalid registration payload"))
	}
	if req.Role == "" {
		req.Role = models.RoleStudent
	}
	if !req.Role.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Role must be student or teacher")
	}

	if _, err := s.users.FindByEmail(ctx, req.Email); err == nil {
		return nil, appErrors.ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, appErrors.Internal(err, "failed to check email")
	}
	if _, err := s.users.FindByUsername(ctx, req.Username); err == nil {
		return nil, appErrors.ErrUsernameTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, appErrors.Internal(err, "failed to check username")
	}

	user := &models.User{
		ID:        uuid.NewString(),
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		Role:      req.Role,
		CreatedAt: s.now(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "Email or username already registered")
		}
		return nil, appErrors.Internal(err, "failed to create user")
	}
	s.logger.Info("user registered", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	return user, nil
}

// Login matches the credentials exactly and opens a session.
func (s *UserService) Login(ctx context.Context, req LoginRequest) (*models.Session, error) {
	user, err := s.users.FindByCredentials(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "Invalid email or password")
		}
		return nil, appErrors.Internal(err, "failed to fetch user")
	}

	issuedAt := s.now()
	session := &models.Session{
		ID:        uuid.NewString(),
		User:      *user,
		CreatedAt: issuedAt,
		ExpiresAt: issuedAt.Add(s.config.TTL),
	}
	token, err := s.signToken(session)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to create session token")
	}
	session.Token = token

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, appErrors.Internal(err, "failed to persist session")
	}
	s.logger.Info("user logged in", zap.String("user_id", user.ID))
	return session, nil
}

// Logout clears the session behind token. Unknown, expired or empty tokens still succeed.
func (s *UserService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	claims, err := s.parseToken(token, jwt.WithoutClaimsValidation())
	if err != nil {
		s.logger.Debug("logout with unreadable token", zap.Error(err))
		return nil
	}
	if err := s.sessions.Delete(ctx, claims.ID); err != nil {
		return appErrors.Internal(err, "failed to clear session")
	}
	return nil
}

// CurrentSession resolves a token to its live session.
func (s *UserService) CurrentSession(ctx context.Context, token string) (*models.Session, error) {
	claims, err := s.parseToken(token)
	if err != nil {
		return nil, appErrors.Because(appErrors.ErrInvalidSessionToken, err)
	}
	session, err := s.sessions.Find(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, appErrors.ErrSessionEnded
		}
		return nil, appErrors.Internal(err, "failed to load session")
	}
	if s.now().After(session.ExpiresAt) {
		if err := s.sessions.Delete(ctx, session.ID); err != nil {
			s.logger.Warn("failed to drop expired session", zap.Error(err))
		}
		return nil, appErrors.ErrSessionExpired
	}
	return session, nil
}

// GetUserByID returns the user and whether it exists. Absence is not an error.
func (s *UserService) GetUserByID(ctx context.Context, id string) (*models.User, bool, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, appErrors.Internal(err, "failed to load user")
	}
	return user, true, nil
}

// List returns every user without passwords.
func (s *UserService) List(ctx context.Context) ([]models.UserInfo, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list users")
	}
	out := make([]models.UserInfo, 0, len(users))
	for _, u := range users {
		out = append(out, u.Info())
	}
	return out, nil
}

func (s *UserService) signToken(session *models.Session) (string, error) {
	claims := &models.SessionClaims{
		UserID: session.User.ID,
		Role:   session.User.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        session.ID,
			Issuer:    s.config.Issuer,
			Subject:   session.User.ID,
			IssuedAt:  jwt.NewNumericDate(session.CreatedAt),
			NotBefore: jwt.NewNumericDate(session.CreatedAt),
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.Secret))
}

func (s *UserService) parseToken(token string, opts ...jwt.ParserOption) (*models.SessionClaims, error) {
	opts = append(opts, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	parsed, err := jwt.ParseWithClaims(token, &models.SessionClaims{}, func(*jwt.Token) (interface{}, error) {
		return []byte(s.config.Secret), nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*models.SessionClaims)
	if !ok || claims.ID == "" {
		return nil, fmt.Errorf("session token without id")
	}
	return claims, nil
}
