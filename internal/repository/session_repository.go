package repository

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/lms-api/internal/models"
	"github.com/noah-isme/lms-api/pkg/store"
)

// SessionRepository stores current-session entries, one key per session id.
type SessionRepository struct {
	store  *store.Store
	logger *zap.Logger
}

// NewSessionRepository constructs a session repository.
func NewSessionRepository(s *store.Store, logger *zap.Logger) *SessionRepository {
	return &SessionRepository{store: s, logger: orNop(logger)}
}

// Create persists a session.
func (r *SessionRepository) Create(ctx context.Context, session *models.Session) error {
	if err := store.PutValue(ctx, r.store, sessionKeyPrefix+session.ID, session); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Find loads a session. Malformed entries read as missing.
func (r *SessionRepository) Find(ctx context.Context, id string) (*models.Session, error) {
	session, err := store.GetValue[models.Session](ctx, r.store, sessionKeyPrefix+id)
	switch {
	case err == nil:
		return session, nil
	case errors.Is(err, store.ErrKeyNotFound):
		return nil, ErrNotFound
	case errors.Is(err, store.ErrCorrupt):
		r.logger.Warn("discarding malformed session", zap.String("session_id", id), zap.Error(err))
		return nil, ErrNotFound
	default:
		return nil, fmt.Errorf("load session: %w", err)
	}
}

// Delete removes a session; missing sessions are ignored.
func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	if err := store.DeleteValue(ctx, r.store, sessionKeyPrefix+id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
