package dto

import (
	"time"

	"github.com/noah-isme/lms-api/internal/models"
)

// LoginResponse is returned by a successful login. The token is also set in the session cookie.
type LoginResponse struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expiresAt"`
	User      models.UserInfo `json:"user"`
}

// SessionResponse describes the caller's current session.
type SessionResponse struct {
	User      models.UserInfo `json:"user"`
	IsTeacher bool            `json:"isTeacher"`
	IsStudent bool            `json:"isStudent"`
	ExpiresAt time.Time       `json:"expiresAt"`
}

// NewSessionResponse projects a session without exposing the password.
func NewSessionResponse(s *models.Session) SessionResponse {
	return SessionResponse{
		User:      s.User.Info(),
		IsTeacher: s.IsTeacher(),
		IsStudent: s.IsStudent(),
		ExpiresAt: s.ExpiresAt,
	}
}
