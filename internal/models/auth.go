package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Session is the "current session" entry created at login. It is passed explicitly to
// callers instead of living on a shared manager.
type Session struct {
	Token     string    `json:"token"`
	ID        string    `json:"id"`
	User      User      `json:"user"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// IsAuthenticated reports whether the session carries a user.
func (s *Session) IsAuthenticated() bool {
	return s != nil && s.User.ID != ""
}

// IsTeacher reports whether the session user is a teacher.
func (s *Session) IsTeacher() bool {
	return s.IsAuthenticated() && s.User.Role == RoleTeacher
}

// IsStudent reports whether the session user is a student.
func (s *Session) IsStudent() bool {
	return s.IsAuthenticated() && s.User.Role == RoleStudent
}

// SessionClaims is the signed payload of a session token.
type SessionClaims struct {
	UserID string   `json:"user_id"`
	Role   UserRole `json:"role"`
	jwt.RegisteredClaims
}
