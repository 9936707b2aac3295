package models

import "time"

// UserRole is the role string checked for teacher/student features.
type UserRole string

const (
	RoleTeacher UserRole = "teacher"
	RoleStudent UserRole = "student"
)

// Valid reports whether the role is one the registry accepts.
func (r UserRole) Valid() bool {
	return r == RoleTeacher || r == RoleStudent
}

// User is a registered account. Password is kept in plaintext.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Password  string    `json:"password"`
	Role      UserRole  `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// UserInfo is the public projection of a user returned by the API.
type UserInfo struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      UserRole  `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// Info strips the password.
func (u User) Info() UserInfo {
	return UserInfo{ID: u.ID, Username: u.Username, Email: u.Email, Role: u.Role, CreatedAt: u.CreatedAt}
}
