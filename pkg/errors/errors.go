package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness. kind is the code of the
// general error it specialises; for general errors it equals Code.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
	kind    string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches errors sharing the same code, so clones satisfy errors.Is. A specialised error
// also matches the general error it was defined from: ErrCourseNotFound is ErrNotFound, but
// not ErrEnrollmentNotFound.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	if e.Code == t.Code {
		return true
	}
	return t.kind == t.Code && e.kind == t.Code
}

// Kind returns the code of the general error e belongs to.
func (e *Error) Kind() string {
	if e == nil {
		return ""
	}
	if e.kind == "" {
		return e.Code
	}
	return e.kind
}

// New creates a new general Error.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, kind: code}
}

// Define specialises a general error with its own code and message, keeping its status.
func Define(base *Error, code, message string) *Error {
	return &Error{Code: code, Status: base.Status, Message: message, kind: base.Kind()}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err, kind: code}
}

// Predefined errors for common scenarios.
var (
	ErrInvalidCredentials = New("INVALID_CREDENTIALS", http.StatusUnauthorized, "Invalid email or password")
	ErrNotFound           = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrForbidden          = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrUnauthorized       = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrConflict           = New("CONFLICT", http.StatusConflict, "conflict")
	ErrValidation         = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal           = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
)

// LMS errors.
var (
	ErrUserNotFound       = Define(ErrNotFound, "USER_NOT_FOUND", "User not found")
	ErrCourseNotFound     = Define(ErrNotFound, "COURSE_NOT_FOUND", "Course not found")
	ErrEnrollmentNotFound = Define(ErrNotFound, "ENROLLMENT_NOT_FOUND", "Enrollment not found")

	ErrEmailTaken      = Define(ErrConflict, "EMAIL_TAKEN", "Email already registered")
	ErrUsernameTaken   = Define(ErrConflict, "USERNAME_TAKEN", "Username already taken")
	ErrCourseNameTaken = Define(ErrConflict, "COURSE_NAME_TAKEN", "Course name already exists")
	ErrAlreadyEnrolled = Define(ErrConflict, "ALREADY_ENROLLED", "Already enrolled in this course")

	ErrInvalidGrade        = Define(ErrValidation, "INVALID_GRADE", "Grade must be a number between 0 and 100")
	ErrUnsupportedExport   = Define(ErrValidation, "UNSUPPORTED_EXPORT_FORMAT", "Unsupported export format")
	ErrCourseNameRequired  = Define(ErrValidation, "COURSE_NAME_REQUIRED", "Course name is required")
	ErrNotCourseTeacher    = Define(ErrForbidden, "NOT_COURSE_TEACHER", "Only the course teacher can modify this course")
	ErrSessionEnded        = Define(ErrUnauthorized, "SESSION_ENDED", "session ended")
	ErrSessionExpired      = Define(ErrUnauthorized, "SESSION_EXPIRED", "session expired")
	ErrInvalidSessionToken = Define(ErrUnauthorized, "INVALID_SESSION_TOKEN", "invalid session token")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides. The copy keeps the code,
// so it still satisfies errors.Is against the original.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// Internal wraps an unexpected failure with a caller supplied message.
func Internal(err error, message string) *Error {
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, message)
}

// Because attaches a cause to a copy of a predefined error.
func Because(base *Error, err error) *Error {
	clone := Clone(base, "")
	if clone != nil {
		clone.Err = err
	}
	return clone
}
