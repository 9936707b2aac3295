package models

import "time"

// EnrollmentStatus represents the lifecycle of an enrollment.
type EnrollmentStatus string

// EnrollmentStatusActive is the only status the ledger writes.
const EnrollmentStatusActive EnrollmentStatus = "active"

// Enrollment links a student to a course. StudentName and CourseName are snapshots taken
// at enrollment time and are not re-synced later.
type Enrollment struct {
	ID          string           `json:"id"`
	StudentID   string           `json:"studentId"`
	StudentName string           `json:"studentName"`
	CourseID    string           `json:"courseId"`
	CourseName  string           `json:"courseName"`
	EnrolledAt  time.Time        `json:"enrolledAt"`
	Status      EnrollmentStatus `json:"status"`
	Grade       *float64         `json:"grade"`
}

// Matches reports whether the enrollment is for the given pair.
func (e Enrollment) Matches(studentID, courseID string) bool {
	return e.StudentID == studentID && e.CourseID == courseID
}

// StudentCourse joins an enrollment with the course it references. Course is nil when the
// course has since been deleted.
type StudentCourse struct {
	Enrollment
	Course *Course `json:"course"`
}
