package models

import "time"

// TeacherStudent is one row of the teacher's student list.
type TeacherStudent struct {
	StudentID    string   `json:"studentId"`
	StudentName  string   `json:"studentName"`
	CourseID     string   `json:"courseId"`
	CourseName   string   `json:"courseName"`
	Grade        *float64 `json:"grade"`
	EnrollmentID string   `json:"enrollmentId"`
}

// CourseGrade is the per-course grade projection.
type CourseGrade struct {
	StudentID   string    `json:"studentId"`
	StudentName string    `json:"studentName"`
	Grade       *float64  `json:"grade"`
	EnrolledAt  time.Time `json:"enrolledAt"`
}

// TeacherDashboard summarises a teacher's courses.
type TeacherDashboard struct {
	TeacherID    string   `json:"teacherId"`
	CourseCount  int      `json:"courseCount"`
	StudentCount int      `json:"studentCount"`
	GradedCount  int      `json:"gradedCount"`
	AverageGrade *float64 `json:"averageGrade"`
}
