package dto

// EnrollmentCheckResponse answers whether a student is enrolled in a course.
type EnrollmentCheckResponse struct {
	StudentID string `json:"studentId"`
	CourseID  string `json:"courseId"`
	Enrolled  bool   `json:"enrolled"`
}

// HealthResponse is the body of the liveness and readiness probes.
type HealthResponse struct {
	Status  string      `json:"status"`
	Store   string      `json:"store,omitempty"`
	Metrics interface{} `json:"metrics,omitempty"`
}
