package models

import "time"

// Assignment belongs to a course by id only.
type Assignment struct {
	ID          string    `json:"id"`
	CourseID    string    `json:"courseId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	DueDate     *string   `json:"dueDate"`
	MaxScore    float64   `json:"maxScore"`
	CreatedAt   time.Time `json:"createdAt"`
}
