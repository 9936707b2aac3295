package models

import "time"

// Course is a catalog entry. Students is the roster of enrolled student ids.
type Course struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	TeacherID   string    `json:"teacherId"`
	TeacherName string    `json:"teacherName"`
	CreatedAt   time.Time `json:"createdAt"`
	Students    []string  `json:"students"`
}

// HasStudent reports whether studentID is on the roster.
func (c Course) HasStudent(studentID string) bool {
	for _, id := range c.Students {
		if id == studentID {
			return true
		}
	}
	return false
}

// CoursePatch lists the fields an update may overwrite. Nil fields are left untouched.
type CoursePatch struct {
	Name        *string   `json:"name,omitempty"`
	Description *string   `json:"description,omitempty"`
	TeacherID   *string   `json:"teacherId,omitempty"`
	TeacherName *string   `json:"teacherName,omitempty"`
	Students    *[]string `json:"students,omitempty"`
}

// Apply merges the patch over c.
func (p CoursePatch) Apply(c *Course) {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Description != nil {
		c.Description = *p.Description
	}
	if p.TeacherID != nil {
		c.TeacherID = *p.TeacherID
	}
	if p.TeacherName != nil {
		c.TeacherName = *p.TeacherName
	}
	if p.Students != nil {
		c.Students = append([]string(nil), (*p.Students)...)
	}
}

// DefaultCourses returns the demo catalog used when nothing is stored or seeded.
func DefaultCourses(now time.Time) []Course {
	return []Course{
		{
			ID:          "demo-course-1",
			Name:        "Introduction to Web Development",
			Description: "Learn the fundamentals of HTML, CSS, and JavaScript by building interactive pages.",
			TeacherID:   "demo-teacher-1",
			TeacherName: "Ayesha Khan",
			CreatedAt:   now,
			Students:    []string{},
		},
		{
			ID:          "demo-course-2",
			Name:        "Data Structures Basics",
			Description: "Understand arrays, stacks, queues, and linked lists with hands-on exercises.",
			TeacherID:   "demo-teacher-2",
			TeacherName: "Michael Chen",
			CreatedAt:   now,
			Students:    []string{},
		},
		{
			ID:          "demo-course-3",
			Name:        "Creative Writing Workshop",
			Description: "Sharpen your storytelling skills through prompts, peer reviews, and feedback.",
			TeacherID:   "demo-teacher-3",
			TeacherName: "Priya Desai",
			CreatedAt:   now,
			Students:    []string{},
		},
	}
}
