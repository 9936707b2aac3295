package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lms-api/internal/models"
	"github.com/noah-isme/lms-api/internal/service"
	"github.com/noah-isme/lms-api/pkg/response"
)

type gradeService interface {
	UpdateGrade(ctx context.Context, studentID, courseID string, grade interface{}) (*models.Enrollment, error)
	StudentsForTeacher(ctx context.Context, teacherID string) ([]models.TeacherStudent, error)
	CourseGrades(ctx context.Context, courseID string) ([]models.CourseGrade, error)
	TeacherDashboard(ctx context.Context, teacherID string) (*models.TeacherDashboard, error)
	ExportCourseGrades(ctx context.Context, courseID, format string) (*service.GradeExport, error)
}

// GradeHandler exposes grading endpoints for teachers.
type GradeHandler struct {
	service gradeService
}

// NewGradeHandler constructs GradeHandler.
func NewGradeHandler(svc gradeService) *GradeHandler {
	return &GradeHandler{service: svc}
}

// Update godoc
// @Summary Set a grade
// @Description Grade may be a number or numeric string between 0 and 100
// @Tags Grades
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.UpdateGradeRequest true "Grade payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /grades [put]
func (h *GradeHandler) Update(c *gin.Context) {
	var req service.UpdateGradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid grade payload"))
		return
	}
	enrollment, err := h.service.UpdateGrade(c.Request.Context(), req.StudentID, req.CourseID, req.Grade)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "Grade updated", enrollment)
}

// CourseGrades godoc
// @Summary List course grades
// @Tags Grades
// @Produce json
// @Security BearerAuth
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/grades [get]
func (h *GradeHandler) CourseGrades(c *gin.Context) {
	grades, err := h.service.CourseGrades(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "", grades, map[string]interface{}{"total": len(grades)})
}

// Export godoc
// @Summary Export course grades
// @Tags Grades
// @Produce text/csv
// @Produce application/pdf
// @Security BearerAuth
// @Param id path string true "Course ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /courses/{id}/grades/export [get]
func (h *GradeHandler) Export(c *gin.Context) {
	out, err := h.service.ExportCourseGrades(c.Request.Context(), c.Param("id"), c.DefaultQuery("format", "csv"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, out.Filename, out.ContentType, out.Content)
}

// TeacherStudents godoc
// @Summary List a teacher's students
// @Description Distinct students across the teacher's courses
// @Tags Grades
// @Produce json
// @Security BearerAuth
// @Param id path string true "Teacher ID"
// @Success 200 {object} response.Envelope
// @Router /teachers/{id}/students [get]
func (h *GradeHandler) TeacherStudents(c *gin.Context) {
	students, err := h.service.StudentsForTeacher(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "", students, map[string]interface{}{"total": len(students)})
}

// Dashboard godoc
// @Summary Teacher dashboard
// @Tags Grades
// @Produce json
// @Security BearerAuth
// @Param id path string true "Teacher ID"
// @Success 200 {object} response.Envelope
// @Router /teachers/{id}/dashboard [get]
func (h *GradeHandler) Dashboard(c *gin.Context) {
	dashboard, err := h.service.TeacherDashboard(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "", dashboard)
}
