package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lms-api/internal/dto"
	"github.com/noah-isme/lms-api/internal/models"
	"github.com/noah-isme/lms-api/internal/service"
	appErrors "github.com/noah-isme/lms-api/pkg/errors"
	"github.com/noah-isme/lms-api/pkg/response"
)

type enrollmentService interface {
	Enroll(ctx context.Context, req service.EnrollRequest) (*models.Enrollment, error)
	Unenroll(ctx context.Context, studentID, courseID string) error
	StudentCourses(ctx context.Context, studentID string) ([]models.StudentCourse, error)
	IsEnrolled(ctx context.Context, studentID, courseID string) (bool, error)
	ListByCourse(ctx context.Context, courseID string) ([]models.Enrollment, error)
}

// EnrollmentHandler exposes the enrollment ledger.
type EnrollmentHandler struct {
	service enrollmentService
}

// NewEnrollmentHandler constructs EnrollmentHandler.
func NewEnrollmentHandler(svc enrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{service: svc}
}

// Enroll godoc
// @Summary Enroll student
// @Description Students may only enroll themselves; studentId defaults to the caller
// @Tags Enrollments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.EnrollRequest true "Enrollment payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /enrollments [post]
func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	var req service.EnrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid enrollment payload"))
		return
	}
	session := sessionFromContext(c)
	if session.IsStudent() {
		if req.StudentID == "" {
			req.StudentID = session.User.ID
		}
		if req.StudentID != session.User.ID {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "Students can only enroll themselves"))
			return
		}
		if req.StudentName == "" {
			req.StudentName = session.User.Username
		}
	}

	enrollment, err := h.service.Enroll(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Enrolled successfully", enrollment)
}

// Unenroll godoc
// @Summary Unenroll student
// @Tags Enrollments
// @Produce json
// @Security BearerAuth
// @Param studentId query string false "Student ID (defaults to caller)"
// @Param courseId query string true "Course ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /enrollments [delete]
func (h *EnrollmentHandler) Unenroll(c *gin.Context) {
	studentID := c.Query("studentId")
	session := sessionFromContext(c)
	if session.IsStudent() {
		if studentID == "" {
			studentID = session.User.ID
		}
		if studentID != session.User.ID {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "Students can only unenroll themselves"))
			return
		}
	}

	if err := h.service.Unenroll(c.Request.Context(), studentID, c.Query("courseId")); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "Unenrolled successfully", nil)
}

// StudentCourses godoc
// @Summary List a student's courses
// @Description Each enrollment carries its current course, or null when deleted
// @Tags Enrollments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/courses [get]
func (h *EnrollmentHandler) StudentCourses(c *gin.Context) {
	items, err := h.service.StudentCourses(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "", items, map[string]interface{}{"total": len(items)})
}

// Check godoc
// @Summary Check enrollment
// @Tags Enrollments
// @Produce json
// @Security BearerAuth
// @Param studentId query string false "Student ID (defaults to caller)"
// @Param courseId query string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /enrollments/check [get]
func (h *EnrollmentHandler) Check(c *gin.Context) {
	studentID := c.Query("studentId")
	if studentID == "" {
		studentID = actorID(c)
	}
	courseID := c.Query("courseId")
	enrolled, err := h.service.IsEnrolled(c.Request.Context(), studentID, courseID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "", dto.EnrollmentCheckResponse{StudentID: studentID, CourseID: courseID, Enrolled: enrolled})
}

// ListByCourse godoc
// @Summary List a course's enrollments
// @Tags Enrollments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/enrollments [get]
func (h *EnrollmentHandler) ListByCourse(c *gin.Context) {
	enrollments, err := h.service.ListByCourse(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "", enrollments, map[string]interface{}{"total": len(enrollments)})
}
