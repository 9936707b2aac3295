package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lms-api/internal/models"
	"github.com/noah-isme/lms-api/internal/service"
	"github.com/noah-isme/lms-api/pkg/response"
)

type courseService interface {
	List(ctx context.Context) ([]models.Course, error)
	Search(ctx context.Context, query string) ([]models.Course, error)
	GetByID(ctx context.Context, id string) (*models.Course, error)
	ListByTeacher(ctx context.Context, teacherID string) ([]models.Course, error)
	Create(ctx context.Context, req service.CreateCourseRequest) (*models.Course, error)
	Update(ctx context.Context, actorID, id string, patch models.CoursePatch) (*models.Course, error)
	Delete(ctx context.Context, actorID, id string) error
}

// CourseHandler manages catalog endpoints.
type CourseHandler struct {
	service courseService
}

// NewCourseHandler constructs the handler.
func NewCourseHandler(svc courseService) *CourseHandler {
	return &CourseHandler{service: svc}
}

// List godoc
// @Summary List courses
// @Description List the catalog, optionally filtered by a search term
// @Tags Courses
// @Produce json
// @Param q query string false "Search term"
// @Success 200 {object} response.Envelope
// @Router /courses [get]
func (h *CourseHandler) List(c *gin.Context) {
	var (
		courses []models.Course
		err     error
	)
	if q := c.Query("q"); q != "" {
		courses, err = h.service.Search(c.Request.Context(), q)
	} else {
		courses, err = h.service.List(c.Request.Context())
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "", courses, map[string]interface{}{"total": len(courses)})
}

// Get godoc
// @Summary Get course
// @Tags Courses
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /courses/{id} [get]
func (h *CourseHandler) Get(c *gin.Context) {
	course, err := h.service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "", course)
}

// ListByTeacher godoc
// @Summary List a teacher's courses
// @Tags Courses
// @Produce json
// @Param id path string true "Teacher ID"
// @Success 200 {object} response.Envelope
// @Router /teachers/{id}/courses [get]
func (h *CourseHandler) ListByTeacher(c *gin.Context) {
	courses, err := h.service.ListByTeacher(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "", courses, map[string]interface{}{"total": len(courses)})
}

// Create godoc
// @Summary Create course
// @Description Teacher id and name default to the caller
// @Tags Courses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateCourseRequest true "Course payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /courses [post]
func (h *CourseHandler) Create(c *gin.Context) {
	var req service.CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid course payload"))
		return
	}
	if session := sessionFromContext(c); session.IsAuthenticated() && req.TeacherID == "" {
		req.TeacherID = session.User.ID
		if req.TeacherName == "" {
			req.TeacherName = session.User.Username
		}
	}

	course, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Course created", course)
}

// Update godoc
// @Summary Update course
// @Description Only fields present in the payload change
// @Tags Courses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Course ID"
// @Param payload body models.CoursePatch true "Course patch"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /courses/{id} [put]
func (h *CourseHandler) Update(c *gin.Context) {
	var patch models.CoursePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		response.Error(c, invalidPayload(err, "invalid course payload"))
		return
	}
	course, err := h.service.Update(c.Request.Context(), actorID(c), c.Param("id"), patch)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "Course updated", course)
}

// Delete godoc
// @Summary Delete course
// @Description Enrollments referencing the course are kept
// @Tags Courses
// @Produce json
// @Security BearerAuth
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /courses/{id} [delete]
func (h *CourseHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), actorID(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "Course deleted", nil)
}

func actorID(c *gin.Context) string {
	if session := sessionFromContext(c); session.IsAuthenticated() {
		return session.User.ID
	}
	return ""
}
