package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lms-api/internal/models"
	"github.com/noah-isme/lms-api/internal/service"
	"github.com/noah-isme/lms-api/pkg/response"
)

type assignmentService interface {
	Create(ctx context.Context, req service.CreateAssignmentRequest) (*models.Assignment, error)
	List(ctx context.Context) ([]models.Assignment, error)
	ListByCourse(ctx context.Context, courseID string) ([]models.Assignment, error)
}

// AssignmentHandler exposes assignment endpoints.
type AssignmentHandler struct {
	service assignmentService
}

// NewAssignmentHandler constructs AssignmentHandler.
func NewAssignmentHandler(svc assignmentService) *AssignmentHandler {
	return &AssignmentHandler{service: svc}
}

// Create godoc
// @Summary Create assignment
// @Tags Assignments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateAssignmentRequest true "Assignment payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /assignments [post]
func (h *AssignmentHandler) Create(c *gin.Context) {
	var req service.CreateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid assignment payload"))
		return
	}
	assignment, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Assignment created", assignment)
}

// List godoc
// @Summary List assignments
// @Tags Assignments
// @Produce json
// @Security BearerAuth
// @Param courseId query string false "Course ID"
// @Success 200 {object} response.Envelope
// @Router /assignments [get]
func (h *AssignmentHandler) List(c *gin.Context) {
	var (
		assignments []models.Assignment
		err         error
	)
	if courseID := c.Query("courseId"); courseID != "" {
		assignments, err = h.service.ListByCourse(c.Request.Context(), courseID)
	} else {
		assignments, err = h.service.List(c.Request.Context())
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "", assignments, map[string]interface{}{"total": len(assignments)})
}
