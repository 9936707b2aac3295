package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-api/internal/dto"
	"github.com/noah-isme/lms-api/internal/middleware"
	"github.com/noah-isme/lms-api/internal/models"
	"github.com/noah-isme/lms-api/internal/service"
	appErrors "github.com/noah-isme/lms-api/pkg/errors"
	"github.com/noah-isme/lms-api/pkg/response"
)

type authService interface {
	Register(ctx context.Context, req service.RegisterRequest) (*models.User, error)
	Login(ctx context.Context, req service.LoginRequest) (*models.Session, error)
	Logout(ctx context.Context, token string) error
}

// AuthHandler wires HTTP endpoints to the user registry.
type AuthHandler struct {
	service authService
	jar     *middleware.CookieJar
	logger  *zap.Logger
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(svc authService, jar *middleware.CookieJar, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{service: svc, jar: jar, logger: logger}
}

// Register godoc
// @Summary Register user
// @Description Create a student or teacher account
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body service.RegisterRequest true "Registration payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req service.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid registration payload"))
		return
	}

	user, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Registration successful", user.Info())
}

// Login godoc
// @Summary Authenticate user
// @Description Authenticate by email and password and open a session
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body service.LoginRequest true "Login payload"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req service.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid login payload"))
		return
	}

	session, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if h.jar != nil {
		if err := h.jar.Save(c.Writer, c.Request, session.Token); err != nil {
			h.logger.Warn("failed to set session cookie", zap.Error(err))
		}
	}

	response.JSON(c, http.StatusOK, "Login successful", dto.LoginResponse{
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		User:      session.User.Info(),
	})
}

// Logout godoc
// @Summary Logout current session
// @Description Clear the current session; succeeds without one
// @Tags Authentication
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	token := middleware.TokenFromRequest(c, h.jar)
	if err := h.service.Logout(c.Request.Context(), token); err != nil {
		response.Error(c, err)
		return
	}
	if h.jar != nil {
		if err := h.jar.Clear(c.Writer, c.Request); err != nil {
			h.logger.Warn("failed to clear session cookie", zap.Error(err))
		}
	}
	response.JSON(c, http.StatusOK, "Logged out", nil)
}

// Me godoc
// @Summary Current session
// @Description Return the authenticated user and role flags
// @Tags Authentication
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	session := sessionFromContext(c)
	if !session.IsAuthenticated() {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	response.JSON(c, http.StatusOK, "", dto.NewSessionResponse(session))
}
