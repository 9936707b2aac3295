package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/lms-api/internal/middleware"
	"github.com/noah-isme/lms-api/internal/repository"
	"github.com/noah-isme/lms-api/internal/service"
	"github.com/noah-isme/lms-api/pkg/config"
	"github.com/noah-isme/lms-api/pkg/store"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code string `json:"code"`
	} `json:"error"`
}

type testServer struct {
	t      *testing.T
	router *gin.Engine
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWithLogger(t, zap.NewNop())
}

func newTestServerWithLogger(t *testing.T, logger *zap.Logger) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Env:       config.EnvDevelopment,
		APIPrefix: "/api/v1",
		Session:   config.SessionConfig{Secret: "router-secret", TTL: time.Hour, Issuer: "lms-test", CookieName: "lms-session"},
		Metrics:   config.MetricsConfig{Enabled: true},
	}
	metrics := service.NewMetricsService()
	records := store.New(store.NewMemoryBackend(), store.Options{KeyPrefix: "lms_", Logger: logger, Observer: metrics})

	courseRepo := repository.NewCourseRepository(records, logger)
	enrollmentRepo := repository.NewEnrollmentRepository(records, logger)
	users := service.NewUserService(repository.NewUserRepository(records, logger), repository.NewSessionRepository(records, logger), nil, logger,
		service.SessionConfig{Secret: cfg.Session.Secret, TTL: cfg.Session.TTL, Issuer: cfg.Session.Issuer})
	courses := service.NewCourseService(courseRepo, logger, service.CourseConfig{})

	router := NewRouter(Deps{
		Config:      cfg,
		Logger:      logger,
		Metrics:     metrics,
		Store:       records,
		Cookies:     middleware.NewCookieJar(cfg.Session, logger),
		Users:       users,
		Courses:     courses,
		Enrollments: service.NewEnrollmentService(enrollmentRepo, courses, courseRepo, records, logger),
		Grades:      service.NewGradeService(enrollmentRepo, courses, logger),
		Assignments: service.NewAssignmentService(repository.NewAssignmentRepository(records, logger), logger),
	})
	return &testServer{t: t, router: router}
}

func (s *testServer) do(method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func (s *testServer) registerAndLogin(username, email, role string) (string, string) {
	s.t.Helper()
	rec, env := s.do(http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username": username, "email": email, "password": "password1", "role": role,
	})
	require.Equal(s.t, http.StatusCreated, rec.Code, env.Message)
	var user struct {
		ID string `json:"id"`
	}
	require.NoError(s.t, json.Unmarshal(env.Data, &user))

	rec, env = s.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": email, "password": "password1"})
	require.Equal(s.t, http.StatusOK, rec.Code, env.Message)
	var login struct {
		Token string `json:"token"`
	}
	require.NoError(s.t, json.Unmarshal(env.Data, &login))
	require.NotEmpty(s.t, login.Token)
	return user.ID, login.Token
}

func TestRouterHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	rec, _ := s.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, _ = s.do(http.MethodGet, "/ready", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	s.do(http.MethodGet, "/api/v1/courses", "", nil)
	rec, _ = s.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}

func TestRouterRegistrationErrors(t *testing.T) {
	s := newTestServer(t)

	rec, env := s.do(http.MethodPost, "/api/v1/auth/register", "", map[string]string{"username": "ab", "email": "a@b.co", "password": "password1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "Username must be at least 3 characters", env.Message)

	s.registerAndLogin("tdoe", "t@x.com", "teacher")
	rec, env = s.do(http.MethodPost, "/api/v1/auth/register", "", map[string]string{"username": "tdoe2", "email": "t@x.com", "password": "password1"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Email already registered", env.Message)

	rec, env = s.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": "t@x.com", "password": "nope-nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid email or password", env.Message)
}

func TestRouterTeacherStudentFlow(t *testing.T) {
	s := newTestServer(t)
	teacherID, teacherToken := s.registerAndLogin("tdoe", "t@x.com", "teacher")
	studentID, studentToken := s.registerAndLogin("sam", "sam@x.com", "student")

	rec, env := s.do(http.MethodGet, "/api/v1/auth/me", studentToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), `"isStudent":true`)
	assert.NotContains(t, string(env.Data), "password")

	rec, _ = s.do(http.MethodPost, "/api/v1/courses", studentToken, map[string]string{"name": "Nope"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, env = s.do(http.MethodPost, "/api/v1/courses", teacherToken, map[string]string{"name": "Intro"})
	require.Equal(t, http.StatusCreated, rec.Code, env.Message)
	var course struct {
		ID        string `json:"id"`
		TeacherID string `json:"teacherId"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &course))
	assert.Equal(t, teacherID, course.TeacherID)

	rec, _ = s.do(http.MethodPost, "/api/v1/enrollments", studentToken, map[string]string{"courseId": course.ID, "studentId": "someone-else"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, env = s.do(http.MethodPost, "/api/v1/enrollments", studentToken, map[string]string{"courseId": course.ID})
	require.Equal(t, http.StatusCreated, rec.Code, env.Message)
	rec, env = s.do(http.MethodPost, "/api/v1/enrollments", studentToken, map[string]string{"courseId": course.ID})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Already enrolled in this course", env.Message)

	rec, env = s.do(http.MethodGet, "/api/v1/enrollments/check?courseId="+course.ID, studentToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), `"enrolled":true`)

	rec, env = s.do(http.MethodPut, "/api/v1/grades", teacherToken, map[string]interface{}{"studentId": studentID, "courseId": course.ID, "grade": "101"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Grade must be a number between 0 and 100", env.Message)
	rec, _ = s.do(http.MethodPut, "/api/v1/grades", teacherToken, map[string]interface{}{"studentId": studentID, "courseId": course.ID, "grade": "85"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env = s.do(http.MethodGet, "/api/v1/teachers/"+teacherID+"/students", teacherToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), `"studentName":"sam"`)
	assert.Contains(t, string(env.Data), `"grade":85`)

	rec, _ = s.do(http.MethodGet, "/api/v1/courses/"+course.ID+"/grades/export?format=csv", teacherToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), studentID+",sam,85,")

	rec, _ = s.do(http.MethodGet, "/api/v1/students/"+studentID+"/courses", studentToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, _ = s.do(http.MethodGet, "/api/v1/students/"+teacherID+"/courses", studentToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = s.do(http.MethodDelete, "/api/v1/enrollments?courseId="+course.ID, studentToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, env = s.do(http.MethodDelete, "/api/v1/enrollments?courseId="+course.ID, studentToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Enrollment not found", env.Message)

	rec, _ = s.do(http.MethodPost, "/api/v1/auth/logout", studentToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, _ = s.do(http.MethodGet, "/api/v1/auth/me", studentToken, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouterCatalogAndAssignments(t *testing.T) {
	s := newTestServer(t)
	_, teacherToken := s.registerAndLogin("tdoe", "t@x.com", "teacher")

	rec, env := s.do(http.MethodGet, "/api/v1/courses?q=michael", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), "demo-course-2")
	assert.NotContains(t, string(env.Data), "demo-course-1")

	rec, env = s.do(http.MethodGet, "/api/v1/courses/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Course not found", env.Message)

	rec, _ = s.do(http.MethodPut, "/api/v1/courses/demo-course-1", teacherToken, map[string]string{"description": "Updated"})
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, _ = s.do(http.MethodDelete, "/api/v1/courses/demo-course-3", teacherToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, env = s.do(http.MethodPost, "/api/v1/assignments", teacherToken, map[string]string{"courseId": "demo-course-1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Course ID and title are required", env.Message)
	rec, _ = s.do(http.MethodPost, "/api/v1/assignments", teacherToken, map[string]string{"courseId": "demo-course-1", "title": "Essay"})
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec, env = s.do(http.MethodGet, "/api/v1/assignments?courseId=demo-course-1", teacherToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), `"maxScore":100`)

	rec, _ = s.do(http.MethodGet, "/api/v1/assignments", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouterLogoutIsAuditedForSessionUser(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	s := newTestServerWithLogger(t, zap.New(core))
	userID, token := s.registerAndLogin("sam", "sam@x.com", "student")

	rec, _ := s.do(http.MethodPost, "/api/v1/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	entries := logs.FilterLoggerName("audit").FilterField(zap.String("action", "logout")).All()
	require.Len(t, entries, 1)
	assert.Equal(t, userID, entries[0].ContextMap()["user_id"])

	rec, _ = s.do(http.MethodGet, "/api/v1/auth/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = s.do(http.MethodPost, "/api/v1/auth/logout", "not-a-token", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	entries = logs.FilterLoggerName("audit").FilterField(zap.String("action", "logout")).All()
	require.Len(t, entries, 2)
	_, attributed := entries[1].ContextMap()["user_id"]
	assert.False(t, attributed)
}
