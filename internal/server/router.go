package server

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/lms-api/api/swagger"
	"github.com/noah-isme/lms-api/internal/handler"
	"github.com/noah-isme/lms-api/internal/middleware"
	"github.com/noah-isme/lms-api/internal/models"
	"github.com/noah-isme/lms-api/internal/service"
	"github.com/noah-isme/lms-api/pkg/config"
	"github.com/noah-isme/lms-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/lms-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/lms-api/pkg/middleware/requestid"
	"github.com/noah-isme/lms-api/pkg/store"
)

// Deps carries everything the router needs. Metrics is nil when disabled.
type Deps struct {
	Config      *config.Config
	Logger      *zap.Logger
	Metrics     *service.MetricsService
	Store       *store.Store
	Cookies     *middleware.CookieJar
	Users       *service.UserService
	Courses     *service.CourseService
	Enrollments *service.EnrollmentService
	Grades      *service.GradeService
	Assignments *service.AssignmentService
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(d Deps) *gin.Engine {
	cfg := d.Config
	log := d.Logger
	if log == nil {
		log = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(log))
	r.Use(corsmiddleware.New(cfg.CORS))
	if d.Metrics != nil {
		r.Use(middleware.Metrics(d.Metrics))
	}

	metricsHandler := handler.NewMetricsHandler(d.Metrics, d.Store)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	if cfg.Metrics.Enabled {
		r.GET("/metrics", metricsHandler.Prometheus)
	}
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	authHandler := handler.NewAuthHandler(d.Users, d.Cookies, log)
	userHandler := handler.NewUserHandler(d.Users)
	courseHandler := handler.NewCourseHandler(d.Courses)
	enrollmentHandler := handler.NewEnrollmentHandler(d.Enrollments)
	gradeHandler := handler.NewGradeHandler(d.Grades)
	assignmentHandler := handler.NewAssignmentHandler(d.Assignments)

	audit := func(action, resource string) gin.HandlerFunc {
		return middleware.Audit(log, action, resource)
	}

	api := r.Group(cfg.APIPrefix)

	authRoutes := api.Group("/auth")
	authRoutes.POST("/register", authHandler.Register)
	authRoutes.POST("/login", authHandler.Login)
	authRoutes.POST("/logout", middleware.OptionalSession(d.Users, d.Cookies), audit("logout", "session"), authHandler.Logout)

	api.GET("/courses", courseHandler.List)
	api.GET("/courses/:id", courseHandler.Get)
	api.GET("/teachers/:id/courses", courseHandler.ListByTeacher)

	secured := api.Group("")
	secured.Use(middleware.Session(d.Users, d.Cookies))

	teacher := middleware.RequireRoles(models.RoleTeacher)
	teacherOrSelf := middleware.RBAC(string(models.RoleTeacher), middleware.AllowSelf)

	secured.GET("/auth/me", authHandler.Me)
	secured.GET("/users", teacher, userHandler.List)
	secured.GET("/users/:id", teacherOrSelf, userHandler.Get)

	secured.POST("/courses", teacher, audit("create", "course"), courseHandler.Create)
	secured.PUT("/courses/:id", teacher, audit("update", "course"), courseHandler.Update)
	secured.DELETE("/courses/:id", teacher, audit("delete", "course"), courseHandler.Delete)

	secured.POST("/enrollments", audit("create", "enrollment"), enrollmentHandler.Enroll)
	secured.DELETE("/enrollments", audit("delete", "enrollment"), enrollmentHandler.Unenroll)
	secured.GET("/enrollments/check", enrollmentHandler.Check)
	secured.GET("/students/:id/courses", teacherOrSelf, enrollmentHandler.StudentCourses)
	secured.GET("/courses/:id/enrollments", teacher, enrollmentHandler.ListByCourse)

	secured.PUT("/grades", teacher, audit("update", "grade"), gradeHandler.Update)
	secured.GET("/courses/:id/grades", teacher, gradeHandler.CourseGrades)
	secured.GET("/courses/:id/grades/export", teacher, gradeHandler.Export)
	secured.GET("/teachers/:id/students", teacher, gradeHandler.TeacherStudents)
	secured.GET("/teachers/:id/dashboard", teacher, gradeHandler.Dashboard)

	secured.POST("/assignments", teacher, audit("create", "assignment"), assignmentHandler.Create)
	secured.GET("/assignments", assignmentHandler.List)

	return r
}
