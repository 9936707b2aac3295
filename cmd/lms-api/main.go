package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-api/internal/middleware"
	"github.com/noah-isme/lms-api/internal/repository"
	"github.com/noah-isme/lms-api/internal/server"
	"github.com/noah-isme/lms-api/internal/service"
	"github.com/noah-isme/lms-api/pkg/config"
	"github.com/noah-isme/lms-api/pkg/logger"
	"github.com/noah-isme/lms-api/pkg/store"
)

// @title LMS API
// @version 1.0.0
// @description Learning management backend: users, courses, enrollments and grades
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}

	if err := run(cfg, logr); err != nil {
		logr.Error("lms api stopped", zap.Error(err))
		_ = logr.Sync()
		os.Exit(1)
	}
	_ = logr.Sync()
}

// run wires the service and blocks until the server stops. Deferred cleanup always runs
// before it returns.
func run(cfg *config.Config, logr *zap.Logger) error {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, err := store.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open record store %q: %w", cfg.Store.Driver, err)
	}

	var metrics *service.MetricsService
	opts := store.Options{KeyPrefix: cfg.Store.KeyPrefix, Logger: logr.Named("store")}
	if cfg.Metrics.Enabled {
		metrics = service.NewMetricsService()
		opts.Observer = metrics
	}
	if cfg.Store.SeedDir != "" {
		opts.Seeds = os.DirFS(cfg.Store.SeedDir)
	}
	records := store.New(backend, opts)
	defer func() {
		if err := records.Close(); err != nil {
			logr.Warn("failed to close record store", zap.Error(err))
		}
	}()

	userRepo := repository.NewUserRepository(records, logr)
	sessionRepo := repository.NewSessionRepository(records, logr)
	courseRepo := repository.NewCourseRepository(records, logr)
	enrollmentRepo := repository.NewEnrollmentRepository(records, logr)
	assignmentRepo := repository.NewAssignmentRepository(records, logr)

	users := service.NewUserService(userRepo, sessionRepo, service.NewValidator(), logr, service.SessionConfig{
		Secret: cfg.Session.Secret,
		TTL:    cfg.Session.TTL,
		Issuer: cfg.Session.Issuer,
	})
	courses := service.NewCourseService(courseRepo, logr, service.CourseConfig{EnforceOwnership: cfg.Courses.EnforceOwnership})
	enrollments := service.NewEnrollmentService(enrollmentRepo, courses, courseRepo, records, logr)
	grades := service.NewGradeService(enrollmentRepo, courses, logr)
	assignments := service.NewAssignmentService(assignmentRepo, logr)

	router := server.NewRouter(server.Deps{
		Config:      cfg,
		Logger:      logr,
		Metrics:     metrics,
		Store:       records,
		Cookies:     middleware.NewCookieJar(cfg.Session, logr),
		Users:       users,
		Courses:     courses,
		Enrollments: enrollments,
		Grades:      grades,
		Assignments: assignments,
	})

	logr.Info("lms api configured",
		zap.String("env", cfg.Env),
		zap.String("store_driver", cfg.Store.Driver),
		zap.Bool("course_ownership", cfg.Courses.EnforceOwnership),
	)
	if err := server.Run(ctx, router, cfg.Port, logr); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}
