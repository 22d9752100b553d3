package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/sma-records-api/api/swagger"
	"github.com/noah-isme/sma-records-api/internal/handler"
	"github.com/noah-isme/sma-records-api/internal/middleware"
	"github.com/noah-isme/sma-records-api/internal/models"
	"github.com/noah-isme/sma-records-api/internal/repository"
	"github.com/noah-isme/sma-records-api/internal/service"
	"github.com/noah-isme/sma-records-api/pkg/cache"
	"github.com/noah-isme/sma-records-api/pkg/config"
	"github.com/noah-isme/sma-records-api/pkg/database"
	"github.com/noah-isme/sma-records-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-records-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-records-api/pkg/middleware/requestid"
	"github.com/noah-isme/sma-records-api/pkg/storage"
)

// @title SMA Records API
// @version 1.0.0
// @description Academic records aggregation and PDF document composition
// @BasePath /
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
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect database", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, logo cache disabled", "error", err)
		redisClient = nil
	}
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck

	validate := validator.New()
	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Documents.LogoCacheTTL, logr, redisClient != nil)
	loc := cfg.Documents.Location()

	schoolRepo := repository.NewSchoolRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	academicRepo := repository.NewAcademicRepository(db)
	gradeRepo := repository.NewGradeRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	documentRepo := repository.NewDocumentRepository(db)

	logoSvc := service.NewLogoService(&http.Client{}, cacheSvc, metricsSvc, service.LogoOptions{
		Timeout:  cfg.Documents.LogoTimeout,
		MaxBytes: cfg.Documents.LogoMaxBytes,
		CacheTTL: cfg.Documents.LogoCacheTTL,
	}, logr)

	var archiveSvc *service.ArchiveService
	if cfg.Documents.ArchiveEnabled {
		files, err := storage.NewLocalStorage(cfg.Documents.ArchiveDir)
		if err != nil {
			logr.Sugar().Fatalw("failed to prepare document archive", "dir", cfg.Documents.ArchiveDir, "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.Documents.ArchiveURLSecret, cfg.Documents.ArchiveURLTTL)
		archiveSvc = service.NewArchiveService(files, signer, cfg.APIPrefix)
	}

	variableSvc := service.NewVariableService(studentRepo, enrollmentRepo, validate, loc)
	documentSvc := service.NewDocumentService(service.DocumentSources{
		Schools:     schoolRepo,
		Students:    studentRepo,
		Enrollments: enrollmentRepo,
		Academics:   academicRepo,
		Grades:      gradeRepo,
		Attendance:  attendanceRepo,
		Documents:   documentRepo,
		Logos:       logoSvc,
	}, variableSvc, archiveSvc, metricsSvc, validate, loc, logr)
	gradeSvc := service.NewGradeService(gradeRepo, enrollmentRepo, validate, logr)
	tokenSvc := service.NewTokenService(cfg.JWT.Secret)

	documentHandler := handler.NewDocumentHandler(documentSvc, variableSvc, cfg.Documents.RenderTimeout, logr)
	archiveHandler := handler.NewArchiveHandler(archiveSvc, logr)
	gradeHandler := handler.NewGradeHandler(gradeSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, map[string]handler.ReadinessCheck{
		"postgres": db.PingContext,
		"redis":    cacheRepo.Ping,
	}, logr)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	if cfg.Metrics.Enabled {
		r.Use(middleware.Metrics(metricsSvc))
		r.GET("/metrics", metricsHandler.Prometheus)
	}

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(tokenSvc))

	documents := api.Group("/documents")
	documents.Use(middleware.RequireRoles(models.RoleAdmin, models.RoleSecretary))
	documents.GET("/:id/pdf", documentHandler.Render)
	documents.POST("/preview", documentHandler.Preview)
	documents.POST("/variables", documentHandler.ResolveVariables)
	documents.GET("/archive/:token", archiveHandler.Download)

	api.PUT("/grades", middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher), gradeHandler.Record)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
	logr.Sugar().Infow("server stopped")
}
