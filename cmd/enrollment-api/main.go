package main

import (
	"context"
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

	_ "github.com/noah-isme/enrollment-api/api/swagger"
	"github.com/noah-isme/enrollment-api/internal/client"
	"github.com/noah-isme/enrollment-api/internal/handler"
	"github.com/noah-isme/enrollment-api/internal/middleware"
	"github.com/noah-isme/enrollment-api/internal/models"
	"github.com/noah-isme/enrollment-api/internal/repository"
	"github.com/noah-isme/enrollment-api/internal/service"
	"github.com/noah-isme/enrollment-api/pkg/cache"
	"github.com/noah-isme/enrollment-api/pkg/config"
	"github.com/noah-isme/enrollment-api/pkg/database"
	"github.com/noah-isme/enrollment-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/enrollment-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/enrollment-api/pkg/middleware/requestid"
)

// @title Enrollment API
// @version 1.0.0
// @description Student-course enrollment service
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
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	metricsSvc := service.NewMetricsService()

	var cacheSvc *service.CacheService
	if cfg.Stats.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			// Aggregates are recomputable; a missing cache only costs latency.
			logr.Sugar().Warnw("redis unavailable, stats cache disabled", "error", err)
		} else {
			defer redisClient.Close()
			cacheRepo := repository.NewCacheRepository(redisClient, logr)
			cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Stats.CacheTTL, logr, true)
		}
	}
	if cacheSvc == nil {
		cacheSvc = service.NewCacheService(nil, metricsSvc, cfg.Stats.CacheTTL, logr, false)
	}

	enrollmentRepo := repository.NewEnrollmentRepository(db).WithObserver(metricsSvc)

	authClient := client.NewAuthClient(cfg.External, logr, metricsSvc)
	courseClient := client.NewCourseClient(cfg.External, logr, metricsSvc)

	syncSvc := service.NewSyncService(enrollmentRepo, courseClient, cfg.Sync, logr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	syncSvc.Start(ctx)
	defer syncSvc.Stop()

	validate := validator.New()
	tokenSvc := service.NewTokenService(cfg.JWT)
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, authClient, courseClient, syncSvc, validate, logr)
	exportSvc := service.NewExportService(enrollmentSvc, logr)

	var statsSvc *service.StatsService
	if cfg.Stats.Enabled {
		statsSvc = service.NewStatsService(enrollmentRepo, courseClient, cacheSvc, cfg.Stats.CacheTTL, logr)
		enrollmentSvc.WithStatsInvalidator(statsSvc)
	}

	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentSvc)
	courseHandler := handler.NewCourseHandler(enrollmentSvc, exportSvc, statsSvc)
	studentHandler := handler.NewStudentHandler(enrollmentSvc)
	debugHandler := handler.NewDebugHandler(enrollmentSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(tokenSvc))

	// No role gate here; the workflow checks identity before role and its
	// Forbidden names the caller's actual role.
	api.POST("/enroll", enrollmentHandler.Enroll)

	enrollments := api.Group("/enrollments")
	{
		enrollments.GET("", middleware.RequireRoles(models.RoleAdmin), enrollmentHandler.List)
		enrollments.GET("/:id", enrollmentHandler.Get)
		enrollments.PUT("/:id", middleware.RequireRoles(models.RoleAdmin), enrollmentHandler.Update)
		enrollments.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin), enrollmentHandler.Delete)
		enrollments.POST("/:id/withdraw", enrollmentHandler.Withdraw)
		enrollments.POST("/:id/reactivate", enrollmentHandler.Reactivate)
		enrollments.POST("/:id/complete", middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher), enrollmentHandler.Complete)
	}

	courses := api.Group("/courses")
	{
		courses.GET("/:courseId/students", middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher), courseHandler.Roster)
		courses.GET("/:courseId/students/export", middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher), courseHandler.ExportRoster)
		if statsSvc != nil {
			courses.GET("/:courseId/stats", middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher), courseHandler.Stats)
		}
	}

	api.GET("/students/:studentId/courses",
		middleware.RBAC(string(models.RoleAdmin), string(models.RoleTeacher), "SELF"),
		studentHandler.Courses)

	if cfg.Debug.Enabled {
		debug := api.Group("/enroll/debug", middleware.RequireRoles(models.RoleAdmin))
		debug.GET("/auth", debugHandler.Auth)
		debug.GET("/external/:userId", debugHandler.External)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
