package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/keyon-access/parent-api/api/swagger"
	"github.com/keyon-access/parent-api/internal/handler"
	"github.com/keyon-access/parent-api/internal/middleware"
	"github.com/keyon-access/parent-api/internal/models"
	"github.com/keyon-access/parent-api/internal/repository"
	"github.com/keyon-access/parent-api/internal/service"
	"github.com/keyon-access/parent-api/pkg/cache"
	"github.com/keyon-access/parent-api/pkg/config"
	"github.com/keyon-access/parent-api/pkg/database"
	"github.com/keyon-access/parent-api/pkg/logger"
	corsmiddleware "github.com/keyon-access/parent-api/pkg/middleware/cors"
	reqidmiddleware "github.com/keyon-access/parent-api/pkg/middleware/requestid"
	"github.com/keyon-access/parent-api/pkg/storage"
)

// @title Keyon Parent API
// @version 0.1.0
// @description Parent-facing companion API for the Keyon school access platform
// @BasePath /api/v1
// @schemes http

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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to database", "error", err)
	}
	defer db.Close()

	metricsService := service.NewMetricsService()

	var cacheService *service.CacheService
	if cfg.Attendance.CacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		} else {
			defer redisClient.Close()
			cacheRepo := repository.NewCacheRepository(redisClient, logr)
			cacheService = service.NewCacheService(cacheRepo, metricsService, cfg.Attendance.CacheTTL, logr, true)
		}
	}

	userRepo := repository.NewUserRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	eventRepo := repository.NewAttendanceEventRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	permitRepo := repository.NewPermitRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	pushSubRepo := repository.NewPushSubscriptionRepository(db)

	validate := validator.New()

	authService := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})
	studentService := service.NewStudentService(studentRepo, logr)
	attendanceService := service.NewAttendanceService(eventRepo, studentRepo, cacheService, metricsService, logr, service.AttendanceServiceConfig{
		LateCutoff:       cfg.Attendance.LateCutoff,
		TimeWindowDays:   cfg.Attendance.TimeWindowDays,
		CohortMaxWorkers: cfg.Attendance.CohortMaxWorkers,
		CacheTTL:         cfg.Attendance.CacheTTL,
	}, nil)
	var reportStore *storage.ReportStore
	var linkSigner *storage.LinkSigner
	if store, err := storage.NewReportStore(cfg.Reports.Dir); err != nil {
		logr.Sugar().Warnw("report archive disabled", "error", err)
	} else {
		reportStore = store
		linkSigner = storage.NewLinkSigner(cfg.Reports.LinkSecret, cfg.Reports.LinkTTL)
		go sweepReports(store, cfg.Reports.Retention, logr)
	}
	reportService := service.NewReportService(attendanceService, studentRepo, reportStore, linkSigner, logr, nil)
	scheduleService := service.NewScheduleService(scheduleRepo, logr, nil)
	permitService := service.NewPermitService(permitRepo, logr, nil)

	pushService := service.NewPushService(pushSubRepo, service.NewWebPushSender(), metricsService, logr, service.PushServiceConfig{
		Enabled:         cfg.Push.Enabled,
		VAPIDPublicKey:  cfg.Push.VAPIDPublicKey,
		VAPIDPrivateKey: cfg.Push.VAPIDPrivateKey,
		Subscriber:      cfg.Push.Subscriber,
		TTL:             cfg.Push.TTL,
		Workers:         cfg.Push.Workers,
		QueueSize:       cfg.Push.QueueSize,
		MaxRetries:      cfg.Push.MaxRetries,
		RetryDelay:      cfg.Push.RetryDelay,
	})
	pushService.Start(context.Background())
	defer pushService.Stop()

	notificationService := service.NewNotificationService(notificationRepo, studentRepo, pushService, logr, service.NotificationServiceConfig{
		UnreadLimit:   cfg.Notifications.UnreadLimit,
		FanoutWorkers: cfg.Notifications.FanoutWorkers,
	}, nil)

	authHandler := handler.NewAuthHandler(authService)
	studentHandler := handler.NewStudentHandler(studentService)
	attendanceHandler := handler.NewAttendanceHandler(studentService, attendanceService, reportService)
	scheduleHandler := handler.NewScheduleHandler(studentService, scheduleService)
	permitHandler := handler.NewPermitHandler(studentService, permitService)
	notificationHandler := handler.NewNotificationHandler(notificationService)
	pushHandler := handler.NewPushHandler(pushService)
	metricsHandler := handler.NewMetricsHandler(metricsService)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsService))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)
	api.GET("/push/vapid-key", pushHandler.VAPIDKey)
	api.GET("/reports/download", attendanceHandler.Download)

	authed := api.Group("")
	authed.Use(middleware.JWT(authService))
	{
		authed.GET("/auth/me", authHandler.Me)

		authed.GET("/students", studentHandler.ListMine)
		authed.GET("/students/:id", studentHandler.Get)
		authed.GET("/students/:id/attendance/monthly", attendanceHandler.Monthly)
		authed.GET("/students/:id/attendance/time-on-campus", attendanceHandler.TimeOnCampus)
		authed.GET("/students/:id/attendance/comparison", attendanceHandler.Comparison)
		authed.GET("/students/:id/attendance/report", attendanceHandler.Report)
		authed.GET("/students/:id/attendance/report/link", attendanceHandler.ReportLink)
		authed.GET("/students/:id/schedule", scheduleHandler.Weekly)
		authed.GET("/students/:id/schedule/today", scheduleHandler.Today)
		authed.GET("/students/:id/permits/bathroom", permitHandler.Bathroom)
		authed.GET("/students/:id/permits/special", permitHandler.Special)

		authed.GET("/notifications", notificationHandler.ListUnread)
		authed.POST("/notifications/:id/read", notificationHandler.MarkRead)
		authed.POST("/notifications/read-all", notificationHandler.MarkAllRead)
		authed.POST("/notifications", middleware.RequireRoles(models.RoleStaff, models.RoleAdmin), notificationHandler.Notify)

		authed.PUT("/push/subscriptions", pushHandler.Subscribe)
		authed.GET("/push/subscriptions", pushHandler.List)
		authed.DELETE("/push/subscriptions", pushHandler.Unsubscribe)
	}

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

// sweepReports prunes archived reports past their retention once an hour.
func sweepReports(store *storage.ReportStore, retention time.Duration, logr *zap.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for range ticker.C {
		deleted, err := store.Sweep(retention)
		if err != nil {
			logr.Sugar().Warnw("report sweep failed", "error", err)
			continue
		}
		if len(deleted) > 0 {
			logr.Sugar().Infow("report sweep completed", "deleted", len(deleted))
		}
	}
}
