// Package main runs the workshop registration HTTP server with graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/stm32-workshop/backend/config"
	"github.com/stm32-workshop/backend/internal/admin"
	"github.com/stm32-workshop/backend/internal/attendance"
	"github.com/stm32-workshop/backend/internal/auth"
	"github.com/stm32-workshop/backend/internal/emaillogs"
	"github.com/stm32-workshop/backend/internal/middleware"
	"github.com/stm32-workshop/backend/internal/notify"
	"github.com/stm32-workshop/backend/internal/registrations"
	"github.com/stm32-workshop/backend/pkg/database"
	"github.com/stm32-workshop/backend/pkg/queue"
	"github.com/stm32-workshop/backend/pkg/redis"
	"github.com/stm32-workshop/backend/pkg/response"
	"github.com/stm32-workshop/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	// Blob store: S3 when a region is configured, otherwise Postgres bytea.
	var blobs storage.Store = storage.NewPostgres(pool)
	if cfg.AWS.Region != "" {
		s3Store, err := storage.NewS3(ctx, storage.S3Config{
			Region:          cfg.AWS.Region,
			AccessKeyID:     cfg.AWS.AccessKeyID,
			SecretAccessKey: cfg.AWS.SecretAccessKey,
			Bucket:          cfg.AWS.UploadsBucket,
		}, logger)
		if err != nil {
			logger.Fatal("s3", zap.Error(err))
		}
		blobs = s3Store
	}

	// Email dispatch is fire-and-forget through the Redis queue; without
	// Redis the API still runs, notifications are just dropped (logged).
	var dispatcher notify.Dispatcher = notify.Nop{}
	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Warn("redis unavailable, notifications disabled", zap.Error(err))
	} else {
		defer rdb.Close()
		dispatcher = notify.NewQueueDispatcher(queue.NewQueue(rdb.Client, logger), logger)
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	authHandler := auth.NewHandler(cfg.Admin, jwtService, logger)

	regStore := registrations.NewRepository(pool)
	regService := registrations.NewService(regStore, blobs, dispatcher, logger)
	regHandler := registrations.NewHandler(regService, logger)

	attendanceService := attendance.NewService(regStore, logger)
	attendanceHandler := attendance.NewHandler(attendanceService, logger)

	emailLogsRepo := emaillogs.NewRepository(pool)
	adminHandler := admin.NewHandler(regService, blobs, emailLogsRepo, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	api := router.Group("/api")

	// Public: registration submission and advisory transaction check.
	api.POST("/registrations", regHandler.Submit)
	api.GET("/registrations/check-transaction/:txId", regHandler.CheckTransaction)

	// Admin console (JWT required past login).
	adminGroup := api.Group("/admin")
	adminGroup.POST("/login", authHandler.Login)
	protected := adminGroup.Group("")
	protected.Use(middleware.JWT(jwtService), middleware.RequireRole("admin"))
	{
		protected.GET("/registrations", adminHandler.List)
		protected.GET("/registrations/:id", adminHandler.GetByID)
		protected.POST("/registrations/:id/confirm", adminHandler.Confirm)
		protected.POST("/registrations/:id/reject", adminHandler.Reject)
		protected.GET("/registrations/:id/resume", adminHandler.ServeResume)
		protected.GET("/registrations/:id/payment-proof", adminHandler.ServePaymentProof)
		protected.GET("/registrations/:id/qrcode", adminHandler.ServeQRCode)
		protected.GET("/registrations/:id/emails", adminHandler.ListEmails)
		protected.GET("/stats", adminHandler.Stats)
	}

	// Attendance scanning (front-desk, admin credential required).
	scan := api.Group("/attendance")
	scan.Use(middleware.JWT(jwtService), middleware.RequireRole("admin"))
	scan.POST("/scan", attendanceHandler.Scan)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
