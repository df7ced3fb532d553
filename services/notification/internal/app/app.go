package internal

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"marketplace/pkg/config"
	"marketplace/pkg/jwt"
	"marketplace/pkg/logger"
	"marketplace/pkg/middleware"
	"marketplace/pkg/queue"
	"marketplace/pkg/s3"
	notificationHTTP "marketplace/services/notification/internal/controller/http"
	"marketplace/services/notification/internal/merger"
	"marketplace/services/notification/internal/repo/persistent"
	"marketplace/services/notification/internal/usecase"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	_ "marketplace/services/notification/docs" // Swagger docs
)

// NewRouter builds the HTTP surface of the notification service.
func NewRouter(cfg *config.Config, handler *notificationHTTP.NotificationHandler, jwtService *jwt.Service, redisClient *redis.Client) *gin.Engine {
	r := gin.Default()

	// CORS middleware
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://127.0.0.1:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept"},
		ExposeHeaders:    []string{"Content-Length", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Swagger documentation
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api/v1")
	// Protected routes - require authentication
	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware(jwtService))
	protected.Use(middleware.RateLimitMiddleware(redisClient, cfg.RateLimitRequests, cfg.RateLimitWindow))
	{
		protected.GET("/notifications", handler.GetNotifications)
		protected.POST("/notifications/clear-all", handler.ClearAll)
		protected.DELETE("/notifications/cleared", handler.DeleteAllCleared)

		items := protected.Group("/notifications/items/:source/:id")
		items.POST("/clear", handler.ClearNotification)
		items.POST("/restore", handler.RestoreNotification)
		items.DELETE("", handler.DeleteNotification)
	}
	// WebSocket endpoint - handles authentication internally via query parameter
	api.GET("/notifications/ws", handler.HandleWebSocket)
	// Internal routes - no auth required (for service-to-service calls)
	{
		api.POST("/notifications/send", handler.SendLegacy)
		api.POST("/notifications/create", handler.CreateNotification)
		api.GET("/notifications/queue", handler.GetQueueStatus)
	}

	return r
}

func Run(cfg *config.Config, log *logger.Logger, db *gorm.DB, redisClient *redis.Client, queueClient *queue.Client) {
	jwtService := jwt.NewService(cfg.JWTSecret)

	// Initialize Repositories
	legacyRepo := persistent.NewLegacyRepository(redisClient)
	structuredRepo := persistent.NewStructuredRepository(db)

	// Purged notifications are archived only when a bucket is configured
	var archiver usecase.Archiver
	if cfg.S3BucketName != "" {
		s3Client, err := s3.NewClient(cfg)
		if err != nil {
			log.Warn("S3 archive disabled: %v", err)
		} else {
			archiver = s3Client
		}
	}

	var inspector usecase.QueueInspector
	if queueClient != nil {
		inspector = queueClient
	}

	// Initialize UseCase
	notificationUseCase := usecase.NewNotificationUseCase(
		legacyRepo,
		structuredRepo,
		merger.New(cfg.NotificationOwnerRole),
		redisClient,
		inspector,
		archiver,
		log,
	)

	// Initialize HTTP handlers
	notificationHandler := notificationHTTP.NewNotificationHandler(notificationUseCase, redisClient, log, jwtService)

	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: NewRouter(cfg, notificationHandler, jwtService, redisClient),
	}

	// Start processing notification queue in a goroutine
	if queueClient != nil {
		go func() {
			log.Info("Starting notification queue processor...")
			err := queueClient.ConsumeNotificationTasks(func(task map[string]interface{}) error {
				log.Info("[NOTIFICATION HANDLER] Received task from RabbitMQ queue: type=%v", task["type"])
				return notificationUseCase.HandleTask(task)
			})
			if err != nil {
				log.Error("Error starting notification queue consumer: %v", err)
			}
		}()
	}

	// Start server in a goroutine
	go func() {
		log.Info("Notification service starting on port %s", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Failed to start server: %v", err)
			panic(err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down notification service...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	if queueClient != nil {
		if err := queueClient.Close(); err != nil {
			log.Error("Error closing RabbitMQ: %v", err)
		}
	}

	if err := redisClient.Close(); err != nil {
		log.Error("Error closing Redis: %v", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}

	log.Info("Notification service exited")
}
