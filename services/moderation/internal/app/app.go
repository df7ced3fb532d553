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
	"marketplace/pkg/models"
	"marketplace/pkg/queue"
	moderationHTTP "marketplace/services/moderation/internal/controller/http"
	"marketplace/services/moderation/internal/repo/persistent"
	"marketplace/services/moderation/internal/usecase"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	_ "marketplace/services/moderation/docs" // Swagger docs
)

func NewRouter(cfg *config.Config, handler *moderationHTTP.BanHandler, jwtService *jwt.Service, redisClient *redis.Client) *gin.Engine {
	r := gin.Default()

	// CORS middleware
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://127.0.0.1:3000"},
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
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
	protected := api.Group("/bans")
	protected.Use(middleware.AuthMiddleware(jwtService))
	protected.Use(middleware.RateLimitMiddleware(redisClient, cfg.RateLimitRequests, cfg.RateLimitWindow))
	{
		protected.GET("/status", handler.GetStatus)
	}

	moderators := protected.Group("")
	moderators.Use(middleware.RequireRole(string(models.RoleModerator)))
	{
		moderators.POST("", handler.CreateBan)
		moderators.GET("/:user_id", handler.GetHistory)
		moderators.DELETE("/:user_id", handler.LiftBan)
	}

	return r
}

func Run(cfg *config.Config, log *logger.Logger, db *gorm.DB, redisClient *redis.Client, queueClient *queue.Client) {
	jwtService := jwt.NewService(cfg.JWTSecret)

	// Initialize Repositories
	banRepo := persistent.NewBanRepository(db)
	statusCache := persistent.NewStatusCache(redisClient)

	var publisher usecase.TaskPublisher
	if queueClient != nil {
		publisher = queueClient
	}

	// Initialize UseCase
	banUseCase := usecase.NewBanUseCase(banRepo, statusCache, publisher, log)

	// Initialize HTTP handlers
	banHandler := moderationHTTP.NewBanHandler(banUseCase, log)

	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: NewRouter(cfg, banHandler, jwtService, redisClient),
	}

	// Start server in a goroutine
	go func() {
		log.Info("Moderation service starting on port %s", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Failed to start server: %v", err)
			panic(err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down moderation service...")

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

	log.Info("Moderation service exited")
}
