package main

import (
	"marketplace/pkg/cache"
	"marketplace/pkg/config"
	"marketplace/pkg/database"
	"marketplace/pkg/logger"
	"marketplace/pkg/queue"
	notificationApp "marketplace/services/notification/internal/app"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.ReleaseMode)
}

// @title        Marketplace Notification Service API
// @version      1.0
// @description  Merged seller notifications from the legacy and structured stores.
// @BasePath     /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New()
	defer log.Sync()

	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		log.Error("Failed to connect to database: %v", err)
		panic(err)
	}

	redisClient, err := cache.NewRedisClient(cfg)
	if err != nil {
		log.Error("Failed to connect to redis: %v", err)
		panic(err)
	}

	// The HTTP surface keeps working without RabbitMQ; tasks are simply not consumed.
	queueClient, err := queue.NewRabbitMQClient(cfg, log)
	if err != nil {
		log.Warn("RabbitMQ unavailable, queue consumer disabled: %v", err)
		queueClient = nil
	}

	notificationApp.Run(cfg, log, db, redisClient, queueClient)
}
