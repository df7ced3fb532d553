package main

import (
	"marketplace/pkg/cache"
	"marketplace/pkg/config"
	"marketplace/pkg/database"
	"marketplace/pkg/logger"
	"marketplace/pkg/queue"
	moderationApp "marketplace/services/moderation/internal/app"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.ReleaseMode)
}

// @title        Marketplace Moderation Service API
// @version      1.0
// @description  Account suspensions and the ban status endpoint polled by clients.
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

	queueClient, err := queue.NewRabbitMQClient(cfg, log)
	if err != nil {
		log.Warn("RabbitMQ unavailable, ban notices will not be sent: %v", err)
		queueClient = nil
	}

	moderationApp.Run(cfg, log, db, redisClient, queueClient)
}
