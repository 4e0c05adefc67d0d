package main

import (
	"context"
	"log"

	"github.com/redis/go-redis/v9"

	"github.com/peochain/peochain-api/config"
	"github.com/peochain/peochain-api/middleware"
	"github.com/peochain/peochain-api/realtime"
	"github.com/peochain/peochain-api/routes"
	"github.com/peochain/peochain-api/utils"
)

func main() {
	// Initialize logger
	if err := utils.InitLogger(); err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}

	// Load environment variables
	cfg, err := config.LoadConfig()
	if err != nil {
		utils.LogError("Error loading config: %v", err)
		log.Fatal("Error loading config:", err)
	}

	// Initialize database
	config.InitDB()

	// Realtime hub plus Redis fan-out and shared rate-limit store when
	// REDIS_URL is configured
	hub := realtime.NewHub()
	go hub.Run()

	var broadcaster realtime.Broadcaster = hub
	var limiterStore middleware.Store = middleware.NewMemoryStore()

	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			utils.LogError("Invalid REDIS_URL: %v", err)
			log.Fatal("Invalid REDIS_URL:", err)
		}
		redisClient := redis.NewClient(opts)
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			utils.LogError("Failed to connect to redis: %v", err)
			log.Fatal("Failed to connect to redis:", err)
		}
		broadcaster = realtime.NewRedisBroadcaster(redisClient, realtime.DefaultChannel, hub)
		limiterStore = middleware.NewRedisStore(redisClient)
		utils.LogInfo("Redis connected, realtime events fan out across instances")
	}

	// Set up router
	router := routes.SetupRouter(cfg, config.DB, hub, broadcaster, limiterStore)

	utils.LogInfo("Server starting on port %s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		utils.LogError("Error starting server: %v", err)
		log.Fatal("Error starting server:", err)
	}
}
