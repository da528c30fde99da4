package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/yungbote/nutritrack-backend/internal/clients/redis"
	"github.com/yungbote/nutritrack-backend/internal/db"
	"github.com/yungbote/nutritrack-backend/internal/handlers"
	"github.com/yungbote/nutritrack-backend/internal/logger"
	"github.com/yungbote/nutritrack-backend/internal/middleware"
	"github.com/yungbote/nutritrack-backend/internal/observability"
	"github.com/yungbote/nutritrack-backend/internal/repos"
	"github.com/yungbote/nutritrack-backend/internal/server"
	"github.com/yungbote/nutritrack-backend/internal/services"
	"github.com/yungbote/nutritrack-backend/internal/sse"
	"github.com/yungbote/nutritrack-backend/internal/utils"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Env
	log.Info("Loading environment variables from main...")
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	accessTokenTTL := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)
	refreshTokenTTL := utils.GetEnvAsInt("REFRESH_TOKEN_TTL", 86400, log)

	// Tracing
	shutdownOTel := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: "nutritrack-backend",
		Environment: utils.GetEnv("APP_ENV", "development", log),
		Version:     utils.GetEnv("APP_VERSION", "dev", log),
	})
	if shutdownOTel != nil {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdownOTel(ctx)
		}()
	}

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Error("Postgres auto migration failed", "error", err)
		os.Exit(1)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up Repos from main...")
	userRepo := repos.NewUserRepo(thePG, log)
	userTokenRepo := repos.NewUserTokenRepo(thePG, log)
	reportRepo := repos.NewReportRepo(thePG, log)

	// SSE
	log.Info("Setting up SSE hub now...")
	sseHub := sse.NewSSEHub(log)

	var sseBus redis.SSEBus
	if os.Getenv("REDIS_ADDR") != "" {
		sseBus, err = redis.NewSSEBus(log)
		if err != nil {
			log.Warn("Could not init redis SSE bus; progress events stay node-local", "error", err)
			sseBus = nil
		} else {
			if err := sseBus.StartForwarder(context.Background(), func(m sse.SSEMessage) {
				sseHub.Broadcast(m)
			}); err != nil {
				log.Warn("Could not start redis SSE forwarder", "error", err)
			}
			defer sseBus.Close()
		}
	}

	// Services
	log.Info("Setting up Services from main...")
	bucketService, err := services.NewBucketService(log)
	if err != nil {
		log.Error("Could not init BucketService", "error", err)
		os.Exit(1)
	}
	visionService, err := services.NewVisionService(log)
	if err != nil {
		log.Error("Could not init VisionService", "error", err)
		os.Exit(1)
	}
	defer visionService.Close()
	avatarService, err := services.NewAvatarService(log, bucketService)
	if err != nil {
		log.Warn("Could not init AvatarService; users register without avatars", "error", err)
		avatarService = nil
	}
	authService := services.NewAuthService(
		thePG,
		log,
		userRepo,
		avatarService,
		userTokenRepo,
		jwtSecretKey,
		time.Duration(accessTokenTTL)*time.Second,
		time.Duration(refreshTokenTTL)*time.Second,
	)
	userService := services.NewUserService(log, userRepo)
	reportService := services.NewReportService(log, bucketService, visionService, userRepo, reportRepo, sseHub, sseBus)
	catalogService, err := services.NewCatalogService(log)
	if err != nil {
		log.Error("Could not init CatalogService", "error", err)
		os.Exit(1)
	}

	// Handlers
	log.Info("Setting up handlers from main...")
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	reportHandler := handlers.NewReportHandler(reportService)
	catalogHandler := handlers.NewCatalogHandler(catalogService)
	sseHandler := handlers.NewSSEHandler(log, sseHub)

	// Middleware
	log.Info("Setting up middleware from main...")
	authMiddleware := middleware.NewAuthMiddleware(log, authService)

	// Router
	log.Info("Setting up router from main...")
	router := server.NewRouter(server.RouterConfig{
		AuthHandler:    authHandler,
		AuthMiddleware: authMiddleware,
		UserHandler:    userHandler,
		ReportHandler:  reportHandler,
		CatalogHandler: catalogHandler,
		SSEHandler:     sseHandler,
	})

	port := utils.GetEnv("PORT", "8080", log)
	fmt.Printf("Server listening on :%s\n", port)
	if err := router.Run(":" + port); err != nil {
		log.Warn("Server failed", "error", err)
	}
}
