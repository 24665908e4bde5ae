package main

import (
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	configs "github.com/tedlabs/identity/config"
	"github.com/tedlabs/identity/internal/constants"
	"github.com/tedlabs/identity/internal/handler"
	"github.com/tedlabs/identity/internal/middleware"
	"github.com/tedlabs/identity/internal/repository"
	"github.com/tedlabs/identity/internal/router"
	"github.com/tedlabs/identity/internal/service"
	"github.com/tedlabs/identity/pkg/database"
	"github.com/tedlabs/identity/pkg/logger"
	"github.com/tedlabs/identity/pkg/redis"
)

func main() {
	config, err := configs.LoadConfig()
	if err != nil {
		panic("Failed to load config: " + err.Error())
	}

	if err := logger.InitLogger(config.App.Environment); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer logger.Sync()

	logger.GetLogger().Info("Application starting",
		zap.String("app_name", config.App.Name),
		zap.String("environment", config.App.Environment),
		zap.String("version", constants.AppVersion),
	)

	db, err := database.NewPostgresDB(database.Config{
		Host:     config.Database.Host,
		Port:     config.Database.Port,
		User:     config.Database.User,
		Password: config.Database.Password,
		Database: config.Database.Name,
		SSLMode:  config.Database.SSLMode,
	})
	if err != nil {
		logger.GetLogger().Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.CloseDB(db)

	if err := database.AutoMigrate(db); err != nil {
		logger.GetLogger().Fatal("Failed to run database migrations", zap.Error(err))
	}
	logger.GetLogger().Info("Database migrated successfully")

	if err := database.Seed(db); err != nil {
		// Seed data may already exist.
		logger.GetLogger().Error("Failed to seed database", zap.Error(err))
	}

	redisClient, err := redis.NewClient(redis.Config{
		Host:         config.Redis.Host,
		Port:         config.Redis.Port,
		Password:     config.Redis.Password,
		Database:     config.Redis.Database,
		PoolSize:     config.Redis.PoolSize,
		MinIdleConns: config.Redis.MinIdleConns,
		DialTimeout:  config.Redis.DialTimeout,
		ReadTimeout:  config.Redis.ReadTimeout,
		WriteTimeout: config.Redis.WriteTimeout,
		Enabled:      config.Redis.Enabled,
	})
	if err != nil {
		logger.GetLogger().Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()

	// Repositories
	userRepo := repository.NewUserRepository(db)
	socialRepo := repository.NewSocialAccountRepository(db)
	tokenRepo := repository.NewRefreshTokenRepository(db)

	// Services
	jwtService, err := service.NewJWTService(config.JWT.Secret, config.JWT.AccessTTL, config.JWT.RefreshTTL)
	if err != nil {
		logger.GetLogger().Fatal("Invalid JWT configuration", zap.Error(err))
	}

	tokenService := service.NewTokenService(db, jwtService, tokenRepo, userRepo)
	provisioningService := service.NewProvisioningService(db, userRepo, socialRepo)
	authService := service.NewAuthService(userRepo, tokenService, provisioningService)
	cacheService := service.NewCacheService(redisClient)
	userService := service.NewUserService(userRepo, cacheService)

	// Handlers
	authHandler := handler.NewAuthHandler(authService, userService, config.OAuth.FrontendBaseURL)
	userHandler := handler.NewUserHandler(userService)
	healthHandler := handler.NewHealthHandler(db, redisClient)

	jwtMiddleware := middleware.NewJWTMiddleware(jwtService, userRepo)

	r := router.NewRouter(
		authHandler,
		userHandler,
		healthHandler,
		jwtMiddleware,
		config,
	).SetupRoutes()

	go func() {
		logger.GetLogger().Info("Server starting",
			zap.String("port", config.App.Port),
		)
		if err := r.Run(":" + config.App.Port); err != nil {
			logger.GetLogger().Fatal("Failed to start server",
				zap.Error(err),
				zap.String("port", config.App.Port),
			)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.GetLogger().Info("Shutting down server...")
}
