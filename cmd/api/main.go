package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/gradlink-api/internal/config"
	"github.com/noah-isme/gradlink-api/internal/database"
	"github.com/noah-isme/gradlink-api/internal/handler"
	"github.com/noah-isme/gradlink-api/internal/middleware"
	"github.com/noah-isme/gradlink-api/internal/models"
	"github.com/noah-isme/gradlink-api/internal/repository"
	"github.com/noah-isme/gradlink-api/internal/router"
	"github.com/noah-isme/gradlink-api/internal/service"
	cloud "github.com/noah-isme/gradlink-api/pkg/cloudinary"
	"github.com/noah-isme/gradlink-api/pkg/oauth"
	"github.com/noah-isme/gradlink-api/pkg/storage"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "gradlink-api").Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}

	if err := db.AutoMigrate(&models.User{}, &models.Project{}, &models.Interaction{}, &models.Message{}, &models.UploadRecord{}); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate database")
	}

	probes := []handler.HealthProbe{{Name: "database", Check: func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}}}

	// Redis and NATS are optional; without them stats are uncached and the relay stays node-local.
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisClient.Close()
		probes = append(probes, handler.HealthProbe{Name: "redis", Check: func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}})
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to nats")
		}
		defer natsConn.Drain()
		probes = append(probes, handler.HealthProbe{Name: "nats", Check: func(context.Context) error {
			if !natsConn.IsConnected() {
				return errors.New("nats disconnected")
			}
			return nil
		}})
	}

	fileStorage, serveLocal, err := newFileStorage(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure upload storage")
	}

	var identityProvider service.IdentityProvider
	if cfg.GoogleEnabled() {
		google, err := oauth.NewGoogle(oauth.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
		}, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to configure google sign-in")
		}
		identityProvider = google
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	userRepo := repository.NewUserRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	interactionRepo := repository.NewInteractionRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	uploadRepo := repository.NewUploadRepository(db)
	analyticsRepo := repository.NewAdminAnalyticsRepository(db)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	relay := service.NewMessageRelay(redisClient, natsConn, cfg.RealtimeChannel, logger)
	relay.Start(ctx)

	authService := service.NewAuthService(userRepo, identityProvider, redisClient, validate, service.AuthConfig{
		Secret:     cfg.JWTSecret,
		TTL:        cfg.JWTTTL,
		BcryptCost: bcrypt.DefaultCost,
	}, logger)
	uploadService := service.NewUploadService(fileStorage, uploadRepo, cfg.UploadMaxMB, logger)
	userService := service.NewUserService(userRepo, uploadService, validate, logger)
	projectService := service.NewProjectService(projectRepo, validate, logger)
	interactionService := service.NewInteractionService(interactionRepo, projectRepo, validate, logger)
	messageService := service.NewMessageService(messageRepo, userRepo, projectRepo, relay, validate, logger)
	analyticsService := service.NewAdminAnalyticsService(analyticsRepo, redisClient, cfg.StatsCacheTTL, logger)
	moderationService := service.NewAdminModerationService(projectRepo, userRepo, analyticsService, validate, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    (cfg.UploadMaxMB + 1) * 1024 * 1024,
	})

	middleware.Register(app, middleware.Config{
		Logger:         &logger,
		AllowedOrigins: cfg.AllowedOrigins,
		AccessLog:      cfg.AppEnv == "development",
	})
	router.Register(app, cfg, router.Dependencies{
		AuthHandler:           handler.NewAuthHandler(authService, logger),
		UserHandler:           handler.NewUserHandler(userService, logger),
		ProjectHandler:        handler.NewProjectHandler(projectService, logger),
		InteractionHandler:    handler.NewInteractionHandler(interactionService, logger),
		MessageHandler:        handler.NewMessageHandler(messageService, relay, logger),
		AdminHandler:          handler.NewAdminHandler(analyticsService, moderationService, logger),
		UploadHandler:         handler.NewUploadHandler(uploadService, logger),
		JWTMiddleware:         middleware.JWTProtected(cfg.JWTSecret),
		OptionalJWTMiddleware: middleware.JWTOptional(cfg.JWTSecret),
		HealthProbes:          probes,
		ServeLocalUploads:     serveLocal,
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	waitForShutdown(app, cancel, logger)
}

// newFileStorage prefers Cloudinary and falls back to local disk served under the upload path.
func newFileStorage(cfg config.Config, logger zerolog.Logger) (service.FileStorage, bool, error) {
	if cfg.CloudinaryEnabled() {
		uploader, err := cloud.New(cloud.Config{
			CloudName: cfg.CloudinaryCloudName,
			APIKey:    cfg.CloudinaryAPIKey,
			APISecret: cfg.CloudinaryAPISecret,
			Folder:    cfg.CloudinaryUploadFolder,
		}, logger)
		if err != nil {
			return nil, false, err
		}
		return uploader, false, nil
	}

	local, err := storage.NewLocal(cfg.UploadDir, cfg.UploadPublicPath, logger)
	if err != nil {
		return nil, false, err
	}
	logger.Warn().Str("dir", local.Dir()).Msg("cloudinary not configured, storing uploads on local disk")
	return local, true, nil
}

func waitForShutdown(app *fiber.App, stopWorkers context.CancelFunc, logger zerolog.Logger) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()
	stopWorkers()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}
