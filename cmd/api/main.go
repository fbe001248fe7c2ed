package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/subnets-api/internal/config"
	"github.com/noah-isme/subnets-api/internal/database"
	"github.com/noah-isme/subnets-api/internal/handler"
	"github.com/noah-isme/subnets-api/internal/middleware"
	"github.com/noah-isme/subnets-api/internal/repository"
	"github.com/noah-isme/subnets-api/internal/router"
	"github.com/noah-isme/subnets-api/internal/service"
	cloud "github.com/noah-isme/subnets-api/pkg/cloudinary"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := newLogger(cfg)

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
	}

	kv, err := database.OpenStore(cfg, redisClient)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	logger.Info().Str("driver", cfg.StoreDriver).Msg("store ready")

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName, logger)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Close()
	}

	var storage service.FileStorage
	cloudCfg := cloud.Config{
		CloudName: cfg.CloudinaryCloudName,
		APIKey:    cfg.CloudinaryAPIKey,
		APISecret: cfg.CloudinaryAPISecret,
		Folder:    cfg.CloudinaryUploadFolder,
	}
	if cloudCfg.Enabled() {
		uploader, err := cloud.New(cloudCfg, logger)
		if err != nil {
			log.Fatalf("failed to create cloudinary client: %v", err)
		}
		storage = uploader
	} else {
		logger.Warn().Msg("cloudinary credentials missing, uploads disabled")
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	userRepo := repository.NewUserRepository(kv)
	postRepo := repository.NewPostRepository(kv)
	commentRepo := repository.NewCommentRepository(kv)
	notificationRepo := repository.NewNotificationRepository(kv)
	tokenRepo := repository.NewTokenRepository(kv)

	identity := service.NewJWTIdentityProvider(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL, tokenRepo)
	notificationService := service.NewNotificationService(notificationRepo, redisClient, cfg.NotificationsChannel, natsConn, logger)
	badgeService := service.NewBadgeService(postRepo)
	authService := service.NewAuthService(userRepo, identity, validate, logger)
	postService := service.NewPostService(postRepo, userRepo, badgeService, notificationService, validate, logger)
	commentService := service.NewCommentService(commentRepo, postRepo, userRepo, notificationService, cfg.CommentMaxDepth, validate, logger)
	userService := service.NewUserService(userRepo, badgeService, validate, logger)
	searchService := service.NewSearchService(postRepo, userRepo)
	uploadService := service.NewUploadService(storage, cfg.UploadMaxMB, logger)
	seedService := service.NewSeedService(authService, userRepo, postRepo, commentRepo, cfg.SeedEnabled, cfg.SeedToken, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	notificationService.Start(ctx)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    (cfg.UploadMaxMB + 1) * 1024 * 1024,
		ReadTimeout:  15 * time.Second,
	})

	middleware.Register(app, middleware.Config{
		Logger:      &logger,
		RoutePrefix: cfg.APIPrefix,
		AccessLog:   !cfg.IsProduction(),
	})
	router.Register(app, cfg, router.Dependencies{
		AuthHandler:         handler.NewAuthHandler(authService, logger),
		PostHandler:         handler.NewPostHandler(postService, logger),
		CommentHandler:      handler.NewCommentHandler(commentService, logger),
		UserHandler:         handler.NewUserHandler(userService, logger),
		SearchHandler:       handler.NewSearchHandler(searchService, logger),
		NotificationHandler: handler.NewNotificationHandler(notificationService, logger, cfg.StreamKeepAlive),
		UploadHandler:       handler.NewUploadHandler(uploadService, logger),
		SeedHandler:         handler.NewSeedHandler(seedService, logger),
		AuthMiddleware:      middleware.Authenticate(identity),
		RateLimiter:         middleware.RateLimit("auth", cfg.RateLimitMax, cfg.RateLimitWindow),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	logger.Info().Str("address", cfg.HTTPAddress()).Str("prefix", cfg.APIPrefix).Msg("api listening")
	waitForShutdown(app)
}

func newLogger(cfg config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	logger := zerolog.New(os.Stdout).Level(level).With().Timestamp().Str("service", cfg.AppName).Logger()
	if !cfg.IsProduction() {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}
	return logger
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
