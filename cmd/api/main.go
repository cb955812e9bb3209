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
	"github.com/rs/zerolog"

	"github.com/orion-app/orion-api/internal/config"
	"github.com/orion-app/orion-api/internal/database"
	"github.com/orion-app/orion-api/internal/handler"
	"github.com/orion-app/orion-api/internal/middleware"
	"github.com/orion-app/orion-api/internal/models"
	"github.com/orion-app/orion-api/internal/repository"
	"github.com/orion-app/orion-api/internal/router"
	"github.com/orion-app/orion-api/internal/service"
	"github.com/orion-app/orion-api/pkg/ai"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.ChatThread{},
		&models.ChatMessage{},
		&models.Topic{},
		&models.StatsSummary{},
		&models.DailyCounter{},
		&models.QuestionTally{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	completer, cleanup, err := newCompleter(cfg, logger)
	if err != nil {
		log.Fatalf("failed to create completion client: %v", err)
	}
	defer cleanup()

	validate := validator.New(validator.WithRequiredStructEnabled())

	userRepo := repository.NewUserRepository(db)
	chatRepo := repository.NewChatRepository(db)
	knowledgeRepo := repository.NewKnowledgeRepository(db)
	counterRepo := repository.NewCounterRepository(db)

	counterService := service.NewCounterService(counterRepo, logger)
	authService := service.NewAuthService(userRepo, counterService, validate, cfg.JWTSecret, cfg.AllowedEmailDomain, logger)
	chatService := service.NewChatService(chatRepo, knowledgeRepo, counterService, completer, validate, logger)
	knowledgeService := service.NewKnowledgeService(knowledgeRepo, counterRepo, validate, logger)
	dashboardService := service.NewDashboardService(counterRepo, counterService, redisClient, cfg.DashboardCacheTTL, logger)

	authHandler := handler.NewAuthHandler(authService, logger)
	chatHandler := handler.NewChatHandler(chatService, logger)
	knowledgeHandler := handler.NewKnowledgeHandler(knowledgeService, logger)
	adminKnowledgeHandler := handler.NewAdminKnowledgeHandler(knowledgeService, logger)
	adminDashboardHandler := handler.NewAdminDashboardHandler(dashboardService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		AuthHandler:      authHandler,
		ChatHandler:      chatHandler,
		KnowledgeHandler: knowledgeHandler,
		AdminKnowledge:   adminKnowledgeHandler,
		AdminDashboard:   adminDashboardHandler,
		JWTMiddleware:    middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func newCompleter(cfg config.Config, logger zerolog.Logger) (ai.Completer, func(), error) {
	switch cfg.AIProvider {
	case "openai":
		completer, err := ai.NewOpenAICompleter(ai.OpenAIConfig{
			APIKey:  cfg.OpenAIAPIKey,
			Model:   cfg.OpenAIModel,
			Timeout: cfg.CompletionTimeout,
			Logger:  logger,
		})
		if err != nil {
			return nil, nil, err
		}
		return completer, func() {}, nil
	default:
		completer, err := ai.NewGeminiCompleter(context.Background(), ai.GeminiConfig{
			APIKey:  cfg.GeminiAPIKey,
			Model:   cfg.GeminiModel,
			Timeout: cfg.CompletionTimeout,
			Logger:  logger,
		})
		if err != nil {
			return nil, nil, err
		}
		return completer, func() { _ = completer.Close() }, nil
	}
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
