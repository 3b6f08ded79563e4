package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"quizhub/internal/adapter"
	"quizhub/internal/cache"
	"quizhub/internal/config"
	"quizhub/internal/database"
	"quizhub/internal/domain"
	"quizhub/internal/handler"
	"quizhub/internal/logger"
	"quizhub/internal/middleware"
	"quizhub/internal/repository"
	"quizhub/internal/service"
)

// requestLogger is a middleware that logs HTTP requests
func requestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		path := c.Path()
		method := c.Method()

		err := c.Next()

		duration := time.Since(start)
		status := c.Response().StatusCode()

		logger.Get().Info("HTTP Request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Duration("duration", duration),
			zap.String("ip", c.IP()),
			zap.String("user_agent", c.Get("User-Agent")),
		)

		return err
	}
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Initialize(cfg.Logger); err != nil {
		panic(err)
	}
	appLogger := logger.Get()
	defer logger.Sync()

	db, err := database.NewSQLXOracleDB(cfg.GetDSN())
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}

	// Redis is optional: listings just skip the cache when it is down.
	var cacheAdapter domain.Cache
	redisClient, err := cache.NewRedisClient(cfg.Redis)
	if err != nil {
		appLogger.Warn("Redis unavailable, catalog caching disabled", zap.Error(err))
	} else {
		cacheAdapter = adapter.NewRedisCacheAdapter(redisClient)
		appLogger.Info("RedisCacheAdapter initialized")
	}

	// Same for the assistant: no API key means the endpoint reports
	// ASSISTANT_UNAVAILABLE instead of the server refusing to start.
	var assistant domain.Assistant
	if cfg.OpenAI.APIKey != "" {
		openAIAssistant, err := adapter.NewOpenAIAssistant(cfg.OpenAI.APIKey, cfg.OpenAI.Model)
		if err != nil {
			appLogger.Fatal("Failed to create OpenAI assistant", zap.Error(err))
		}
		assistant = openAIAssistant
		appLogger.Info("OpenAI assistant initialized", zap.String("model", cfg.OpenAI.Model))
	} else {
		appLogger.Warn("No OpenAI API key configured, assistant disabled")
	}

	// Repositories
	catalogRepository := repository.NewCatalogDatabaseAdapter(db)
	sessionRepository := repository.NewSessionDatabaseAdapter(db)
	answerRepository := repository.NewAnswerDatabaseAdapter(db)
	userRepository := repository.NewSQLXUserRepository(db)
	profileRepository := repository.NewProfileDatabaseAdapter(db)
	bookmarkRepository := repository.NewBookmarkDatabaseAdapter(db)
	txManager := repository.NewTransactionManagerAdapter(db)
	clock := domain.SystemClock{}

	// Services
	authService, err := service.NewAuthService(userRepository, profileRepository, txManager, clock, cfg.JWT)
	if err != nil {
		appLogger.Fatal("Failed to create AuthService", zap.Error(err))
	}
	quizService := service.NewQuizService(catalogRepository, cacheAdapter)
	sessionService := service.NewSessionService(sessionRepository, answerRepository, catalogRepository, profileRepository, txManager, clock)
	profileService := service.NewProfileService(userRepository, profileRepository, catalogRepository, bookmarkRepository, clock)
	assistantService := service.NewAssistantService(assistant, sessionRepository, catalogRepository, profileRepository, clock)

	// Handlers
	authHandler := handler.NewAuthHandler(authService)
	quizHandler := handler.NewQuizHandler(quizService)
	sessionHandler := handler.NewSessionHandler(sessionService)
	profileHandler := handler.NewProfileHandler(profileService)
	assistantHandler := handler.NewAssistantHandler(assistantService)

	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  20 * time.Second,
		BodyLimit:    10 * 1024 * 1024,
	})

	app.Use(requestLogger())
	app.Use(cors.New(cors.Config{AllowOrigins: "*", AllowMethods: "GET,POST,PUT,DELETE,OPTIONS", AllowHeaders: "Origin,Content-Type,Accept,Authorization", MaxAge: 300}))
	app.Use(recover.New())

	apiGroup := app.Group("/api")

	// Auth routes (public)
	authGroup := apiGroup.Group("/auth")
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)
	authGroup.Post("/refresh", authHandler.RefreshToken)

	// Catalog routes (public)
	apiGroup.Get("/categories", quizHandler.ListCategories)
	apiGroup.Get("/exams", quizHandler.ListExams)
	apiGroup.Get("/exams/:id", quizHandler.GetExam)
	apiGroup.Get("/exams/:id/questions", quizHandler.GetExamQuestions)

	// Session routes (all protected)
	sessionGroup := apiGroup.Group("/sessions", middleware.Protected(authService))
	sessionGroup.Post("/", sessionHandler.StartSession)
	sessionGroup.Get("/", sessionHandler.ListSessions)
	sessionGroup.Get("/:id", sessionHandler.GetSession)
	sessionGroup.Post("/:id/answers", sessionHandler.SubmitAnswer)
	sessionGroup.Post("/:id/pause", sessionHandler.PauseSession)
	sessionGroup.Post("/:id/resume", sessionHandler.ResumeSession)
	sessionGroup.Get("/:id/time", sessionHandler.RemainingTime)
	sessionGroup.Post("/:id/complete", sessionHandler.CompleteSession)
	sessionGroup.Get("/:id/results", sessionHandler.GetResults)
	sessionGroup.Post("/:id/questions/:questionID/assistant", assistantHandler.Ask)

	// User routes (all protected)
	userGroup := apiGroup.Group("/users", middleware.Protected(authService))
	userGroup.Get("/me", profileHandler.GetMyProfile)
	userGroup.Post("/me/subscription/upgrade", profileHandler.UpgradeSubscription)
	userGroup.Post("/me/subscription/downgrade", profileHandler.DowngradeSubscription)
	userGroup.Get("/me/bookmarks", profileHandler.ListBookmarks)

	// Bookmark toggle (protected)
	apiGroup.Post("/questions/:id/bookmark", middleware.Protected(authService), profileHandler.ToggleBookmark)

	go func() {
		appLogger.Info("Starting server", zap.Int("port", cfg.Server.Port), zap.String("env", os.Getenv("ENV")))
		if err := app.Listen(":" + strconv.Itoa(cfg.Server.Port)); err != nil {
			appLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(ctx); err != nil {
		appLogger.Fatal("Server forced to shutdown", zap.Error(err))
	}
	appLogger.Info("Server exited gracefully")
}
