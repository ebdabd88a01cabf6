package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-redis/redis/v8"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"golang.org/x/time/rate"

	"github.com/chynybekuuludastan/article_generator/internal/api"
	"github.com/chynybekuuludastan/article_generator/internal/api/jobs"
	"github.com/chynybekuuludastan/article_generator/internal/config"
	"github.com/chynybekuuludastan/article_generator/internal/database"
	"github.com/chynybekuuludastan/article_generator/internal/logging"
	"github.com/chynybekuuludastan/article_generator/internal/repository"
	"github.com/chynybekuuludastan/article_generator/internal/service/analyzer"
	"github.com/chynybekuuludastan/article_generator/internal/service/article"
	"github.com/chynybekuuludastan/article_generator/internal/service/images"
	"github.com/chynybekuuludastan/article_generator/internal/service/llm"
	"github.com/chynybekuuludastan/article_generator/internal/service/llm/prompts"
	"github.com/chynybekuuludastan/article_generator/internal/service/llm/providers"
	"github.com/chynybekuuludastan/article_generator/internal/service/llm/tokens"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	// Initialize configuration
	cfg := config.NewConfig()

	appLogger, err := logging.New(logging.Config{Level: cfg.LogLevel, Development: cfg.LogDevelopment})
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer appLogger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to PostgreSQL
	db, err := database.InitPostgreSQL(cfg.PostgresURI, database.Options{
		Migrate: true,
		LogSQL:  !cfg.IsProduction() && cfg.LogLevel == "debug",
		Logger:  appLogger,
	})
	if err != nil {
		appLogger.Error("Failed to connect to PostgreSQL", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Connect to Redis. Without it the budget guard and product cache are off.
	var redisClient *redis.Client
	if rc, err := database.InitRedis(ctx, cfg.RedisURI); err != nil {
		appLogger.Warn("Redis unavailable, running without budget tracking", "error", err)
	} else {
		defer rc.Close()
		redisClient = rc.Client
	}

	repos := repository.NewRepositoryFactory(db.DB, redisClient)

	recorders := tokens.Fanout{repos.UsageRepository}
	var budget *tokens.BudgetTracker
	if redisClient != nil {
		budget = tokens.NewBudgetTracker(redisClient, cfg.DailyBudgetUSD)
		recorders = append(recorders, budget)
	}

	service := llm.NewService(llm.ServiceOptions{
		RateLimit:   rate.Limit(cfg.RateLimit),
		MaxAttempts: cfg.MaxAttempts,
		RetryDelay:  cfg.RetryBaseDelay,
		Recorder:    recorders,
		Logger:      appLogger,
	})
	defer service.Close()

	clients, err := providers.NewFromConfig(ctx, providers.Config{
		GoogleAPIKey:    cfg.GoogleAPIKey,
		AnthropicAPIKey: cfg.AnthropicAPIKey,
		Settings:        providers.Settings{Temperature: cfg.Temperature, MaxTokens: cfg.MaxTokens},
	}, appLogger)
	if err != nil {
		appLogger.Error("Failed to create LLM providers", "error", err)
		os.Exit(1)
	}
	for _, provider := range clients {
		service.RegisterProvider(provider)
	}

	generator := article.NewGenerator(article.GeneratorOptions{
		LLM:      service,
		Composer: prompts.NewComposer(repos.PromptRepository, appLogger),
		Fetcher: images.NewFetcher(images.FetcherOptions{
			Timeout:     cfg.ImageFetchTimeout,
			Concurrency: cfg.ImageConcurrency,
			MinBytes:    cfg.ImageMinBytes,
			Logger:      appLogger,
		}),
		Extractor: images.NewExtractor(service, images.ExtractorOptions{
			Model:       cfg.CheapModel,
			MaxImages:   cfg.ImageMaxExtract,
			Concurrency: cfg.ImageConcurrency,
			Logger:      appLogger,
		}),
		DefaultModel: cfg.DefaultModel,
		DefaultForum: cfg.DefaultForum,
		Logger:       appLogger,
	})
	optimizer := analyzer.NewOptimizer(service, cfg.CheapModel, appLogger)

	runner := jobs.NewRunner(jobs.Options{Workers: cfg.JobWorkers, Logger: appLogger})
	runner.Start(ctx)

	deps := api.Dependencies{
		Products:  repos.ProductRepository,
		Generator: generator,
		Optimizer: optimizer,
		Failures:  repos.FailureRepository,
		Jobs:      runner,
		History:   repos.UsageRepository,
		Logger:    appLogger,
	}
	if budget != nil {
		deps.Budget = budget
		deps.Usage = budget
	}

	// Initialize Fiber app
	app := api.NewApp(fiber.Config{
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, X-User-ID, X-Request-ID",
		AllowMethods: "GET, POST",
	}))

	// Setup routes
	api.SetupRoutes(app, deps)

	// Start server
	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			appLogger.Error("Server stopped", "error", err)
			stop()
		}
	}()
	appLogger.Info("Server started", "port", cfg.Port, "model", cfg.DefaultModel, "environment", cfg.Environment)

	// Graceful shutdown
	<-ctx.Done()
	appLogger.Info("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		appLogger.Error("Server shutdown failed", "error", err)
	}
	if err := runner.Stop(); err != nil {
		appLogger.Error("Job runner stopped with error", "error", err)
	}
}
