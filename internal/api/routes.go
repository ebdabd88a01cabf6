package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/chynybekuuludastan/article_generator/internal/api/handlers"
	"github.com/chynybekuuludastan/article_generator/internal/api/middleware"
	"github.com/chynybekuuludastan/article_generator/internal/service/llm"
)

// Dependencies are the collaborators the HTTP layer calls into. Budget,
// Usage, History and Jobs may be nil.
type Dependencies struct {
	Products  handlers.ProductFinder
	Generator handlers.ArticleGenerator
	Optimizer handlers.ArticleOptimizer
	Failures  handlers.FailureRecorder
	Jobs      handlers.JobQueue
	Budget    middleware.BudgetChecker
	Usage     handlers.UsageReporter
	History   handlers.UsageHistory
	Logger    llm.Logger
}

// NewApp builds a fiber app with the JSON error handler used by every route.
func NewApp(cfg fiber.Config) *fiber.App {
	cfg.ErrorHandler = func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		if e, ok := err.(*fiber.Error); ok {
			code = e.Code
		}
		return c.Status(code).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
		})
	}
	return fiber.New(cfg)
}

// SetupRoutes configures all API routes
func SetupRoutes(app *fiber.App, deps Dependencies) {
	articleHandler := handlers.NewArticleHandler(deps.Products, deps.Generator, deps.Failures, deps.Jobs, deps.Logger)
	seoHandler := handlers.NewSEOHandler(deps.Optimizer, deps.Failures, deps.Logger)
	usageHandler := handlers.NewUsageHandler(deps.Usage, deps.History, deps.Logger)

	api := app.Group("/api", middleware.CallerMiddleware())

	// Health check route
	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
		})
	})

	articles := api.Group("/articles")
	articles.Post("/generate", middleware.BudgetGuard(deps.Budget), articleHandler.Generate)
	articles.Post("/copy", articleHandler.Copy)

	api.Get("/jobs/:id", articleHandler.GetJob)

	seo := api.Group("/seo")
	seo.Post("/analyze", seoHandler.Analyze)
	seo.Post("/optimize", middleware.BudgetGuard(deps.Budget), seoHandler.Optimize)

	api.Get("/usage", usageHandler.GetUsage)
}
