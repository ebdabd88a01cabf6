package handlers

import (
	"context"
	"errors"
	"math"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/chynybekuuludastan/article_generator/internal/api/middleware"
	"github.com/chynybekuuludastan/article_generator/internal/service/analyzer"
	"github.com/chynybekuuludastan/article_generator/internal/service/llm"
)

// ArticleOptimizer rewrites articles for SEO.
type ArticleOptimizer interface {
	Optimize(ctx context.Context, req analyzer.OptimizeRequest) (*analyzer.OptimizeResult, error)
}

// SEOHandler serves scoring and rewriting.
type SEOHandler struct {
	Optimizer ArticleOptimizer
	Failures  FailureRecorder
	Logger    llm.Logger
}

// AnalyzeRequest is the body of POST /api/seo/analyze.
type AnalyzeRequest struct {
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Keywords []string `json:"keywords"`
}

// OptimizeRequest is the body of POST /api/seo/optimize.
type OptimizeRequest struct {
	Title       string   `json:"title"`
	Content     string   `json:"content"`
	TargetForum string   `json:"target_forum"`
	Model       string   `json:"model"`
	Keywords    []string `json:"keywords"`
}

// NewSEOHandler creates an SEO handler
func NewSEOHandler(optimizer ArticleOptimizer, failures FailureRecorder, logger llm.Logger) *SEOHandler {
	if logger == nil {
		logger = llm.NopLogger{}
	}
	return &SEOHandler{Optimizer: optimizer, Failures: failures, Logger: logger}
}

// Analyze handles POST /api/seo/analyze.
func (h *SEOHandler) Analyze(c *fiber.Ctx) error {
	body := new(AnalyzeRequest)
	if err := c.BodyParser(body); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body: "+err.Error())
	}
	return success(c, fiber.StatusOK, analyzer.Analyze(body.Title, body.Content, body.Keywords))
}

// Optimize handles POST /api/seo/optimize.
func (h *SEOHandler) Optimize(c *fiber.Ctx) error {
	body := new(OptimizeRequest)
	if err := c.BodyParser(body); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body: "+err.Error())
	}
	if strings.TrimSpace(body.Content) == "" {
		return errorResponse(c, fiber.StatusBadRequest, "content is required")
	}

	result, err := h.Optimizer.Optimize(c.UserContext(), analyzer.OptimizeRequest{
		Title:       body.Title,
		Content:     body.Content,
		TargetForum: body.TargetForum,
		Model:       body.Model,
		Keywords:    body.Keywords,
		UserID:      middleware.UserID(c),
	})
	if err != nil {
		if errors.Is(err, analyzer.ErrEmptyArticle) {
			return errorResponse(c, fiber.StatusBadRequest, err.Error())
		}
		return llmFailure(c, h.Failures, h.Logger, "optimize", err)
	}

	return success(c, fiber.StatusOK, fiber.Map{
		"optimized_title":   result.OptimizedTitle,
		"optimized_content": result.OptimizedContent,
		"before":            result.Before,
		"after":             result.After,
		"delta":             math.Round((result.After.Score-result.Before.Score)*10) / 10,
		"model":             result.Model,
	})
}
