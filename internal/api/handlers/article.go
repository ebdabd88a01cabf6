package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/chynybekuuludastan/article_generator/internal/api/jobs"
	"github.com/chynybekuuludastan/article_generator/internal/api/middleware"
	"github.com/chynybekuuludastan/article_generator/internal/models"
	"github.com/chynybekuuludastan/article_generator/internal/service/analyzer"
	"github.com/chynybekuuludastan/article_generator/internal/service/article"
	"github.com/chynybekuuludastan/article_generator/internal/service/images"
	"github.com/chynybekuuludastan/article_generator/internal/service/llm"
)

// ProductFinder resolves product ids in request order.
type ProductFinder interface {
	FindByIDs(ctx context.Context, ids []uint) ([]models.Product, error)
}

// ArticleGenerator writes articles.
type ArticleGenerator interface {
	Generate(ctx context.Context, req article.GenerationRequest, products []models.Product) (*article.GenerationResult, error)
}

// JobQueue runs work in the background.
type JobQueue interface {
	Submit(task jobs.Task) (string, error)
	Get(id string) (jobs.Job, bool)
}

// ArticleHandler serves article generation and copy formatting.
type ArticleHandler struct {
	Products  ProductFinder
	Generator ArticleGenerator
	Failures  FailureRecorder
	Jobs      JobQueue
	Logger    llm.Logger
}

// GenerateRequest is the body of POST /api/articles/generate.
type GenerateRequest struct {
	ProductIDs       []uint   `json:"product_ids"`
	ArticleType      string   `json:"article_type"`
	TargetForum      string   `json:"target_forum"`
	PromptTemplateID *uint    `json:"prompt_template_id"`
	Model            string   `json:"model"`
	IncludeImages    bool     `json:"include_images"`
	ImageSources     []string `json:"image_sources"`
	AnalyzeSEO       bool     `json:"analyze_seo"`
}

// GenerateResponse is an article plus its optional SEO report.
type GenerateResponse struct {
	Article *article.GenerationResult `json:"article"`
	SEO     *analyzer.SEOReport       `json:"seo,omitempty"`
}

// CopyRequest is the body of POST /api/articles/copy.
type CopyRequest struct {
	Content  string           `json:"content"`
	ImageMap article.ImageMap `json:"image_map"`
}

// NewArticleHandler creates an article handler
func NewArticleHandler(products ProductFinder, generator ArticleGenerator, failures FailureRecorder, queue JobQueue, logger llm.Logger) *ArticleHandler {
	if logger == nil {
		logger = llm.NopLogger{}
	}
	return &ArticleHandler{
		Products:  products,
		Generator: generator,
		Failures:  failures,
		Jobs:      queue,
		Logger:    logger,
	}
}

// Generate handles POST /api/articles/generate. With ?async=true the call
// is queued and a job id is returned.
func (h *ArticleHandler) Generate(c *fiber.Ctx) error {
	body := new(GenerateRequest)
	if err := c.BodyParser(body); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body: "+err.Error())
	}
	if len(body.ProductIDs) == 0 {
		return errorResponse(c, fiber.StatusBadRequest, "product_ids is required")
	}

	articleType, err := article.ParseType(body.ArticleType)
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, err.Error())
	}
	sources, err := images.ParseSources(body.ImageSources)
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, err.Error())
	}

	products, err := h.Products.FindByIDs(c.UserContext(), body.ProductIDs)
	if err != nil {
		h.Logger.Error("Failed to load products", "error", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to load products")
	}
	if len(products) == 0 {
		return errorResponse(c, fiber.StatusNotFound, "No products found")
	}

	req := article.GenerationRequest{
		ProductIDs:       body.ProductIDs,
		ArticleType:      articleType,
		TargetForum:      body.TargetForum,
		PromptTemplateID: body.PromptTemplateID,
		Model:            body.Model,
		IncludeImages:    body.IncludeImages,
		ImageSources:     sources,
		UserID:           middleware.UserID(c),
	}
	analyze := body.AnalyzeSEO

	if c.QueryBool("async") {
		return h.submit(c, req, products, analyze)
	}

	response, err := h.generate(c.UserContext(), req, products, analyze)
	if err != nil {
		if errors.Is(err, article.ErrNoProducts) {
			return errorResponse(c, fiber.StatusNotFound, err.Error())
		}
		return llmFailure(c, h.Failures, h.Logger, "generate", err)
	}
	return success(c, fiber.StatusOK, response)
}

func (h *ArticleHandler) generate(ctx context.Context, req article.GenerationRequest, products []models.Product, analyze bool) (*GenerateResponse, error) {
	result, err := h.Generator.Generate(ctx, req, products)
	if err != nil {
		return nil, err
	}
	response := &GenerateResponse{Article: result}
	if analyze {
		response.SEO = analyzer.Analyze(result.Title, result.Content, nil)
	}
	return response, nil
}

func (h *ArticleHandler) submit(c *fiber.Ctx, req article.GenerationRequest, products []models.Product, analyze bool) error {
	if h.Jobs == nil {
		return errorResponse(c, fiber.StatusServiceUnavailable, "Background jobs are disabled")
	}

	requestID := middleware.RequestID(c)
	id, err := h.Jobs.Submit(func(ctx context.Context) (interface{}, error) {
		response, err := h.generate(ctx, req, products, analyze)
		if err != nil && h.Failures != nil {
			if _, recordErr := h.Failures.Record(ctx, requestID, "generate", req.UserID, err); recordErr != nil {
				h.Logger.Error("Failed to persist generation failure", "error", recordErr)
			}
		}
		return response, err
	})
	if err != nil {
		return errorResponse(c, fiber.StatusServiceUnavailable, err.Error())
	}

	return success(c, fiber.StatusAccepted, fiber.Map{
		"job_id": id,
		"status": jobs.StatusQueued,
	})
}

// Copy handles POST /api/articles/copy, turning image markers into paste
// placeholders.
func (h *ArticleHandler) Copy(c *fiber.Ctx) error {
	body := new(CopyRequest)
	if err := c.BodyParser(body); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body: "+err.Error())
	}

	content, positions := article.RenderForCopy(body.Content, body.ImageMap)
	if positions == nil {
		positions = []article.ImageMarker{}
	}
	return success(c, fiber.StatusOK, fiber.Map{
		"content": content,
		"images":  positions,
	})
}

// GetJob handles GET /api/jobs/:id.
func (h *ArticleHandler) GetJob(c *fiber.Ctx) error {
	if h.Jobs == nil {
		return errorResponse(c, fiber.StatusNotFound, "Job not found")
	}
	job, ok := h.Jobs.Get(c.Params("id"))
	if !ok {
		return errorResponse(c, fiber.StatusNotFound, "Job not found")
	}
	return success(c, fiber.StatusOK, job)
}
