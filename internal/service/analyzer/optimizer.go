package analyzer

import (
	"context"
	"errors"
	"strings"

	"github.com/chynybekuuludastan/article_generator/internal/service/article"
	"github.com/chynybekuuludastan/article_generator/internal/service/llm"
	"github.com/chynybekuuludastan/article_generator/internal/service/llm/prompts"
)

// DefaultOptimizeModel is used when the caller asks for a model outside the
// cheap family.
const DefaultOptimizeModel = "gemini-2.5-flash"

var ErrEmptyArticle = errors.New("article has no content to optimize")

// OptimizeRequest is one SEO rewrite.
type OptimizeRequest struct {
	Title       string
	Content     string
	TargetForum string
	Model       string
	Keywords    []string
	UserID      *uint
}

// OptimizeResult holds the rewrite plus the reports before and after.
type OptimizeResult struct {
	OptimizedTitle   string     `json:"optimized_title"`
	OptimizedContent string     `json:"optimized_content"`
	Before           *SEOReport `json:"before"`
	After            *SEOReport `json:"after"`
	Model            string     `json:"model"`
	Provider         string     `json:"provider"`
}

// Optimizer rewrites articles guided by their own SEO report.
type Optimizer struct {
	llm          llm.Completer
	defaultModel string
	logger       llm.Logger
}

// NewOptimizer creates an optimizer. An empty model falls back to
// DefaultOptimizeModel.
func NewOptimizer(completer llm.Completer, model string, logger llm.Logger) *Optimizer {
	if model == "" || !llm.FamilyForModel(model).AcceptsImages() {
		model = DefaultOptimizeModel
	}
	if logger == nil {
		logger = llm.NopLogger{}
	}
	return &Optimizer{llm: completer, defaultModel: model, logger: logger}
}

// resolveModel keeps the rewrite on the cheap family whatever the caller asked for.
func (o *Optimizer) resolveModel(requested string) string {
	if requested != "" && llm.FamilyForModel(requested).AcceptsImages() {
		return requested
	}
	return o.defaultModel
}

// Optimize scores the article, asks the model for a rewrite that targets the
// weak metrics, then scores the rewrite. Provider failures are returned as
// *llm.FatalError and no partial result is produced.
func (o *Optimizer) Optimize(ctx context.Context, req OptimizeRequest) (*OptimizeResult, error) {
	if strings.TrimSpace(req.Content) == "" {
		return nil, ErrEmptyArticle
	}

	before := Analyze(req.Title, req.Content, req.Keywords)
	model := o.resolveModel(req.Model)

	message := prompts.BuildOptimizeMessage(optimizeInput(req, before))

	response, err := o.llm.Complete(ctx, &llm.CompletionRequest{
		Model:       model,
		System:      prompts.SEOOptimizeSystemPrompt,
		User:        message,
		Temperature: 0.5,
		UserID:      req.UserID,
	})
	if err != nil {
		o.logger.Error("SEO rewrite failed", "model", model, "error", err)
		return nil, err
	}

	cleaned := article.StripMarkdown(response.Text)
	title, content, ok := article.ExtractTitle(cleaned)
	if !ok || strings.TrimSpace(content) == "" {
		// Model returned body only.
		title, content = req.Title, strings.TrimSpace(cleaned)
	}

	after := Analyze(title, content, before.Keywords)

	o.logger.Info("SEO rewrite finished",
		"model", response.Model,
		"before", before.Score,
		"after", after.Score)

	return &OptimizeResult{
		OptimizedTitle:   title,
		OptimizedContent: content,
		Before:           before,
		After:            after,
		Model:            response.Model,
		Provider:         response.Provider,
	}, nil
}

func optimizeInput(req OptimizeRequest, report *SEOReport) prompts.OptimizeInput {
	breakdown := make([]prompts.ScoreLine, 0, len(metricOrder))
	for _, key := range metricOrder {
		metric := report.Breakdown[key]
		breakdown = append(breakdown, prompts.ScoreLine{Label: metric.Label, Score: metric.Score, Max: metric.Max})
	}

	suggestions := make([]string, 0, len(report.Suggestions))
	for _, s := range report.Suggestions {
		suggestions = append(suggestions, s.Message)
	}

	return prompts.OptimizeInput{
		Title:       req.Title,
		Content:     req.Content,
		TargetForum: req.TargetForum,
		Score:       report.Score,
		Grade:       report.Grade,
		Breakdown:   breakdown,
		Keywords:    topKeywords(report.Keywords, 3),
		Suggestions: suggestions,
	}
}
