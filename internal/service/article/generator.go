package article

import (
	"context"
	"strings"

	"github.com/chynybekuuludastan/article_generator/internal/models"
	"github.com/chynybekuuludastan/article_generator/internal/service/images"
	"github.com/chynybekuuludastan/article_generator/internal/service/llm"
	"github.com/chynybekuuludastan/article_generator/internal/service/llm/prompts"
	"github.com/chynybekuuludastan/article_generator/internal/service/llm/tokens"
)

// ImageFetcher downloads product images.
type ImageFetcher interface {
	Fetch(ctx context.Context, urls []string) []llm.ImagePart
}

// ImageExtractor turns images into descriptive text.
type ImageExtractor interface {
	Extract(ctx context.Context, images []llm.ImagePart, userID *uint) string
}

// GeneratorOptions wires a Generator.
type GeneratorOptions struct {
	LLM          llm.Completer
	Composer     *prompts.Composer
	Fetcher      ImageFetcher
	Extractor    ImageExtractor
	DefaultModel string
	DefaultForum string
	Logger       llm.Logger
}

// Generator turns products into a forum article.
type Generator struct {
	llm          llm.Completer
	composer     *prompts.Composer
	fetcher      ImageFetcher
	extractor    ImageExtractor
	defaultModel string
	defaultForum string
	logger       llm.Logger
}

// NewGenerator creates a generator. Fetcher and Extractor are optional.
func NewGenerator(opts GeneratorOptions) *Generator {
	if opts.Composer == nil {
		opts.Composer = prompts.NewComposer(nil, opts.Logger)
	}
	if opts.DefaultModel == "" {
		opts.DefaultModel = "gemini-2.5-flash"
	}
	if opts.DefaultForum == "" {
		opts.DefaultForum = "goodthings"
	}
	if opts.Logger == nil {
		opts.Logger = llm.NopLogger{}
	}

	return &Generator{
		llm:          opts.LLM,
		composer:     opts.Composer,
		fetcher:      opts.Fetcher,
		extractor:    opts.Extractor,
		defaultModel: opts.DefaultModel,
		defaultForum: opts.DefaultForum,
		logger:       opts.Logger,
	}
}

// Generate writes one article about the products, which must already be in
// the order the caller wants them presented.
//
// For the expensive family, images are transcribed by the cheap model first
// and only text is sent. Provider failures come back as *llm.FatalError.
func (g *Generator) Generate(ctx context.Context, req GenerationRequest, products []models.Product) (*GenerationResult, error) {
	if len(products) == 0 {
		return nil, ErrNoProducts
	}

	model := req.Model
	if model == "" {
		model = g.defaultModel
	}
	articleType := req.ArticleType
	if articleType == "" {
		articleType = TypeComparison
	}
	forum := req.TargetForum
	if forum == "" {
		forum = g.defaultForum
	}

	input := prompts.ComposeInput{
		TemplateID:  req.PromptTemplateID,
		UserID:      req.UserID,
		TargetForum: forum,
		ProductInfo: FormatProducts(products),
	}

	attached := g.prepareImages(ctx, req, products, model, &input)

	prompt := g.composer.Compose(ctx, input)

	g.logger.Debug("Generating article",
		"model", model,
		"products", len(products),
		"article_type", articleType,
		"images", len(attached),
		"estimated_cost_usd", tokens.EstimateCost(model, prompt.System+prompt.User, 4000))

	response, err := g.llm.Complete(ctx, &llm.CompletionRequest{
		Model:        model,
		System:       prompt.System,
		User:         prompt.User,
		Images:       attached,
		TextOnlyUser: prompt.TextOnlyUser,
		UserID:       req.UserID,
	})
	if err != nil {
		return nil, err
	}

	cleaned := StripMarkdown(response.Text)
	title, content := ParseTitle(cleaned, products, articleType)

	imageMap := BuildImageMap(products)
	content = strings.TrimSpace(RemoveUnknownMarkers(content, imageMap))

	warnings := Validate(title, content, imageMap)
	if len(warnings) > 0 {
		g.logger.Warn("Generated article has quality warnings", "warnings", warnings)
	}

	g.logger.Info("Article generated",
		"model", response.Model,
		"provider", response.Provider,
		"title_length", len([]rune(title)),
		"content_length", len([]rune(content)))

	return &GenerationResult{
		Title:             title,
		Content:           content,
		ContentWithImages: BindImageMarkers(content, imageMap),
		ImageMap:          imageMap,
		Model:             response.Model,
		Provider:          response.Provider,
		InputTokens:       response.InputTokens,
		OutputTokens:      response.OutputTokens,
		ImagesUsed:        response.ImagesSent,
		Attempts:          response.History,
		Warnings:          warnings,
	}, nil
}

// prepareImages fetches product images when requested and either returns
// them for direct attachment or folds their transcription into input.
func (g *Generator) prepareImages(ctx context.Context, req GenerationRequest, products []models.Product, model string, input *prompts.ComposeInput) []llm.ImagePart {
	if !req.IncludeImages || g.fetcher == nil {
		return nil
	}

	sources := req.ImageSources
	if len(sources) == 0 {
		sources = []images.Source{images.SourceMain, images.SourceDescription}
	}
	urls := images.CollectURLs(products, sources)
	if len(urls) == 0 {
		return nil
	}

	fetched := g.fetcher.Fetch(ctx, urls)
	if len(fetched) == 0 {
		g.logger.Info("No usable product images, continuing text-only", "requested", len(urls))
		return nil
	}

	if llm.FamilyForModel(model).AcceptsImages() {
		input.ImageMode = prompts.ImageModeAttached
		return fetched
	}

	if g.extractor == nil {
		return nil
	}
	text := g.extractor.Extract(ctx, fetched, req.UserID)
	if strings.TrimSpace(text) != "" {
		input.ImageMode = prompts.ImageModeExtracted
		input.ImageText = text
	}
	return nil
}
