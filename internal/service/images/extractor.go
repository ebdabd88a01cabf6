package images

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/chynybekuuludastan/article_generator/internal/service/llm"
	"github.com/chynybekuuludastan/article_generator/internal/service/llm/prompts"
)

// ExtractorOptions configures an Extractor.
type ExtractorOptions struct {
	Model       string
	MaxImages   int
	Concurrency int
	Logger      llm.Logger
}

// Extractor transcribes product images to text with the cheap vision model,
// so text-only models can still use what the images show.
type Extractor struct {
	completer   llm.Completer
	model       string
	maxImages   int
	concurrency int
	logger      llm.Logger
}

// NewExtractor creates an extractor. MaxImages defaults to 8.
func NewExtractor(completer llm.Completer, opts ExtractorOptions) *Extractor {
	if opts.Model == "" {
		opts.Model = "gemini-2.5-flash"
	}
	if opts.MaxImages <= 0 {
		opts.MaxImages = 8
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 5
	}
	if opts.Logger == nil {
		opts.Logger = llm.NopLogger{}
	}

	return &Extractor{
		completer:   completer,
		model:       opts.Model,
		maxImages:   opts.MaxImages,
		concurrency: opts.Concurrency,
		logger:      opts.Logger,
	}
}

// Extract describes each image and joins the results as labelled blocks in
// input order. Images beyond the cap are dropped and per-image failures are
// skipped; an empty string means nothing could be extracted.
func (e *Extractor) Extract(ctx context.Context, images []llm.ImagePart, userID *uint) string {
	if len(images) == 0 {
		return ""
	}
	if len(images) > e.maxImages {
		e.logger.Info("Capping images sent for text extraction",
			"available", len(images),
			"cap", e.maxImages)
		images = images[:e.maxImages]
	}

	texts := make([]string, len(images))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)

	for i, image := range images {
		i, image := i, image
		g.Go(func() error {
			response, err := e.completer.Complete(gctx, &llm.CompletionRequest{
				Model:         e.model,
				User:          prompts.ImageExtractionInstruction,
				Images:        []llm.ImagePart{image},
				Temperature:   0.2,
				MaxTokens:     1024,
				MaxAttempts:   1,
				RequireImages: true,
				UserID:        userID,
			})
			if err != nil {
				e.logger.Warn("Image text extraction failed", "index", i, "error", err)
				return nil
			}
			texts[i] = strings.TrimSpace(response.Text)
			return nil
		})
	}
	_ = g.Wait()

	var blocks []string
	for i, text := range texts {
		if text == "" {
			continue
		}
		blocks = append(blocks, fmt.Sprintf("【圖片 %d】\n%s", i+1, text))
	}

	e.logger.Info("Extracted text from product images",
		"images", len(images),
		"described", len(blocks))
	return strings.Join(blocks, "\n\n")
}
