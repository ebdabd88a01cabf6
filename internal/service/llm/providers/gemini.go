package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/chynybekuuludastan/article_generator/internal/service/llm"
)

// GeminiProvider implements the Provider interface for Google's Gemini API
type GeminiProvider struct {
	client   *genai.Client
	settings Settings
	logger   llm.Logger
}

var _ llm.Provider = (*GeminiProvider)(nil)

// NewGeminiProvider creates a new Gemini provider using the official client
func NewGeminiProvider(ctx context.Context, apiKey string, settings Settings, logger llm.Logger) (*GeminiProvider, error) {
	if apiKey == "" {
		return nil, errors.New("a Gemini API key is required")
	}
	if logger == nil {
		logger = llm.NopLogger{}
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create Gemini client: %w", err)
	}

	return &GeminiProvider{
		client:   client,
		settings: settings,
		logger:   logger,
	}, nil
}

// GetName returns the provider label used for usage accounting
func (p *GeminiProvider) GetName() string {
	return "google"
}

// Family reports the cheap vision family.
func (p *GeminiProvider) Family() llm.Family {
	return llm.FamilyCheapVision
}

// Complete implements the Provider interface
func (p *GeminiProvider) Complete(ctx context.Context, request *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	model := p.client.GenerativeModel(request.Model)
	model.SetTemperature(p.settings.temperature(request))
	model.SetMaxOutputTokens(int32(p.settings.maxTokens(request)))
	model.SafetySettings = []*genai.SafetySetting{
		{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockOnlyHigh},
		{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockOnlyHigh},
		{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockOnlyHigh},
		{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockOnlyHigh},
	}
	if request.System != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(request.System)},
		}
	}

	parts := make([]genai.Part, 0, len(request.Images)+1)
	parts = append(parts, genai.Text(request.User))
	for _, image := range request.Images {
		parts = append(parts, genai.Blob{MIMEType: image.MIMEType, Data: image.Data})
	}

	p.logger.Debug("Sending request to Gemini",
		"model", request.Model,
		"images", len(request.Images),
		"prompt_length", len(request.User))

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return nil, fmt.Errorf("gemini API error: %w", err)
	}

	if len(resp.Candidates) == 0 {
		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockReasonUnspecified {
			return nil, fmt.Errorf("gemini blocked the prompt: %s", resp.PromptFeedback.BlockReason)
		}
		return nil, llm.ErrEmptyResponse
	}

	var text strings.Builder
	if content := resp.Candidates[0].Content; content != nil {
		for _, part := range content.Parts {
			if t, ok := part.(genai.Text); ok {
				text.WriteString(string(t))
			}
		}
	}

	if strings.TrimSpace(text.String()) == "" {
		if reason := resp.Candidates[0].FinishReason; reason != genai.FinishReasonUnspecified && reason != genai.FinishReasonStop {
			return nil, fmt.Errorf("%w: finish reason %s", llm.ErrEmptyResponse, reason)
		}
		return nil, llm.ErrEmptyResponse
	}

	response := &llm.CompletionResponse{
		Text:  text.String(),
		Model: request.Model,
		Raw:   resp,
	}
	if resp.UsageMetadata != nil {
		response.InputTokens = int(resp.UsageMetadata.PromptTokenCount)
		response.OutputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	return response, nil
}

// Close closes the Gemini client
func (p *GeminiProvider) Close() error {
	return p.client.Close()
}
