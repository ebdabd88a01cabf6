package providers

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/chynybekuuludastan/article_generator/internal/service/llm"
)

// ClaudeProvider implements the Provider interface for Anthropic's Messages API
type ClaudeProvider struct {
	client   anthropic.Client
	settings Settings
	logger   llm.Logger
}

var _ llm.Provider = (*ClaudeProvider)(nil)

// NewClaudeProvider creates a Claude provider. SDK-level retries are turned
// off so every attempt shows up in the service's retry history.
func NewClaudeProvider(apiKey string, settings Settings, logger llm.Logger) (*ClaudeProvider, error) {
	if apiKey == "" {
		return nil, errors.New("an Anthropic API key is required")
	}
	if logger == nil {
		logger = llm.NopLogger{}
	}

	return &ClaudeProvider{
		client:   anthropic.NewClient(option.WithAPIKey(apiKey), option.WithMaxRetries(0)),
		settings: settings,
		logger:   logger,
	}, nil
}

// GetName returns the provider label used for usage accounting
func (p *ClaudeProvider) GetName() string {
	return "anthropic"
}

// Family reports the expensive vision family.
func (p *ClaudeProvider) Family() llm.Family {
	return llm.FamilyExpensiveVision
}

// Complete implements the Provider interface
func (p *ClaudeProvider) Complete(ctx context.Context, request *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	blocks := make([]anthropic.ContentBlockParamUnion, 0, len(request.Images)+1)
	for _, image := range request.Images {
		encoded := base64.StdEncoding.EncodeToString(image.Data)
		blocks = append(blocks, anthropic.NewImageBlockBase64(image.MIMEType, encoded))
	}
	blocks = append(blocks, anthropic.NewTextBlock(request.User))

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(request.Model),
		MaxTokens:   int64(p.settings.maxTokens(request)),
		Messages:    []anthropic.MessageParam{anthropic.NewUserMessage(blocks...)},
		Temperature: anthropic.Float(float64(p.settings.temperature(request))),
	}
	if request.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: request.System}}
	}

	p.logger.Debug("Sending request to Claude",
		"model", request.Model,
		"images", len(request.Images),
		"prompt_length", len(request.User))

	message, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic API error: %w", err)
	}

	var text strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return nil, llm.ErrEmptyResponse
	}

	return &llm.CompletionResponse{
		Text:         text.String(),
		Model:        string(message.Model),
		InputTokens:  int(message.Usage.InputTokens),
		OutputTokens: int(message.Usage.OutputTokens),
		Raw:          message,
	}, nil
}

// Close is a no-op; the SDK client holds no resources.
func (p *ClaudeProvider) Close() error {
	return nil
}
