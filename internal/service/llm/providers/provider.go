package providers

import (
	"context"
	"errors"

	"github.com/chynybekuuludastan/article_generator/internal/service/llm"
)

// Settings carries the generation defaults applied when a request leaves
// temperature or output budget unset.
type Settings struct {
	Temperature float32
	MaxTokens   int
}

func (s Settings) temperature(request *llm.CompletionRequest) float32 {
	if request.Temperature > 0 {
		return request.Temperature
	}
	if s.Temperature > 0 {
		return s.Temperature
	}
	return 0.7
}

func (s Settings) maxTokens(request *llm.CompletionRequest) int {
	if request.MaxTokens > 0 {
		return request.MaxTokens
	}
	if s.MaxTokens > 0 {
		return s.MaxTokens
	}
	return 16384
}

// Config lists the credentials for every supported vendor.
type Config struct {
	GoogleAPIKey    string
	AnthropicAPIKey string
	Settings        Settings
}

// ErrNoCredentials is returned when no vendor key is configured.
var ErrNoCredentials = errors.New("no LLM API key configured")

// NewFromConfig builds one provider per vendor that has a key.
func NewFromConfig(ctx context.Context, cfg Config, logger llm.Logger) ([]llm.Provider, error) {
	var result []llm.Provider

	if cfg.GoogleAPIKey != "" {
		gemini, err := NewGeminiProvider(ctx, cfg.GoogleAPIKey, cfg.Settings, logger)
		if err != nil {
			return nil, err
		}
		result = append(result, gemini)
	}

	if cfg.AnthropicAPIKey != "" {
		claude, err := NewClaudeProvider(cfg.AnthropicAPIKey, cfg.Settings, logger)
		if err != nil {
			for _, provider := range result {
				_ = provider.Close()
			}
			return nil, err
		}
		result = append(result, claude)
	}

	if len(result) == 0 {
		return nil, ErrNoCredentials
	}
	return result, nil
}
