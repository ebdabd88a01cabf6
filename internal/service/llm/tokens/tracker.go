package tokens

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"
	"unicode/utf8"
)

// DefaultPricingModel is used for models missing from the pricing table.
const DefaultPricingModel = "gemini-2.5-flash"

// Models maps model names to pricing information
var Models = map[string]ModelInfo{
	"gemini-2.5-flash": {
		TokensPerPromptDollar: 1_000_000 / 0.30, // $0.30 per 1M input tokens
		TokensPerOutputDollar: 1_000_000 / 2.50, // $2.50 per 1M output tokens
		MaxContextTokens:      1_048_576,
		Name:                  "gemini-2.5-flash",
		Provider:              "google",
	},
	"gemini-2.5-flash-lite": {
		TokensPerPromptDollar: 1_000_000 / 0.10,
		TokensPerOutputDollar: 1_000_000 / 0.40,
		MaxContextTokens:      1_048_576,
		Name:                  "gemini-2.5-flash-lite",
		Provider:              "google",
	},
	"gemini-2.5-pro": {
		TokensPerPromptDollar: 1_000_000 / 1.25,
		TokensPerOutputDollar: 1_000_000 / 10.0,
		MaxContextTokens:      1_048_576,
		Name:                  "gemini-2.5-pro",
		Provider:              "google",
	},
	"gemini-2.0-flash": {
		TokensPerPromptDollar: 1_000_000 / 0.10,
		TokensPerOutputDollar: 1_000_000 / 0.40,
		MaxContextTokens:      1_048_576,
		Name:                  "gemini-2.0-flash",
		Provider:              "google",
	},
	"claude-haiku-4-5": {
		TokensPerPromptDollar: 1_000_000 / 1.0,
		TokensPerOutputDollar: 1_000_000 / 5.0,
		MaxContextTokens:      200_000,
		Name:                  "claude-haiku-4-5",
		Provider:              "anthropic",
	},
	"claude-sonnet-4": {
		TokensPerPromptDollar: 1_000_000 / 3.0,
		TokensPerOutputDollar: 1_000_000 / 15.0,
		MaxContextTokens:      200_000,
		Name:                  "claude-sonnet-4",
		Provider:              "anthropic",
	},
	"claude-opus-4": {
		TokensPerPromptDollar: 1_000_000 / 15.0,
		TokensPerOutputDollar: 1_000_000 / 75.0,
		MaxContextTokens:      200_000,
		Name:                  "claude-opus-4",
		Provider:              "anthropic",
	},
}

// ModelInfo contains pricing information for a model
type ModelInfo struct {
	TokensPerPromptDollar float64 // Tokens per dollar for input
	TokensPerOutputDollar float64 // Tokens per dollar for output
	MaxContextTokens      int     // Maximum context length
	Name                  string  // Model name
	Provider              string  // Provider name
}

// UsageEntry represents a token usage entry
type UsageEntry struct {
	Timestamp        time.Time
	Model            string
	Provider         string
	PromptTokens     int
	CompletionTokens int
	PromptCost       float64
	CompletionCost   float64
	TotalCost        float64
	UserID           *uint
}

// Recorder persists usage entries. Implementations must be safe for
// concurrent use.
type Recorder interface {
	RecordUsage(ctx context.Context, entry UsageEntry) error
}

// RecorderFunc adapts a function to Recorder.
type RecorderFunc func(ctx context.Context, entry UsageEntry) error

func (f RecorderFunc) RecordUsage(ctx context.Context, entry UsageEntry) error {
	return f(ctx, entry)
}

// Fanout forwards each entry to every recorder and joins their errors.
type Fanout []Recorder

func (f Fanout) RecordUsage(ctx context.Context, entry UsageEntry) error {
	var errs []error
	for _, recorder := range f {
		if recorder == nil {
			continue
		}
		if err := recorder.RecordUsage(ctx, entry); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LookupModel returns pricing for a model. Dated identifiers such as
// "claude-sonnet-4-20250514" resolve to the longest known prefix.
func LookupModel(model string) (ModelInfo, bool) {
	if info, ok := Models[model]; ok {
		return info, true
	}

	candidates := make([]string, 0, len(Models))
	for name := range Models {
		if strings.HasPrefix(model, name) {
			candidates = append(candidates, name)
		}
	}
	if len(candidates) == 0 {
		return ModelInfo{}, false
	}
	sort.Slice(candidates, func(i, j int) bool {
		return len(candidates[i]) > len(candidates[j])
	})
	return Models[candidates[0]], true
}

// TokensToCost converts tokens to cost in USD for a given model
func TokensToCost(model string, promptTokens, completionTokens int) (float64, float64, float64) {
	modelInfo, ok := LookupModel(model)
	if !ok {
		modelInfo = Models[DefaultPricingModel]
	}

	promptCost := float64(promptTokens) / modelInfo.TokensPerPromptDollar
	completionCost := float64(completionTokens) / modelInfo.TokensPerOutputDollar
	return promptCost, completionCost, promptCost + completionCost
}

// WithCosts fills in the cost fields when the caller left them empty.
func (e UsageEntry) WithCosts() UsageEntry {
	if e.TotalCost == 0 {
		e.PromptCost, e.CompletionCost, e.TotalCost = TokensToCost(e.Model, e.PromptTokens, e.CompletionTokens)
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	return e
}

// EstimateTokens estimates the number of tokens in a string
// This is a very rough approximation; different models tokenize differently
func EstimateTokens(text string) int {
	return utf8.RuneCountInString(text) / 4
}

// EstimateCost gives a pre-flight cost estimate for a prompt and an expected
// completion size.
func EstimateCost(model, prompt string, completionTokens int) float64 {
	_, _, total := TokensToCost(model, EstimateTokens(prompt), completionTokens)
	return total
}

var usageLocation = time.FixedZone("Asia/Taipei", 8*60*60)

// UsageDate returns the accounting day for t in Asia/Taipei.
func UsageDate(t time.Time) string {
	return t.In(usageLocation).Format("2006-01-02")
}
