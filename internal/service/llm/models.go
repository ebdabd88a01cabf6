package llm

import (
	"context"
	"time"
)

// ImagePart is an image payload ready to attach to a completion request.
type ImagePart struct {
	Data     []byte `json:"-"`
	MIMEType string `json:"mime_type"`
}

// CompletionRequest is a single system+user exchange with optional images.
type CompletionRequest struct {
	Model       string      `json:"model"`
	System      string      `json:"system,omitempty"`
	User        string      `json:"user"`
	Images      []ImagePart `json:"-"`
	Temperature float32     `json:"temperature,omitempty"` // zero uses the provider default
	MaxTokens   int         `json:"max_tokens,omitempty"`  // zero uses the provider default

	// MaxAttempts caps the retry budget below the service default when positive.
	MaxAttempts int `json:"-"`

	// RequireImages disables the text-only fallback on image errors.
	RequireImages bool `json:"-"`

	// TextOnlyUser replaces User when the images are dropped.
	TextOnlyUser string `json:"-"`

	UserID *uint `json:"user_id,omitempty"`
}

// CompletionResponse is the text produced by a provider plus accounting data.
type CompletionResponse struct {
	Text           string        `json:"text"`
	Model          string        `json:"model"`
	Provider       string        `json:"provider"`
	InputTokens    int           `json:"input_tokens"`
	OutputTokens   int           `json:"output_tokens"`
	ImagesSent     int           `json:"images_sent"`
	History        RetryHistory  `json:"history,omitempty"`
	ProcessingTime time.Duration `json:"processing_time,omitempty"`
	Raw            interface{}   `json:"-"`
}

// Provider is implemented by each vendor backend.
type Provider interface {
	// Complete sends one request to the vendor without retrying.
	Complete(ctx context.Context, request *CompletionRequest) (*CompletionResponse, error)

	// Family reports which model family the provider serves.
	Family() Family

	// GetName returns the provider label used for usage accounting.
	GetName() string

	Close() error
}

// Completer is the narrow view of Service used by the article and SEO layers.
type Completer interface {
	Complete(ctx context.Context, request *CompletionRequest) (*CompletionResponse, error)
}
