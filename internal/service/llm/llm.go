package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/chynybekuuludastan/article_generator/internal/service/llm/tokens"
)

// Logger interface for service logging
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// Common errors
var (
	ErrNoProvider        = errors.New("no LLM provider registered for model family")
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
	ErrEmptyResponse     = errors.New("LLM returned an empty response")
)

// NopLogger discards every message.
type NopLogger struct{}

func (NopLogger) Debug(string, ...interface{}) {}
func (NopLogger) Info(string, ...interface{})  {}
func (NopLogger) Warn(string, ...interface{})  {}
func (NopLogger) Error(string, ...interface{}) {}

// Service routes completions to the provider serving the model's family and
// retries transient failures with exponential backoff.
type Service struct {
	providers   map[Family]Provider
	limiter     *rate.Limiter
	maxAttempts int
	retryDelay  time.Duration
	recorder    tokens.Recorder
	sleep       func(ctx context.Context, d time.Duration) error
	mutex       sync.RWMutex
	logger      Logger
}

// ServiceOptions contains configuration for the LLM service
type ServiceOptions struct {
	RateLimit   rate.Limit
	RateBurst   int
	MaxAttempts int
	RetryDelay  time.Duration
	Recorder    tokens.Recorder
	Logger      Logger

	// Sleep replaces the backoff wait; tests use it to observe delays.
	Sleep func(ctx context.Context, d time.Duration) error
}

// NewService creates a new LLM service with the specified options
func NewService(opts ServiceOptions) *Service {
	if opts.RateLimit == 0 {
		opts.RateLimit = rate.Limit(2)
	}
	if opts.RateBurst == 0 {
		opts.RateBurst = 1
	}
	if opts.MaxAttempts == 0 {
		opts.MaxAttempts = 3
	}
	if opts.RetryDelay == 0 {
		opts.RetryDelay = 5 * time.Second
	}
	if opts.Sleep == nil {
		opts.Sleep = sleepContext
	}
	if opts.Logger == nil {
		opts.Logger = NopLogger{}
	}

	return &Service{
		providers:   make(map[Family]Provider),
		limiter:     rate.NewLimiter(opts.RateLimit, opts.RateBurst),
		maxAttempts: opts.MaxAttempts,
		retryDelay:  opts.RetryDelay,
		recorder:    opts.Recorder,
		sleep:       opts.Sleep,
		logger:      opts.Logger,
	}
}

// RegisterProvider registers an LLM provider for its family, replacing any
// provider already registered for it.
func (s *Service) RegisterProvider(provider Provider) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.providers[provider.Family()] = provider
	s.logger.Info("Registered LLM provider",
		"provider", provider.GetName(),
		"family", provider.Family())
}

// GetProvider returns the provider serving the given family.
func (s *Service) GetProvider(family Family) (Provider, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	provider, exists := s.providers[family]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrNoProvider, family)
	}
	return provider, nil
}

// Close releases every registered provider.
func (s *Service) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	var errs []error
	for family, provider := range s.providers {
		if err := provider.Close(); err != nil {
			errs = append(errs, err)
		}
		delete(s.providers, family)
	}
	return errors.Join(errs...)
}

// Complete runs the request against the provider for the model's family.
//
// Transient failures are retried up to the attempt budget with backoff of
// RetryDelay, 2*RetryDelay and so on; no wait follows the final attempt. An
// image rejection drops the images and retries immediately in text-only mode,
// once. Anything else fails at once. Every failure is returned as *FatalError.
func (s *Service) Complete(ctx context.Context, request *CompletionRequest) (*CompletionResponse, error) {
	startTime := time.Now()
	family := FamilyForModel(request.Model)

	provider, err := s.GetProvider(family)
	if err != nil {
		return nil, &FatalError{Message: err.Error(), Model: request.Model, Err: err}
	}

	current := *request
	if len(current.Images) > 0 && !family.AcceptsImages() {
		s.logger.Warn("Dropping images for text-only model family",
			"model", current.Model,
			"images", len(current.Images))
		dropImages(&current)
	}

	maxAttempts := s.maxAttempts
	if request.MaxAttempts > 0 && request.MaxAttempts < maxAttempts {
		maxAttempts = request.MaxAttempts
	}

	var history RetryHistory
	var lastErr error

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err := s.limiter.Wait(ctx); err != nil {
			history = history.add(attempt+1, time.Since(startTime), ErrorClassFatal, err)
			return nil, s.fatal(&current, provider, history, fmt.Errorf("%w: %v", ErrRateLimitExceeded, err))
		}

		response, err := provider.Complete(ctx, &current)
		if err == nil && strings.TrimSpace(response.Text) == "" {
			err = ErrEmptyResponse
		}
		if err == nil {
			if response.Model == "" {
				response.Model = current.Model
			}
			response.Provider = provider.GetName()
			response.ImagesSent = len(current.Images)
			response.History = history
			response.ProcessingTime = time.Since(startTime)

			s.logger.Info("LLM request completed",
				"provider", response.Provider,
				"model", response.Model,
				"attempts", attempt+1,
				"input_tokens", response.InputTokens,
				"output_tokens", response.OutputTokens,
				"time", response.ProcessingTime)

			s.recordUsage(ctx, &current, response)
			return response, nil
		}

		lastErr = err
		class := ClassifyError(err, len(current.Images) > 0)
		history = history.add(attempt+1, time.Since(startTime), class, err)

		s.logger.Warn("LLM request failed",
			"provider", provider.GetName(),
			"model", current.Model,
			"attempt", attempt+1,
			"class", class,
			"error", err)

		switch class {
		case ErrorClassImage:
			if current.RequireImages {
				return nil, s.fatal(&current, provider, history, err)
			}
			dropImages(&current)
			if attempt+1 == maxAttempts {
				// the text-only retry is owed even when the budget is spent
				maxAttempts++
			}
			s.logger.Info("Retrying without images", "model", current.Model)

		case ErrorClassTransient:
			if attempt+1 >= maxAttempts {
				continue
			}
			delay := backoff(s.retryDelay, attempt)
			s.logger.Info("Retrying LLM request",
				"attempt", attempt+2,
				"delay", delay,
				"model", current.Model)
			if err := s.sleep(ctx, delay); err != nil {
				return nil, s.fatal(&current, provider, history, err)
			}

		default:
			return nil, s.fatal(&current, provider, history, err)
		}
	}

	return nil, s.fatal(&current, provider, history,
		fmt.Errorf("all %d attempts failed: %w", len(history), lastErr))
}

func dropImages(request *CompletionRequest) {
	request.Images = nil
	if request.TextOnlyUser != "" {
		request.User = request.TextOnlyUser
	}
}

func (s *Service) fatal(request *CompletionRequest, provider Provider, history RetryHistory, err error) *FatalError {
	fatal := &FatalError{
		Message:  err.Error(),
		Model:    request.Model,
		Provider: provider.GetName(),
		History:  history,
		Err:      err,
	}
	s.logger.Error("LLM request abandoned",
		"provider", fatal.Provider,
		"model", fatal.Model,
		"attempts", len(history),
		"error", err)
	return fatal
}

// recordUsage hands the token counts to the recorder. Tracking failures never
// fail the completion.
func (s *Service) recordUsage(ctx context.Context, request *CompletionRequest, response *CompletionResponse) {
	if s.recorder == nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Usage recorder panicked", "panic", r, "model", response.Model)
		}
	}()

	entry := tokens.UsageEntry{
		Timestamp:        time.Now(),
		Provider:         response.Provider,
		Model:            response.Model,
		PromptTokens:     response.InputTokens,
		CompletionTokens: response.OutputTokens,
		UserID:           request.UserID,
	}
	if err := s.recorder.RecordUsage(ctx, entry); err != nil {
		s.logger.Warn("Failed to record token usage",
			"error", err,
			"provider", entry.Provider,
			"model", entry.Model)
	}
}
