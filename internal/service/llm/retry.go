package llm

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// ErrorClass is the retry decision taken for a failed attempt.
type ErrorClass string

const (
	ErrorClassTransient ErrorClass = "transient"
	ErrorClassImage     ErrorClass = "image"
	ErrorClassFatal     ErrorClass = "fatal"
)

const maxHistoryMessageRunes = 300

var (
	// A status code counts only at the start of the message or right after
	// an "error", "status" or "code" label or a quoted request URL.
	transientStatusPattern = regexp.MustCompile(`(?:^|error:?\s+|status(?:\s+code)?:?\s+|code:?\s+|":\s+)(?:500|502|503|504|529)\b`)

	transientIndicators = []string{
		"timeout",
		"timed out",
		"deadline exceeded",
		"unavailable",
		"overloaded",
		"internal server error",
		"bad gateway",
		"connection reset",
		"resource exhausted",
	}

	imageIndicators = []string{
		"image",
		"mime",
		"inline_data",
		"inlinedata",
		"unsupported media",
	}
)

// AttemptRecord describes one failed attempt.
type AttemptRecord struct {
	Attempt    int        `json:"attempt"`
	ElapsedMS  int64      `json:"elapsed_ms"`
	ErrorClass ErrorClass `json:"error_class"`
	Message    string     `json:"message"`
}

// RetryHistory lists failed attempts in order.
type RetryHistory []AttemptRecord

func (h RetryHistory) add(attempt int, elapsed time.Duration, class ErrorClass, err error) RetryHistory {
	return append(h, AttemptRecord{
		Attempt:    attempt,
		ElapsedMS:  elapsed.Milliseconds(),
		ErrorClass: class,
		Message:    truncateRunes(err.Error(), maxHistoryMessageRunes),
	})
}

// String renders the history as a short diagnostic report.
func (h RetryHistory) String() string {
	if len(h) == 0 {
		return "no failed attempts"
	}
	var sb strings.Builder
	for i, record := range h {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "attempt %d (%s, %.1fs): %s",
			record.Attempt, record.ErrorClass, float64(record.ElapsedMS)/1000, record.Message)
	}
	return sb.String()
}

// FatalError is returned once a request cannot succeed. It carries the full
// attempt history so callers can persist or render it.
type FatalError struct {
	Message  string       `json:"message"`
	Model    string       `json:"model"`
	Provider string       `json:"provider,omitempty"`
	History  RetryHistory `json:"history"`
	Err      error        `json:"-"`
}

func (e *FatalError) Error() string {
	if e.Provider != "" {
		return fmt.Sprintf("%s (model %s via %s)", e.Message, e.Model, e.Provider)
	}
	return fmt.Sprintf("%s (model %s)", e.Message, e.Model)
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// AsFatal unwraps err into a *FatalError when it is one.
func AsFatal(err error) (*FatalError, bool) {
	var fatal *FatalError
	if errors.As(err, &fatal) {
		return fatal, true
	}
	return nil, false
}

// ClassifyError decides how the executor reacts to a provider error. Image
// errors are only recognised while images are still attached.
func ClassifyError(err error, imagesAttached bool) ErrorClass {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.Canceled) {
		return ErrorClassFatal
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorClassTransient
	}

	message := strings.ToLower(err.Error())
	if imagesAttached && containsAny(message, imageIndicators) {
		return ErrorClassImage
	}
	if transientStatusPattern.MatchString(message) || containsAny(message, transientIndicators) {
		return ErrorClassTransient
	}
	return ErrorClassFatal
}

// backoff returns the wait before the next attempt: base, 2*base, 4*base...
func backoff(base time.Duration, attempt int) time.Duration {
	return base * time.Duration(1<<uint(attempt))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func containsAny(s string, needles []string) bool {
	for _, needle := range needles {
		if strings.Contains(s, needle) {
			return true
		}
	}
	return false
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
