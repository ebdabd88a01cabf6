package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewConfigDefaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "gemini-2.5-flash", cfg.DefaultModel)
	assert.Equal(t, "gemini-2.5-flash", cfg.CheapModel)
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.Equal(t, 5*time.Second, cfg.RetryBaseDelay)
	assert.Equal(t, 10*time.Second, cfg.ImageFetchTimeout)
	assert.Equal(t, 5, cfg.ImageConcurrency)
	assert.Equal(t, 8, cfg.ImageMaxExtract)
	assert.Equal(t, 1024, cfg.ImageMinBytes)
	assert.Equal(t, "goodthings", cfg.DefaultForum)
}

func TestNewConfigReadsEnvironment(t *testing.T) {
	t.Setenv("LLM_MODEL", "claude-sonnet-4-20250514")
	t.Setenv("LLM_MAX_ATTEMPTS", "5")
	t.Setenv("DAILY_BUDGET_USD", "12.5")
	t.Setenv("LOG_DEVELOPMENT", "false")
	t.Setenv("ENVIRONMENT", "production")

	cfg := NewConfig()

	assert.Equal(t, "claude-sonnet-4-20250514", cfg.DefaultModel)
	assert.Equal(t, 5, cfg.MaxAttempts)
	assert.Equal(t, 12.5, cfg.DailyBudgetUSD)
	assert.False(t, cfg.LogDevelopment)
	assert.True(t, cfg.IsProduction())
}

func TestNewConfigIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("IMAGE_CONCURRENCY", "many")
	t.Setenv("LLM_TEMPERATURE", "warm")

	cfg := NewConfig()

	assert.Equal(t, 5, cfg.ImageConcurrency)
	assert.Equal(t, float32(0.7), cfg.Temperature)
}
