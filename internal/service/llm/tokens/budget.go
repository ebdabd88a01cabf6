package tokens

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
)

const defaultUsageTTL = 40 * 24 * time.Hour

// UsageSummary aggregates one (provider, model, user) bucket for a day.
type UsageSummary struct {
	Date         string  `json:"date"`
	Provider     string  `json:"provider"`
	Model        string  `json:"model"`
	UserID       uint    `json:"user_id"`
	Requests     int64   `json:"requests"`
	InputTokens  int64   `json:"input_tokens"`
	OutputTokens int64   `json:"output_tokens"`
	CostUSD      float64 `json:"cost_usd"`
}

// BudgetTracker keeps daily usage counters in Redis and enforces a daily
// spending cap.
type BudgetTracker struct {
	redisClient *redis.Client
	keyPrefix   string
	dailyBudget float64
	ttl         time.Duration
	now         func() time.Time
}

// NewBudgetTracker creates a new budget tracker. A non-positive budget
// disables the cap.
func NewBudgetTracker(client *redis.Client, dailyBudget float64) *BudgetTracker {
	return &BudgetTracker{
		redisClient: client,
		keyPrefix:   "llm_tokens:",
		dailyBudget: dailyBudget,
		ttl:         defaultUsageTTL,
		now:         time.Now,
	}
}

// RecordUsage increments the per-bucket hash and the daily cost total.
func (t *BudgetTracker) RecordUsage(ctx context.Context, entry UsageEntry) error {
	entry = entry.WithCosts()
	day := UsageDate(entry.Timestamp)

	var userID uint
	if entry.UserID != nil {
		userID = *entry.UserID
	}

	usageKey := t.usageKey(day, entry.Provider, entry.Model, userID)
	costKey := t.costKey(day)

	pipe := t.redisClient.TxPipeline()
	pipe.HIncrBy(ctx, usageKey, "requests", 1)
	pipe.HIncrBy(ctx, usageKey, "input_tokens", int64(entry.PromptTokens))
	pipe.HIncrBy(ctx, usageKey, "output_tokens", int64(entry.CompletionTokens))
	pipe.HIncrByFloat(ctx, usageKey, "cost_usd", entry.TotalCost)
	pipe.Expire(ctx, usageKey, t.ttl)
	pipe.IncrByFloat(ctx, costKey, entry.TotalCost)
	pipe.Expire(ctx, costKey, t.ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record usage for %s/%s: %w", entry.Provider, entry.Model, err)
	}
	return nil
}

// DailyCost returns the USD spent on the given day.
func (t *BudgetTracker) DailyCost(ctx context.Context, day string) (float64, error) {
	cost, err := t.redisClient.Get(ctx, t.costKey(day)).Float64()
	if err == redis.Nil {
		return 0, nil
	}
	return cost, err
}

// IsBudgetExceeded checks if today's spend reached the daily budget
func (t *BudgetTracker) IsBudgetExceeded(ctx context.Context) (bool, error) {
	if t.dailyBudget <= 0 {
		return false, nil
	}
	cost, err := t.DailyCost(ctx, UsageDate(t.now()))
	if err != nil {
		return false, err
	}
	return cost >= t.dailyBudget, nil
}

// RemainingBudget returns the remaining daily budget. It returns -1 when no
// cap is configured.
func (t *BudgetTracker) RemainingBudget(ctx context.Context) (float64, error) {
	if t.dailyBudget <= 0 {
		return -1, nil
	}
	cost, err := t.DailyCost(ctx, UsageDate(t.now()))
	if err != nil {
		return 0, err
	}
	if cost >= t.dailyBudget {
		return 0, nil
	}
	return t.dailyBudget - cost, nil
}

// DailyBudget returns the configured cap in USD.
func (t *BudgetTracker) DailyBudget() float64 {
	return t.dailyBudget
}

// Today returns the current accounting day.
func (t *BudgetTracker) Today() string {
	return UsageDate(t.now())
}

// DailySummary lists every bucket recorded for the day, sorted by provider,
// model and user.
func (t *BudgetTracker) DailySummary(ctx context.Context, day string) ([]UsageSummary, error) {
	pattern := t.keyPrefix + "usage:" + day + ":*"

	var keys []string
	var cursor uint64
	for {
		batch, next, err := t.redisClient.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return nil, fmt.Errorf("scan usage keys: %w", err)
		}
		keys = append(keys, batch...)
		cursor = next
		if cursor == 0 {
			break
		}
	}

	summaries := make([]UsageSummary, 0, len(keys))
	for _, key := range keys {
		fields, err := t.redisClient.HGetAll(ctx, key).Result()
		if err != nil {
			return nil, fmt.Errorf("read usage bucket %s: %w", key, err)
		}
		summary, ok := t.parseUsageKey(key, day)
		if !ok {
			continue
		}
		summary.Requests, _ = strconv.ParseInt(fields["requests"], 10, 64)
		summary.InputTokens, _ = strconv.ParseInt(fields["input_tokens"], 10, 64)
		summary.OutputTokens, _ = strconv.ParseInt(fields["output_tokens"], 10, 64)
		summary.CostUSD, _ = strconv.ParseFloat(fields["cost_usd"], 64)
		summaries = append(summaries, summary)
	}

	sort.Slice(summaries, func(i, j int) bool {
		a, b := summaries[i], summaries[j]
		if a.Provider != b.Provider {
			return a.Provider < b.Provider
		}
		if a.Model != b.Model {
			return a.Model < b.Model
		}
		return a.UserID < b.UserID
	})
	return summaries, nil
}

func (t *BudgetTracker) usageKey(day, provider, model string, userID uint) string {
	return fmt.Sprintf("%susage:%s:%s:%s:%d", t.keyPrefix, day, provider, model, userID)
}

func (t *BudgetTracker) costKey(day string) string {
	return t.keyPrefix + "cost:" + day
}

func (t *BudgetTracker) parseUsageKey(key, day string) (UsageSummary, bool) {
	rest := strings.TrimPrefix(key, t.keyPrefix+"usage:"+day+":")
	first := strings.Index(rest, ":")
	last := strings.LastIndex(rest, ":")
	if first < 0 || last <= first {
		return UsageSummary{}, false
	}
	userID, err := strconv.ParseUint(rest[last+1:], 10, 64)
	if err != nil {
		return UsageSummary{}, false
	}
	return UsageSummary{
		Date:     day,
		Provider: rest[:first],
		Model:    rest[first+1 : last],
		UserID:   uint(userID),
	}, true
}
