package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/chynybekuuludastan/article_generator/internal/models"
	"github.com/chynybekuuludastan/article_generator/internal/service/llm/tokens"
)

// UsageTotals sums usage rows over a date range.
type UsageTotals struct {
	Requests     int64   `json:"requests"`
	InputTokens  int64   `json:"input_tokens"`
	OutputTokens int64   `json:"output_tokens"`
	CostUSD      float64 `json:"cost_usd"`
}

// UsageRepository keeps durable per-day usage counters. It satisfies
// tokens.Recorder.
type UsageRepository interface {
	RecordUsage(ctx context.Context, entry tokens.UsageEntry) error
	FindByDateRange(ctx context.Context, from, to string, userID *uint) ([]models.UsageRecord, error)
	Totals(ctx context.Context, from, to string, userID *uint) (UsageTotals, error)
}

type usageRepository struct {
	*BaseRepository
}

// NewUsageRepository creates a new usage repository
func NewUsageRepository(db *gorm.DB) UsageRepository {
	return &usageRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

// RecordUsage adds one request to the (provider, model, day, user) bucket,
// creating the bucket on first use.
func (r *usageRepository) RecordUsage(ctx context.Context, entry tokens.UsageEntry) error {
	entry = entry.WithCosts()

	var userID uint
	if entry.UserID != nil {
		userID = *entry.UserID
	}

	record := models.UsageRecord{
		Provider:     entry.Provider,
		Model:        entry.Model,
		UsageDate:    tokens.UsageDate(entry.Timestamp),
		UserID:       userID,
		Requests:     1,
		InputTokens:  int64(entry.PromptTokens),
		OutputTokens: int64(entry.CompletionTokens),
		CostUSD:      entry.TotalCost,
	}

	return r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "provider"}, {Name: "model"}, {Name: "usage_date"}, {Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"requests":      gorm.Expr("usage_records.requests + excluded.requests"),
			"input_tokens":  gorm.Expr("usage_records.input_tokens + excluded.input_tokens"),
			"output_tokens": gorm.Expr("usage_records.output_tokens + excluded.output_tokens"),
			"cost_usd":      gorm.Expr("usage_records.cost_usd + excluded.cost_usd"),
			"updated_at":    gorm.Expr("excluded.updated_at"),
		}),
	}).Create(&record).Error
}

func (r *usageRepository) rangeQuery(ctx context.Context, from, to string, userID *uint) *gorm.DB {
	query := r.DB.WithContext(ctx).Model(&models.UsageRecord{}).
		Where("usage_date >= ? AND usage_date <= ?", from, to)
	if userID != nil {
		query = query.Where("user_id = ?", *userID)
	}
	return query
}

// FindByDateRange lists buckets between two inclusive YYYY-MM-DD dates.
func (r *usageRepository) FindByDateRange(ctx context.Context, from, to string, userID *uint) ([]models.UsageRecord, error) {
	var records []models.UsageRecord
	err := r.rangeQuery(ctx, from, to, userID).
		Order("usage_date, provider, model, user_id").
		Find(&records).Error
	return records, err
}

// Totals sums the buckets between two inclusive dates.
func (r *usageRepository) Totals(ctx context.Context, from, to string, userID *uint) (UsageTotals, error) {
	var totals UsageTotals
	err := r.rangeQuery(ctx, from, to, userID).
		Select("COALESCE(SUM(requests), 0) AS requests, " +
			"COALESCE(SUM(input_tokens), 0) AS input_tokens, " +
			"COALESCE(SUM(output_tokens), 0) AS output_tokens, " +
			"COALESCE(SUM(cost_usd), 0) AS cost_usd").
		Scan(&totals).Error
	return totals, err
}
