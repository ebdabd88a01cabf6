package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/chynybekuuludastan/article_generator/internal/models"
	"github.com/chynybekuuludastan/article_generator/internal/service/llm"
)

// FailureRepository persists diagnostic records for abandoned LLM requests.
type FailureRepository interface {
	Record(ctx context.Context, requestID, operation string, userID *uint, err error) (*models.GenerationFailure, error)
	Recent(ctx context.Context, userID *uint, limit int) ([]models.GenerationFailure, error)
}

type failureRepository struct {
	*BaseRepository
}

// NewFailureRepository creates a new failure repository
func NewFailureRepository(db *gorm.DB) FailureRepository {
	return &failureRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

// Record stores err with its retry history when it is an *llm.FatalError.
func (r *failureRepository) Record(ctx context.Context, requestID, operation string, userID *uint, err error) (*models.GenerationFailure, error) {
	failure := &models.GenerationFailure{
		RequestID: requestID,
		Operation: operation,
		UserID:    userID,
		Message:   err.Error(),
		History:   datatypes.JSON("[]"),
	}

	var fatal *llm.FatalError
	if errors.As(err, &fatal) {
		failure.Model = fatal.Model
		failure.Provider = fatal.Provider
		history := fatal.History
		if history == nil {
			history = llm.RetryHistory{}
		}
		data, marshalErr := json.Marshal(history)
		if marshalErr != nil {
			return nil, fmt.Errorf("failed to marshal retry history: %w", marshalErr)
		}
		failure.History = datatypes.JSON(data)
	}

	if err := r.Create(ctx, failure); err != nil {
		return nil, err
	}
	return failure, nil
}

// Recent lists the newest failures, optionally for one user.
func (r *failureRepository) Recent(ctx context.Context, userID *uint, limit int) ([]models.GenerationFailure, error) {
	if limit <= 0 {
		limit = 20
	}
	var failures []models.GenerationFailure
	query := r.DB.WithContext(ctx).Order("created_at DESC, id DESC").Limit(limit)
	if userID != nil {
		query = query.Where("user_id = ?", *userID)
	}
	if err := query.Find(&failures).Error; err != nil {
		return nil, err
	}
	return failures, nil
}
