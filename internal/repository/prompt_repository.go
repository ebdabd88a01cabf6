package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/chynybekuuludastan/article_generator/internal/models"
)

// PromptRepository stores writing-style templates. It satisfies
// prompts.TemplateStore.
type PromptRepository interface {
	Repository
	LoadTemplate(ctx context.Context, id uint) (string, error)
	LoadDefault(ctx context.Context, userID *uint) (string, error)
	FindVisible(ctx context.Context, userID *uint) ([]models.PromptTemplate, error)
	SetDefault(ctx context.Context, id uint, userID *uint) error
}

type promptRepository struct {
	*BaseRepository
}

// NewPromptRepository creates a new prompt template repository
func NewPromptRepository(db *gorm.DB) PromptRepository {
	return &promptRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

// LoadTemplate returns a template's content by id.
func (r *promptRepository) LoadTemplate(ctx context.Context, id uint) (string, error) {
	var template models.PromptTemplate
	if err := r.FindByID(ctx, id, &template); err != nil {
		return "", err
	}
	return template.Content, nil
}

// LoadDefault resolves the caller's default template, then the global
// default, then the builtin template.
func (r *promptRepository) LoadDefault(ctx context.Context, userID *uint) (string, error) {
	db := r.DB.WithContext(ctx)
	var template models.PromptTemplate

	if userID != nil {
		err := db.Where("user_id = ? AND is_default = ?", *userID, true).Order("id").First(&template).Error
		if err == nil {
			return template.Content, nil
		}
		if err = translateError(err); err != ErrNotFound {
			return "", err
		}
	}

	err := db.Where("user_id IS NULL AND is_default = ?", true).Order("id").First(&template).Error
	if err == nil {
		return template.Content, nil
	}
	if err = translateError(err); err != ErrNotFound {
		return "", err
	}

	err = db.Where("is_builtin = ?", true).Order("id").First(&template).Error
	if err != nil {
		return "", translateError(err)
	}
	return template.Content, nil
}

// FindVisible lists global templates plus the caller's own.
func (r *promptRepository) FindVisible(ctx context.Context, userID *uint) ([]models.PromptTemplate, error) {
	var templates []models.PromptTemplate
	query := r.DB.WithContext(ctx).Where("user_id IS NULL")
	if userID != nil {
		query = query.Or("user_id = ?", *userID)
	}
	if err := query.Order("is_builtin DESC, id").Find(&templates).Error; err != nil {
		return nil, err
	}
	return templates, nil
}

// SetDefault marks one template as the default for its owner scope and
// clears the flag on the others.
func (r *promptRepository) SetDefault(ctx context.Context, id uint, userID *uint) error {
	return r.Transaction(ctx, func(tx *gorm.DB) error {
		var template models.PromptTemplate
		if err := tx.First(&template, id).Error; err != nil {
			return translateError(err)
		}

		scope := tx.Model(&models.PromptTemplate{})
		if userID == nil {
			scope = scope.Where("user_id IS NULL")
		} else {
			scope = scope.Where("user_id = ?", *userID)
		}
		if err := scope.Update("is_default", false).Error; err != nil {
			return err
		}

		return tx.Model(&template).Update("is_default", true).Error
	})
}
