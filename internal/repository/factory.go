package repository

import (
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"

	"github.com/chynybekuuludastan/article_generator/internal/repository/cache"
)

// Factory manages all repositories
type Factory struct {
	ProductRepository ProductRepository
	PromptRepository  PromptRepository
	UsageRepository   UsageRepository
	FailureRepository FailureRepository
}

// NewRepositoryFactory creates a repository factory with all repositories.
// redisClient may be nil, which disables the product cache.
func NewRepositoryFactory(db *gorm.DB, redisClient *redis.Client) *Factory {
	return &Factory{
		ProductRepository: NewProductRepository(db, cache.NewRepository(redisClient)),
		PromptRepository:  NewPromptRepository(db),
		UsageRepository:   NewUsageRepository(db),
		FailureRepository: NewFailureRepository(db),
	}
}
