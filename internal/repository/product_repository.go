package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/chynybekuuludastan/article_generator/internal/models"
	"github.com/chynybekuuludastan/article_generator/internal/repository/cache"
)

// ProductRepository defines operations for Product model
type ProductRepository interface {
	Repository
	FindByIDs(ctx context.Context, ids []uint) ([]models.Product, error)
	FindByUserID(ctx context.Context, userID uint, page, pageSize int) ([]models.Product, int64, error)
}

type productRepository struct {
	*BaseRepository
	cache *cache.Repository
}

// NewProductRepository creates a product repository. cacheRepo may be nil.
func NewProductRepository(db *gorm.DB, cacheRepo *cache.Repository) ProductRepository {
	return &productRepository{
		BaseRepository: NewBaseRepository(db),
		cache:          cacheRepo,
	}
}

// FindByIDs returns the products in the order of ids with duplicates
// removed. Unknown ids are skipped.
func (r *productRepository) FindByIDs(ctx context.Context, ids []uint) ([]models.Product, error) {
	ordered := uniqueIDs(ids)
	if len(ordered) == 0 {
		return nil, nil
	}

	// Cache errors only cost a database round trip.
	found, _ := r.cache.GetProducts(ctx, ordered)

	var missing []uint
	for _, id := range ordered {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}

	if len(missing) > 0 {
		var rows []models.Product
		if err := r.DB.WithContext(ctx).Where("id IN ?", missing).Find(&rows).Error; err != nil {
			return nil, err
		}
		for _, row := range rows {
			found[row.ID] = row
		}
		_ = r.cache.CacheProducts(ctx, rows)
	}

	products := make([]models.Product, 0, len(ordered))
	for _, id := range ordered {
		if product, ok := found[id]; ok {
			products = append(products, product)
		}
	}
	return products, nil
}

// FindByUserID lists a user's products, newest first.
func (r *productRepository) FindByUserID(ctx context.Context, userID uint, page, pageSize int) ([]models.Product, int64, error) {
	var products []models.Product
	var count int64

	query := r.DB.WithContext(ctx).Model(&models.Product{}).Where("user_id = ?", userID)
	if err := query.Count(&count).Error; err != nil {
		return nil, 0, err
	}

	if page < 1 {
		page = 1
	}
	offset := (page - 1) * pageSize

	if err := query.Offset(offset).Limit(pageSize).Order("created_at DESC").Find(&products).Error; err != nil {
		return nil, 0, err
	}
	return products, count, nil
}

// Update saves the product and drops its cached copy.
func (r *productRepository) Update(ctx context.Context, entity interface{}) error {
	if err := r.BaseRepository.Update(ctx, entity); err != nil {
		return err
	}
	if product, ok := entity.(*models.Product); ok {
		return r.cache.InvalidateProduct(ctx, product.ID)
	}
	return nil
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]bool, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
