package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/chynybekuuludastan/article_generator/internal/models"
)

const (
	// Cache key prefixes
	KeyPrefixProduct = "product:"

	// Default TTL for cached items
	DefaultTTL = 1 * time.Hour
)

// Repository is a read-through cache for product rows. A nil client turns
// every call into a no-op miss.
type Repository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRepository creates a new Redis cache repository
func NewRepository(client *redis.Client) *Repository {
	return &Repository{
		client: client,
		ttl:    DefaultTTL,
	}
}

func productKey(id uint) string {
	return KeyPrefixProduct + strconv.FormatUint(uint64(id), 10)
}

// CacheProducts stores each product under its own key.
func (r *Repository) CacheProducts(ctx context.Context, products []models.Product) error {
	if r == nil || r.client == nil || len(products) == 0 {
		return nil
	}

	pipe := r.client.Pipeline()
	for i := range products {
		data, err := json.Marshal(&products[i])
		if err != nil {
			return fmt.Errorf("failed to marshal product %d: %w", products[i].ID, err)
		}
		pipe.Set(ctx, productKey(products[i].ID), data, r.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// GetProducts returns the cached subset of ids keyed by product id.
func (r *Repository) GetProducts(ctx context.Context, ids []uint) (map[uint]models.Product, error) {
	found := make(map[uint]models.Product)
	if r == nil || r.client == nil || len(ids) == 0 {
		return found, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = productKey(id)
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return found, err
	}

	for _, value := range values {
		raw, ok := value.(string)
		if !ok {
			continue // Cache miss
		}
		var product models.Product
		if err := json.Unmarshal([]byte(raw), &product); err != nil {
			return found, fmt.Errorf("failed to unmarshal product: %w", err)
		}
		found[product.ID] = product
	}
	return found, nil
}

// InvalidateProduct removes a product from the cache
func (r *Repository) InvalidateProduct(ctx context.Context, id uint) error {
	if r == nil || r.client == nil {
		return nil
	}
	return r.client.Del(ctx, productKey(id)).Err()
}
