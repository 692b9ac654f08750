package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"tokoshop/internal/models"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// ErrCacheMiss is returned by Get when the key is absent.
var ErrCacheMiss = errors.New("cache miss")

// ProductSource is the authoritative catalog behind the cache.
type ProductSource interface {
	GetByID(ctx context.Context, id uint) (*models.Product, error)
}

// ProductCache is a read-through redis cache in front of a ProductSource.
// Redis failures are logged and fall back to the source.
type ProductCache struct {
	client *redis.Client
	source ProductSource
	ttl    time.Duration
	sfg    singleflight.Group // collapses concurrent misses for the same product
}

func NewProductCache(client *redis.Client, source ProductSource, ttl time.Duration) *ProductCache {
	return &ProductCache{
		client: client,
		source: source,
		ttl:    ttl,
	}
}

// GetByID returns the cached product or loads it from the source.
func (c *ProductCache) GetByID(ctx context.Context, id uint) (*models.Product, error) {
	v, err, _ := c.sfg.Do(cacheKey(id), func() (interface{}, error) {
		product, err := c.Get(ctx, id)
		if err == nil {
			return product, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			log.Printf("product cache get error: %v", err)
		}

		product, err = c.source.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if errSet := c.Set(ctx, product); errSet != nil {
			log.Printf("product cache set error: %v", errSet)
		}
		return product, nil
	})
	if err != nil {
		return nil, err
	}
	product := *v.(*models.Product)
	return &product, nil
}

func (c *ProductCache) Get(ctx context.Context, id uint) (*models.Product, error) {
	data, err := c.client.Get(ctx, cacheKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var product models.Product
	if err := json.Unmarshal(data, &product); err != nil {
		return nil, fmt.Errorf("unmarshal product failed: %w", err)
	}
	return &product, nil
}

func (c *ProductCache) Set(ctx context.Context, product *models.Product) error {
	data, err := json.Marshal(product)
	if err != nil {
		return fmt.Errorf("marshal product failed: %w", err)
	}
	if err := c.client.Set(ctx, cacheKey(product.ID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// Invalidate drops the cached copy of a product.
func (c *ProductCache) Invalidate(ctx context.Context, id uint) error {
	if err := c.client.Del(ctx, cacheKey(id)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func cacheKey(id uint) string {
	return fmt.Sprintf("product:%d", id)
}
