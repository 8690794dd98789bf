// Package redis 为商品仓储提供 Redis 旁路缓存。
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/wyfcoding/storefront/internal/catalog/domain"
	"github.com/wyfcoding/storefront/pkg/cache"
	"github.com/wyfcoding/storefront/pkg/logger"
	"github.com/wyfcoding/storefront/pkg/metrics"
)

const (
	productKeyPrefix = "product:"
	allProductsKey   = "products:all"
)

// CachedProductRepository 先读缓存，未命中回源并回填；写操作后失效相关缓存。
// 缓存故障只记录日志，读写仍走底层仓储。
type CachedProductRepository struct {
	next      domain.ProductRepository
	cache     *cache.RedisCache
	ttl       time.Duration
	collector metrics.Collector
}

// NewCachedProductRepository 创建带缓存的商品仓储
func NewCachedProductRepository(next domain.ProductRepository, c *cache.RedisCache, ttl time.Duration, collector metrics.Collector) *CachedProductRepository {
	return &CachedProductRepository{next: next, cache: c, ttl: ttl, collector: collector}
}

func productKey(id string) string {
	return productKeyPrefix + id
}

// Save 写入后失效缓存
func (r *CachedProductRepository) Save(ctx context.Context, product *domain.Product) error {
	if err := r.next.Save(ctx, product); err != nil {
		return err
	}
	r.Invalidate(ctx, product.ID)
	return nil
}

// Update 更新后失效缓存
func (r *CachedProductRepository) Update(ctx context.Context, id string, patch domain.ProductPatch) (before, after *domain.Product, err error) {
	before, after, err = r.next.Update(ctx, id, patch)
	if err != nil {
		return nil, nil, err
	}
	r.Invalidate(ctx, id)
	return before, after, nil
}

// Get 读取单个商品
func (r *CachedProductRepository) Get(ctx context.Context, id string) (*domain.Product, error) {
	var cached domain.Product
	hit, err := r.cache.GetJSON(ctx, productKey(id), &cached)
	if err != nil {
		logger.Warn(ctx, "catalog cache read failed", "key", productKey(id), "error", err)
	}
	r.collector.RecordCacheLookup(hit)
	if hit {
		return &cached, nil
	}

	product, err := r.next.Get(ctx, id)
	if err != nil || product == nil {
		return product, err
	}
	if err := r.cache.SetJSON(ctx, productKey(id), product, r.ttl); err != nil {
		logger.Warn(ctx, "catalog cache fill failed", "key", productKey(id), "error", err)
	}
	return product, nil
}

// List 读取全部商品
func (r *CachedProductRepository) List(ctx context.Context) ([]*domain.Product, error) {
	var cached []*domain.Product
	hit, err := r.cache.GetJSON(ctx, allProductsKey, &cached)
	if err != nil {
		logger.Warn(ctx, "catalog cache read failed", "key", allProductsKey, "error", err)
	}
	r.collector.RecordCacheLookup(hit)
	if hit {
		return cached, nil
	}

	products, err := r.next.List(ctx)
	if err != nil {
		return nil, err
	}
	if err := r.cache.SetJSON(ctx, allProductsKey, products, r.ttl); err != nil {
		logger.Warn(ctx, "catalog cache fill failed", "key", allProductsKey, "error", err)
	}
	return products, nil
}

// Delete 删除后失效缓存
func (r *CachedProductRepository) Delete(ctx context.Context, id string) (bool, error) {
	deleted, err := r.next.Delete(ctx, id)
	if err != nil {
		return false, err
	}
	r.Invalidate(ctx, id)
	return deleted, nil
}

// Invalidate 失效指定商品与全量列表缓存，库存预留提交后也会调用
func (r *CachedProductRepository) Invalidate(ctx context.Context, ids ...string) {
	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, productKey(id))
	}
	keys = append(keys, allProductsKey)
	if err := r.cache.Delete(ctx, keys...); err != nil {
		logger.Warn(ctx, "catalog cache invalidation failed", "keys", fmt.Sprint(keys), "error", err)
	}
}
