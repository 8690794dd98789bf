// Package mysql 提供了商品仓储接口的 GORM 实现。
package mysql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/storefront/internal/catalog/domain"
	"github.com/wyfcoding/storefront/pkg/db"
	"github.com/wyfcoding/storefront/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProductModel 商品数据库模型，直接映射 products 表。
type ProductModel struct {
	gorm.Model
	ProductID   string          `gorm:"column:product_id;type:varchar(32);uniqueIndex;not null;comment:商品唯一标识"`
	Name        string          `gorm:"column:name;type:varchar(255);not null"`
	Description string          `gorm:"column:description;type:text"`
	Price       decimal.Decimal `gorm:"column:price;type:decimal(20,2);not null"`
	Category    string          `gorm:"column:category;type:varchar(100);index"`
	Brand       string          `gorm:"column:brand;type:varchar(100);index"`
	Stock       int             `gorm:"column:stock;not null;default:0;comment:可售库存"`
	Rating      float64         `gorm:"column:rating;not null;default:0"`
	Images      []string        `gorm:"column:images;type:text;serializer:json"`
}

// TableName 指定表名
func (ProductModel) TableName() string {
	return "products"
}

// productRepositoryImpl 是 domain.ProductRepository 接口的 GORM 实现。
type productRepositoryImpl struct {
	db *gorm.DB
}

// NewProductRepository 创建商品仓储实例
func NewProductRepository(gdb *gorm.DB) domain.ProductRepository {
	return &productRepositoryImpl{db: gdb}
}

// Save 实现 domain.ProductRepository.Save
func (r *productRepositoryImpl) Save(ctx context.Context, product *domain.Product) error {
	model := toModel(product)
	err := db.Conn(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "product_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "description", "price", "category", "brand", "stock", "rating", "images", "updated_at"}),
	}).Create(model).Error
	if err != nil {
		logger.Error(ctx, "product_repository.save failed", "product_id", product.ID, "error", err)
		return fmt.Errorf("failed to save product: %w", err)
	}
	if product.CreatedAt.IsZero() {
		product.CreatedAt = model.CreatedAt
	}
	product.UpdatedAt = model.UpdatedAt
	return nil
}

// Update 实现 domain.ProductRepository.Update，行锁内只更新提供的列，库存预留不会被覆盖
func (r *productRepositoryImpl) Update(ctx context.Context, id string, patch domain.ProductPatch) (before, after *domain.Product, err error) {
	err = db.Conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		var model ProductModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("product_id = ?", id).
			First(&model).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		before = toDomain(&model)

		updated := *before
		patch.Apply(&updated)
		values := toModel(&updated)
		if err := tx.Model(&model).Select(patchColumns(patch)).Updates(values).Error; err != nil {
			return err
		}
		updated.UpdatedAt = values.UpdatedAt
		after = &updated
		return nil
	})
	if err != nil {
		logger.Error(ctx, "product_repository.update failed", "product_id", id, "error", err)
		return nil, nil, fmt.Errorf("failed to update product: %w", err)
	}
	return before, after, nil
}

// Get 实现 domain.ProductRepository.Get
func (r *productRepositoryImpl) Get(ctx context.Context, id string) (*domain.Product, error) {
	var model ProductModel
	if err := db.Conn(ctx, r.db).Where("product_id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		logger.Error(ctx, "product_repository.get failed", "product_id", id, "error", err)
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return toDomain(&model), nil
}

// List 实现 domain.ProductRepository.List
func (r *productRepositoryImpl) List(ctx context.Context) ([]*domain.Product, error) {
	var models []ProductModel
	if err := db.Conn(ctx, r.db).Order("created_at asc, id asc").Find(&models).Error; err != nil {
		logger.Error(ctx, "product_repository.list failed", "error", err)
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	products := make([]*domain.Product, len(models))
	for i := range models {
		products[i] = toDomain(&models[i])
	}
	return products, nil
}

// Delete 实现 domain.ProductRepository.Delete，物理删除
func (r *productRepositoryImpl) Delete(ctx context.Context, id string) (bool, error) {
	res := db.Conn(ctx, r.db).Unscoped().Where("product_id = ?", id).Delete(&ProductModel{})
	if res.Error != nil {
		logger.Error(ctx, "product_repository.delete failed", "product_id", id, "error", res.Error)
		return false, fmt.Errorf("failed to delete product: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func patchColumns(p domain.ProductPatch) []string {
	cols := []string{"updated_at"}
	if p.Name != nil {
		cols = append(cols, "name")
	}
	if p.Description != nil {
		cols = append(cols, "description")
	}
	if p.Category != nil {
		cols = append(cols, "category")
	}
	if p.Brand != nil {
		cols = append(cols, "brand")
	}
	if p.Price != nil {
		cols = append(cols, "price")
	}
	if p.Stock != nil {
		cols = append(cols, "stock")
	}
	if p.Rating != nil {
		cols = append(cols, "rating")
	}
	if p.Images != nil {
		cols = append(cols, "images")
	}
	return cols
}

func toModel(p *domain.Product) *ProductModel {
	m := &ProductModel{
		ProductID:   p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Category:    p.Category,
		Brand:       p.Brand,
		Stock:       p.Stock,
		Rating:      p.Rating,
		Images:      p.Images,
	}
	if !p.CreatedAt.IsZero() {
		m.CreatedAt = p.CreatedAt
	}
	m.UpdatedAt = time.Now()
	return m
}

func toDomain(m *ProductModel) *domain.Product {
	images := m.Images
	if images == nil {
		images = []string{}
	}
	return &domain.Product{
		ID:          m.ProductID,
		Name:        m.Name,
		Description: m.Description,
		Price:       m.Price,
		Category:    m.Category,
		Brand:       m.Brand,
		Stock:       m.Stock,
		Rating:      m.Rating,
		Images:      images,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}
