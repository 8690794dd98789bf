// Package domain 包含商品目录的领域模型
package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Product 商品实体
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Brand       string          `json:"brand"`
	// 库存，任何时刻不小于 0
	Stock int `json:"stock"`
	// 评分 0-5
	Rating    float64   `json:"rating"`
	Images    []string  `json:"images"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// InStock 是否有货
func (p *Product) InStock() bool {
	return p.Stock > 0
}

// ProductPatch 商品局部更新，nil 字段保持不变
type ProductPatch struct {
	Name        *string
	Description *string
	Category    *string
	Brand       *string
	Price       *decimal.Decimal
	Stock       *int
	Rating      *float64
	Images      *[]string
}

// Apply 把已提供的字段写入商品
func (p ProductPatch) Apply(product *Product) {
	if p.Name != nil {
		product.Name = *p.Name
	}
	if p.Description != nil {
		product.Description = *p.Description
	}
	if p.Category != nil {
		product.Category = *p.Category
	}
	if p.Brand != nil {
		product.Brand = *p.Brand
	}
	if p.Price != nil {
		product.Price = *p.Price
	}
	if p.Stock != nil {
		product.Stock = *p.Stock
	}
	if p.Rating != nil {
		product.Rating = *p.Rating
	}
	if p.Images != nil {
		product.Images = *p.Images
	}
}

// ProductRepository 商品仓储接口
type ProductRepository interface {
	// 新增或整体覆盖商品
	Save(ctx context.Context, product *Product) error
	// 只写入 patch 提供的字段，返回更新前后的商品；不存在时返回 nil, nil, nil
	Update(ctx context.Context, id string, patch ProductPatch) (before, after *Product, err error)
	// 不存在时返回 nil, nil
	Get(ctx context.Context, id string) (*Product, error)
	// 按创建顺序返回全部商品
	List(ctx context.Context) ([]*Product, error)
	// 返回是否删除了记录
	Delete(ctx context.Context, id string) (bool, error)
}

// EventPublisher 事件发布接口
type EventPublisher interface {
	Publish(ctx context.Context, topic, key string, event any) error
}
