package domain

import "time"

const (
	ProductCreatedTopic = "product.created"
	ProductUpdatedTopic = "product.updated"
	ProductDeletedTopic = "product.deleted"
)

// ProductChangedEvent 商品创建/更新事件
type ProductChangedEvent struct {
	ProductID string    `json:"product_id"`
	Name      string    `json:"name"`
	Price     string    `json:"price"`
	Stock     int       `json:"stock"`
	OldStock  int       `json:"old_stock"`
	Category  string    `json:"category"`
	Timestamp time.Time `json:"timestamp"`
}

// ProductDeletedEvent 商品删除事件
type ProductDeletedEvent struct {
	ProductID string    `json:"product_id"`
	Timestamp time.Time `json:"timestamp"`
}
