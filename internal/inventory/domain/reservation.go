// Package domain 库存台账的领域模型
package domain

import (
	"context"
	"time"
)

// Reservation 一次成功的库存预留
type Reservation struct {
	ID        string    `json:"id"`
	ProductID string    `json:"productId"`
	OrderID   string    `json:"orderId"`
	Quantity  int       `json:"quantity"`
	Remaining int       `json:"remaining"` // 预留后剩余库存
	CreatedAt time.Time `json:"createdAt"`
}

// StockStore 库存存储
// 所有方法都应使用 context 中的事务句柄，使预留与订单写入同时提交或回滚
type StockStore interface {
	// Available 当前库存，商品不存在时 found 为 false
	Available(ctx context.Context, productID string) (stock int, found bool, err error)
	// TryDecrement 库存充足时原子扣减并返回 true，否则不做修改并返回 false
	TryDecrement(ctx context.Context, productID string, quantity int) (bool, error)
	// SaveReservation 记录预留流水
	SaveReservation(ctx context.Context, r *Reservation) error
	// ListReservations 按时间顺序列出某商品的预留流水
	ListReservations(ctx context.Context, productID string) ([]*Reservation, error)
}

// CacheInvalidator 预留提交后需要失效的商品缓存
type CacheInvalidator interface {
	Invalidate(ctx context.Context, productIDs ...string)
}
