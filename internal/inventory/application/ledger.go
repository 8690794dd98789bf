// Package application 库存台账应用服务
package application

import (
	"context"
	"time"

	"github.com/wyfcoding/storefront/internal/inventory/domain"
	"github.com/wyfcoding/storefront/pkg/idgen"
	"github.com/wyfcoding/storefront/pkg/logger"
	"github.com/wyfcoding/storefront/pkg/metrics"
	"github.com/wyfcoding/storefront/pkg/xerrors"
)

// Ledger 库存台账
// Reserve 必须在调用方事务内执行；扣减使用条件更新，并发预留不会超卖
type Ledger struct {
	store     domain.StockStore
	caches    []domain.CacheInvalidator
	collector metrics.Collector
	now       func() time.Time
}

// NewLedger 创建库存台账
func NewLedger(store domain.StockStore, collector metrics.Collector, caches ...domain.CacheInvalidator) *Ledger {
	return &Ledger{store: store, caches: caches, collector: collector, now: time.Now}
}

// Reserve 检查并扣减库存；库存不足或商品不存在时库存保持不变
func (l *Ledger) Reserve(ctx context.Context, productID string, quantity int, orderID string) (*domain.Reservation, error) {
	if quantity < 1 {
		return nil, xerrors.Invalid("quantity", "quantity must be at least 1")
	}

	ok, err := l.store.TryDecrement(ctx, productID, quantity)
	if err != nil {
		return nil, err
	}
	if !ok {
		stock, found, err := l.store.Available(ctx, productID)
		if err != nil {
			return nil, err
		}
		if !found {
			l.collector.RecordReservation("not_found")
			return nil, xerrors.NotFound("product", productID)
		}
		l.collector.RecordReservation("insufficient")
		logger.Info(ctx, "reservation rejected", "product_id", productID, "requested", quantity, "available", stock)
		return nil, xerrors.InsufficientStock(productID, quantity, stock)
	}

	remaining, _, err := l.store.Available(ctx, productID)
	if err != nil {
		return nil, err
	}
	r := &domain.Reservation{
		ID:        idgen.NextWithPrefix("RSV"),
		ProductID: productID,
		OrderID:   orderID,
		Quantity:  quantity,
		Remaining: remaining,
		CreatedAt: l.now(),
	}
	if err := l.store.SaveReservation(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// Committed 在包含预留的事务提交后调用
func (l *Ledger) Committed(ctx context.Context, r *domain.Reservation) {
	if r == nil {
		return
	}
	for _, c := range l.caches {
		c.Invalidate(ctx, r.ProductID)
	}
	l.collector.RecordReservation("ok")
	logger.Info(ctx, "stock reserved", "reservation_id", r.ID, "product_id", r.ProductID, "order_id", r.OrderID, "quantity", r.Quantity, "remaining", r.Remaining)
}

// History 某商品的预留流水
func (l *Ledger) History(ctx context.Context, productID string) ([]*domain.Reservation, error) {
	return l.store.ListReservations(ctx, productID)
}
