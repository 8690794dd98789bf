// Package mysql 库存台账的 GORM 实现，直接在 products 表上做条件扣减
package mysql

import (
	"context"
	"errors"
	"fmt"
	"time"

	catalogmysql "github.com/wyfcoding/storefront/internal/catalog/infrastructure/persistence/mysql"
	"github.com/wyfcoding/storefront/internal/inventory/domain"
	"github.com/wyfcoding/storefront/pkg/db"
	"github.com/wyfcoding/storefront/pkg/logger"
	"gorm.io/gorm"
)

// ReservationModel 预留流水表
type ReservationModel struct {
	ID            uint      `gorm:"primaryKey;autoIncrement"`
	ReservationID string    `gorm:"column:reservation_id;type:varchar(40);uniqueIndex;not null"`
	ProductID     string    `gorm:"column:product_id;type:varchar(32);index;not null"`
	OrderID       string    `gorm:"column:order_id;type:varchar(40);index"`
	Quantity      int       `gorm:"column:quantity;not null"`
	Remaining     int       `gorm:"column:remaining;not null"`
	CreatedAt     time.Time `gorm:"column:created_at"`
}

// TableName 指定表名
func (ReservationModel) TableName() string {
	return "inventory_reservations"
}

type stockStore struct {
	db *gorm.DB
}

// NewStockStore 创建库存存储
func NewStockStore(gdb *gorm.DB) domain.StockStore {
	return &stockStore{db: gdb}
}

func (s *stockStore) Available(ctx context.Context, productID string) (int, bool, error) {
	var m catalogmysql.ProductModel
	err := db.Conn(ctx, s.db).Select("stock").Where("product_id = ?", productID).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, nil
	}
	if err != nil {
		logger.Error(ctx, "stock_store.available failed", "product_id", productID, "error", err)
		return 0, false, fmt.Errorf("failed to read stock: %w", err)
	}
	return m.Stock, true, nil
}

// TryDecrement 单条 UPDATE ... WHERE stock >= ?，检查与扣减之间不存在可被其他预留观察到的中间状态
func (s *stockStore) TryDecrement(ctx context.Context, productID string, quantity int) (bool, error) {
	res := db.Conn(ctx, s.db).Model(&catalogmysql.ProductModel{}).
		Where("product_id = ? AND stock >= ?", productID, quantity).
		UpdateColumns(map[string]any{
			"stock":      gorm.Expr("stock - ?", quantity),
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		logger.Error(ctx, "stock_store.decrement failed", "product_id", productID, "quantity", quantity, "error", res.Error)
		return false, fmt.Errorf("failed to decrement stock: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (s *stockStore) SaveReservation(ctx context.Context, r *domain.Reservation) error {
	m := &ReservationModel{
		ReservationID: r.ID,
		ProductID:     r.ProductID,
		OrderID:       r.OrderID,
		Quantity:      r.Quantity,
		Remaining:     r.Remaining,
		CreatedAt:     r.CreatedAt,
	}
	if err := db.Conn(ctx, s.db).Create(m).Error; err != nil {
		logger.Error(ctx, "stock_store.save_reservation failed", "reservation_id", r.ID, "error", err)
		return fmt.Errorf("failed to save reservation: %w", err)
	}
	return nil
}

func (s *stockStore) ListReservations(ctx context.Context, productID string) ([]*domain.Reservation, error) {
	var models []ReservationModel
	if err := db.Conn(ctx, s.db).Where("product_id = ?", productID).Order("id ASC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list reservations: %w", err)
	}
	out := make([]*domain.Reservation, len(models))
	for i := range models {
		m := &models[i]
		out[i] = &domain.Reservation{
			ID:        m.ReservationID,
			ProductID: m.ProductID,
			OrderID:   m.OrderID,
			Quantity:  m.Quantity,
			Remaining: m.Remaining,
			CreatedAt: m.CreatedAt,
		}
	}
	return out, nil
}
