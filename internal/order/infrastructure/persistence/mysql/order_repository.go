// Package mysql 订单仓储的 GORM 实现
package mysql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/storefront/internal/order/domain"
	"github.com/wyfcoding/storefront/pkg/db"
	"github.com/wyfcoding/storefront/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrderModel 订单表
type OrderModel struct {
	ID             uint            `gorm:"primaryKey;autoIncrement"`
	CreatedAt      time.Time       `gorm:"column:created_at;index"`
	UpdatedAt      time.Time       `gorm:"column:updated_at"`
	OrderID        string          `gorm:"column:order_id;type:varchar(40);uniqueIndex;not null"`
	UserID         string          `gorm:"column:user_id;type:varchar(32);index;not null"`
	ProductID      string          `gorm:"column:product_id;type:varchar(32);index;not null"`
	Quantity       int             `gorm:"column:quantity;not null"`
	UnitPrice      decimal.Decimal `gorm:"column:unit_price;type:decimal(20,2);not null"`
	Subtotal       decimal.Decimal `gorm:"column:subtotal;type:decimal(20,2);not null"`
	DeliveryFee    decimal.Decimal `gorm:"column:delivery_fee;type:decimal(20,4);not null"`
	TotalAmount    decimal.Decimal `gorm:"column:total_amount;type:decimal(20,4);not null"`
	DeliveryOption string          `gorm:"column:delivery_option;type:varchar(20);not null"`
	PaymentMethod  string          `gorm:"column:payment_method;type:varchar(32);not null"`
	State          string          `gorm:"column:addr_state;type:varchar(100)"`
	Area           string          `gorm:"column:addr_area;type:varchar(100)"`
	Street         string          `gorm:"column:addr_street;type:varchar(255)"`
	Address        string          `gorm:"column:addr_line;type:varchar(255)"`
	Status         string          `gorm:"column:status;type:varchar(20);index;not null"`
	AdminMessage   string          `gorm:"column:admin_message;type:text"`
}

// TableName 指定表名
func (OrderModel) TableName() string {
	return "orders"
}

type orderRepositoryImpl struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓储实例
func NewOrderRepository(gdb *gorm.DB) domain.OrderRepository {
	return &orderRepositoryImpl{db: gdb}
}

// Save 订单创建后只有状态与备注会变化
func (r *orderRepositoryImpl) Save(ctx context.Context, order *domain.Order) error {
	m := toModel(order)
	err := db.Conn(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "order_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "admin_message", "updated_at"}),
	}).Create(m).Error
	if err != nil {
		logger.Error(ctx, "order_repository.save failed", "order_id", order.ID, "error", err)
		return fmt.Errorf("failed to save order: %w", err)
	}
	return nil
}

func (r *orderRepositoryImpl) Get(ctx context.Context, id string) (*domain.Order, error) {
	var m OrderModel
	err := db.Conn(ctx, r.db).Where("order_id = ?", id).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		logger.Error(ctx, "order_repository.get failed", "order_id", id, "error", err)
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return toDomain(&m), nil
}

func (r *orderRepositoryImpl) ListByUser(ctx context.Context, userID string) ([]*domain.Order, error) {
	return r.list(ctx, db.Conn(ctx, r.db).Where("user_id = ?", userID))
}

func (r *orderRepositoryImpl) ListAll(ctx context.Context) ([]*domain.Order, error) {
	return r.list(ctx, db.Conn(ctx, r.db))
}

func (r *orderRepositoryImpl) list(ctx context.Context, q *gorm.DB) ([]*domain.Order, error) {
	var models []OrderModel
	if err := q.Order("created_at DESC, id DESC").Find(&models).Error; err != nil {
		logger.Error(ctx, "order_repository.list failed", "error", err)
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	out := make([]*domain.Order, len(models))
	for i := range models {
		out[i] = toDomain(&models[i])
	}
	return out, nil
}

func toModel(o *domain.Order) *OrderModel {
	return &OrderModel{
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
		OrderID:        o.ID,
		UserID:         o.UserID,
		ProductID:      o.ProductID,
		Quantity:       o.Quantity,
		UnitPrice:      o.UnitPrice,
		Subtotal:       o.Subtotal,
		DeliveryFee:    o.DeliveryFee,
		TotalAmount:    o.TotalAmount,
		DeliveryOption: string(o.DeliveryOption),
		PaymentMethod:  string(o.PaymentMethod),
		State:          o.DeliveryAddress.State,
		Area:           o.DeliveryAddress.Area,
		Street:         o.DeliveryAddress.Street,
		Address:        o.DeliveryAddress.Address,
		Status:         string(o.Status),
		AdminMessage:   o.AdminMessage,
	}
}

func toDomain(m *OrderModel) *domain.Order {
	return &domain.Order{
		ID:             m.OrderID,
		UserID:         m.UserID,
		ProductID:      m.ProductID,
		Quantity:       m.Quantity,
		UnitPrice:      m.UnitPrice,
		Subtotal:       m.Subtotal,
		DeliveryFee:    m.DeliveryFee,
		TotalAmount:    m.TotalAmount,
		DeliveryOption: domain.DeliveryOption(m.DeliveryOption),
		PaymentMethod:  domain.PaymentMethod(m.PaymentMethod),
		DeliveryAddress: domain.Address{
			State:   m.State,
			Area:    m.Area,
			Street:  m.Street,
			Address: m.Address,
		},
		Status:       domain.OrderStatus(m.Status),
		AdminMessage: m.AdminMessage,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}
