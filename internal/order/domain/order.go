// Package domain 订单工作流的领域模型
package domain

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus 订单状态
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusConfirmed OrderStatus = "confirmed"
	StatusDelivered OrderStatus = "delivered"
	StatusRejected  OrderStatus = "rejected"
)

// Statuses 全部订单状态
var Statuses = []OrderStatus{StatusPending, StatusConfirmed, StatusDelivered, StatusRejected}

// ParseStatus 解析状态，大小写不敏感
func ParseStatus(s string) (OrderStatus, bool) {
	v := OrderStatus(strings.ToLower(strings.TrimSpace(s)))
	for _, st := range Statuses {
		if st == v {
			return v, true
		}
	}
	return "", false
}

// DeliveryOption 配送方式
type DeliveryOption string

const (
	DeliveryHome   DeliveryOption = "delivery"
	DeliveryPickup DeliveryOption = "pickup"
)

// PaymentMethod 支付方式
type PaymentMethod string

const (
	PaymentCard           PaymentMethod = "card"
	PaymentCashOnDelivery PaymentMethod = "cash_on_delivery"
	PaymentTransfer       PaymentMethod = "transfer"
)

// Address 收货地址
type Address struct {
	State   string `json:"state"`
	Area    string `json:"area"`
	Street  string `json:"street"`
	Address string `json:"address"`
}

// IsZero 所有字段均为空
func (a Address) IsZero() bool {
	return strings.TrimSpace(a.State+a.Area+a.Street+a.Address) == ""
}

// Order 订单实体
type Order struct {
	ID              string          `json:"id"`
	UserID          string          `json:"userId"`
	ProductID       string          `json:"productId"`
	Quantity        int             `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unitPrice"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	DeliveryFee     decimal.Decimal `json:"deliveryFee"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	DeliveryOption  DeliveryOption  `json:"deliveryOption"`
	PaymentMethod   PaymentMethod   `json:"paymentMethod"`
	DeliveryAddress Address         `json:"deliveryAddress"`
	Status          OrderStatus     `json:"status"`
	AdminMessage    string          `json:"adminMessage"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// NewOrder 创建处于 pending 状态的订单并计算金额
func NewOrder(id, userID, productID string, quantity int, unitPrice decimal.Decimal, option DeliveryOption, payment PaymentMethod, addr Address, now time.Time) *Order {
	subtotal := unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
	fee := DeliveryFee(option, subtotal)
	return &Order{
		ID:              id,
		UserID:          userID,
		ProductID:       productID,
		Quantity:        quantity,
		UnitPrice:       unitPrice,
		Subtotal:        subtotal,
		DeliveryFee:     fee,
		TotalAmount:     subtotal.Add(fee),
		DeliveryOption:  option,
		PaymentMethod:   payment,
		DeliveryAddress: addr,
		Status:          StatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// Transition 变更状态与管理员备注；next 为空时保留当前状态，message 为空时保留当前备注
func (o *Order) Transition(next OrderStatus, message string, policy TransitionPolicy, now time.Time) (OrderStatus, error) {
	prev := o.Status
	if next == "" {
		next = prev
	}
	if err := policy.Check(prev, next); err != nil {
		return prev, err
	}
	o.Status = next
	if message != "" {
		o.AdminMessage = message
	}
	o.UpdatedAt = now
	return prev, nil
}

// OrderRepository 订单仓储
type OrderRepository interface {
	Save(ctx context.Context, order *Order) error
	// Get 不存在时返回 nil, nil
	Get(ctx context.Context, id string) (*Order, error)
	// ListByUser 最新在前
	ListByUser(ctx context.Context, userID string) ([]*Order, error)
	// ListAll 最新在前
	ListAll(ctx context.Context) ([]*Order, error)
}
