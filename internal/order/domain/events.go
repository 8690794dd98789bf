package domain

import (
	"context"
	"time"
)

const (
	OrderCreatedTopic       = "order.created"
	OrderStatusChangedTopic = "order.status_changed"
)

// OrderCreatedEvent 订单创建事件
type OrderCreatedEvent struct {
	OrderID        string    `json:"order_id"`
	UserID         string    `json:"user_id"`
	ProductID      string    `json:"product_id"`
	Quantity       int       `json:"quantity"`
	TotalAmount    string    `json:"total_amount"`
	DeliveryOption string    `json:"delivery_option"`
	Timestamp      time.Time `json:"timestamp"`
}

// OrderStatusChangedEvent 订单状态变更事件
type OrderStatusChangedEvent struct {
	OrderID      string    `json:"order_id"`
	UserID       string    `json:"user_id"`
	OldStatus    string    `json:"old_status"`
	NewStatus    string    `json:"new_status"`
	AdminMessage string    `json:"admin_message,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// EventPublisher 领域事件发布，需支持在事务内调用
type EventPublisher interface {
	Publish(ctx context.Context, topic, key string, event any) error
}
