// Package domain 通知服务的领域模型
package domain

import (
	"context"
	"time"
)

// Type 通知类型
type Type string

const (
	TypeOrderUpdate Type = "order_update"
	TypeAdmin       Type = "admin"
	TypeInfo        Type = "info"
)

// Notification 站内通知，创建后只有已读标记可以变更，且只能由 false 变为 true
type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Message   string    `json:"message"`
	Type      Type      `json:"type"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}

// Recipient 通知接收人
type Recipient struct {
	ID    string
	Name  string
	Email string
}

// NotificationRepository 通知仓储
type NotificationRepository interface {
	Save(ctx context.Context, n *Notification) error
	// Get 不存在时返回 nil, nil
	Get(ctx context.Context, id string) (*Notification, error)
	// ListByUser 按创建时间倒序
	ListByUser(ctx context.Context, userID string) ([]*Notification, error)
	CountUnread(ctx context.Context, userID string) (int64, error)
	// MarkRead 将通知标记为已读，通知不存在时返回 false
	MarkRead(ctx context.Context, id string) (bool, error)
}

// RecipientDirectory 解析接收人
type RecipientDirectory interface {
	// Lookup 不存在时返回 nil, nil
	Lookup(ctx context.Context, userID string) (*Recipient, error)
	Admins(ctx context.Context) ([]Recipient, error)
}
