// Package mysql 通知仓储的 GORM 实现
package mysql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wyfcoding/storefront/internal/notification/domain"
	"github.com/wyfcoding/storefront/pkg/db"
	"github.com/wyfcoding/storefront/pkg/logger"
	"gorm.io/gorm"
)

// NotificationModel 通知表
type NotificationModel struct {
	ID             uint      `gorm:"primaryKey;autoIncrement"`
	NotificationID string    `gorm:"column:notification_id;type:varchar(32);uniqueIndex;not null"`
	UserID         string    `gorm:"column:user_id;type:varchar(32);index:idx_user_read;not null"`
	Message        string    `gorm:"column:message;type:text;not null"`
	Type           string    `gorm:"column:type;type:varchar(20);not null"`
	Read           bool      `gorm:"column:is_read;index:idx_user_read;not null;default:false"`
	CreatedAt      time.Time `gorm:"column:created_at;index"`
}

// TableName 指定表名
func (NotificationModel) TableName() string {
	return "notifications"
}

type notificationRepositoryImpl struct {
	db *gorm.DB
}

// NewNotificationRepository 创建通知仓储实例
func NewNotificationRepository(gdb *gorm.DB) domain.NotificationRepository {
	return &notificationRepositoryImpl{db: gdb}
}

func (r *notificationRepositoryImpl) Save(ctx context.Context, n *domain.Notification) error {
	m := &NotificationModel{
		NotificationID: n.ID,
		UserID:         n.UserID,
		Message:        n.Message,
		Type:           string(n.Type),
		Read:           n.Read,
		CreatedAt:      n.CreatedAt,
	}
	if err := db.Conn(ctx, r.db).Create(m).Error; err != nil {
		logger.Error(ctx, "notification_repository.save failed", "notification_id", n.ID, "error", err)
		return fmt.Errorf("failed to save notification: %w", err)
	}
	return nil
}

func (r *notificationRepositoryImpl) Get(ctx context.Context, id string) (*domain.Notification, error) {
	var m NotificationModel
	err := db.Conn(ctx, r.db).Where("notification_id = ?", id).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get notification: %w", err)
	}
	return toDomain(&m), nil
}

func (r *notificationRepositoryImpl) ListByUser(ctx context.Context, userID string) ([]*domain.Notification, error) {
	var models []NotificationModel
	if err := db.Conn(ctx, r.db).Where("user_id = ?", userID).Order("created_at DESC, id DESC").Find(&models).Error; err != nil {
		logger.Error(ctx, "notification_repository.list failed", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	out := make([]*domain.Notification, len(models))
	for i := range models {
		out[i] = toDomain(&models[i])
	}
	return out, nil
}

func (r *notificationRepositoryImpl) CountUnread(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := db.Conn(ctx, r.db).Model(&NotificationModel{}).Where("user_id = ? AND is_read = ?", userID, false).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

// MarkRead 只更新 is_read，已读的通知再次标记不报错
func (r *notificationRepositoryImpl) MarkRead(ctx context.Context, id string) (bool, error) {
	var count int64
	conn := db.Conn(ctx, r.db)
	if err := conn.Model(&NotificationModel{}).Where("notification_id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to find notification: %w", err)
	}
	if count == 0 {
		return false, nil
	}
	if err := conn.Model(&NotificationModel{}).Where("notification_id = ?", id).Update("is_read", true).Error; err != nil {
		logger.Error(ctx, "notification_repository.mark_read failed", "notification_id", id, "error", err)
		return false, fmt.Errorf("failed to mark notification read: %w", err)
	}
	return true, nil
}

func toDomain(m *NotificationModel) *domain.Notification {
	return &domain.Notification{
		ID:        m.NotificationID,
		UserID:    m.UserID,
		Message:   m.Message,
		Type:      domain.Type(m.Type),
		Read:      m.Read,
		CreatedAt: m.CreatedAt,
	}
}
