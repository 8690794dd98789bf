// Package outbox 实现事务性发件箱：领域事件与业务数据同事务落库，由中继异步投递到 Kafka
package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/wyfcoding/storefront/pkg/db"
	"github.com/wyfcoding/storefront/pkg/logger"
	"github.com/wyfcoding/storefront/pkg/mq"
	"gorm.io/gorm"
)

const (
	StatusPending = "pending"
	StatusSent    = "sent"
)

// Message 发件箱记录
type Message struct {
	ID        string    `gorm:"column:id;type:varchar(36);primaryKey"`
	Topic     string    `gorm:"column:topic;type:varchar(128);index;not null"`
	Key       string    `gorm:"column:msg_key;type:varchar(128)"`
	Payload   string    `gorm:"column:payload;type:text;not null"`
	Status    string    `gorm:"column:status;type:varchar(16);index;not null;default:'pending'"`
	Attempts  int       `gorm:"column:attempts;not null;default:0"`
	LastError string    `gorm:"column:last_error;type:varchar(512)"`
	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time
}

// TableName 指定表名
func (Message) TableName() string {
	return "outbox_messages"
}

// Envelope 投递到 Kafka 的统一事件信封
type Envelope struct {
	EventID    string          `json:"event_id"`
	Topic      string          `json:"topic"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

// Manager 发件箱管理器
type Manager struct {
	db       *gorm.DB
	producer mq.Publisher
}

// NewManager 创建发件箱管理器
func NewManager(gdb *gorm.DB, producer mq.Publisher) *Manager {
	return &Manager{db: gdb, producer: producer}
}

// Publish 写入发件箱；context 中存在事务时随事务提交
func (m *Manager) Publish(ctx context.Context, topic, key string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	msg := &Message{
		ID:      uuid.New().String(),
		Topic:   topic,
		Key:     key,
		Payload: string(payload),
		Status:  StatusPending,
	}
	if err := db.Conn(ctx, m.db).Create(msg).Error; err != nil {
		return fmt.Errorf("failed to save outbox message: %w", err)
	}
	return nil
}

// Relay 投递一批待发送消息，返回成功数量；失败的消息保留待下次重试
func (m *Manager) Relay(ctx context.Context, batchSize int) (int, error) {
	var pending []Message
	if err := m.db.WithContext(ctx).
		Where("status = ?", StatusPending).
		Order("created_at asc").
		Limit(batchSize).
		Find(&pending).Error; err != nil {
		return 0, fmt.Errorf("failed to load outbox messages: %w", err)
	}

	sent := 0
	for _, msg := range pending {
		env := Envelope{
			EventID:    msg.ID,
			Topic:      msg.Topic,
			OccurredAt: msg.CreatedAt,
			Payload:    json.RawMessage(msg.Payload),
		}
		if err := m.producer.SendMessage(ctx, msg.Topic, msg.Key, env); err != nil {
			logger.Warn(ctx, "outbox relay failed", "id", msg.ID, "topic", msg.Topic, "error", err)
			m.db.WithContext(ctx).Model(&Message{}).Where("id = ?", msg.ID).Updates(map[string]any{
				"attempts":   gorm.Expr("attempts + 1"),
				"last_error": truncate(err.Error(), 512),
			})
			continue
		}
		if err := m.db.WithContext(ctx).Model(&Message{}).Where("id = ?", msg.ID).Update("status", StatusSent).Error; err != nil {
			return sent, fmt.Errorf("failed to mark outbox message sent: %w", err)
		}
		sent++
	}
	return sent, nil
}

// Run 周期性投递，直到 ctx 取消
func (m *Manager) Run(ctx context.Context, interval time.Duration, batchSize int) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := m.Relay(ctx, batchSize); err != nil {
				logger.Error(ctx, "outbox relay batch failed", "error", err)
			}
		}
	}
}

// Cleanup 删除早于 before 的已发送消息
func (m *Manager) Cleanup(ctx context.Context, before time.Time) (int64, error) {
	res := m.db.WithContext(ctx).Where("status = ? AND updated_at < ?", StatusSent, before).Delete(&Message{})
	return res.RowsAffected, res.Error
}

// Nop 不持久化事件，Kafka 未配置时使用
type Nop struct{}

// Publish 丢弃事件
func (Nop) Publish(context.Context, string, string, any) error { return nil }

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
