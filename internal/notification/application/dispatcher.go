// Package application 通知分发：站内通知落库，邮件与告警异步投递
package application

import (
	"context"
	"strings"
	"time"

	"github.com/wyfcoding/storefront/internal/notification/domain"
	"github.com/wyfcoding/storefront/pkg/idgen"
	"github.com/wyfcoding/storefront/pkg/logger"
	"github.com/wyfcoding/storefront/pkg/metrics"
	"github.com/wyfcoding/storefront/pkg/xerrors"
)

// Dispatcher 通知分发器
// 站内通知同步落库；邮件与告警只入队，投递失败不影响调用方
type Dispatcher struct {
	repo      domain.NotificationRepository
	directory domain.RecipientDirectory
	sender    domain.Sender
	alerter   domain.Alerter
	queue     *DeliveryQueue
	collector metrics.Collector
	now       func() time.Time
}

// NewDispatcher 创建通知分发器，alerter 可为 nil
func NewDispatcher(
	repo domain.NotificationRepository,
	directory domain.RecipientDirectory,
	sender domain.Sender,
	alerter domain.Alerter,
	queue *DeliveryQueue,
	collector metrics.Collector,
) *Dispatcher {
	return &Dispatcher{
		repo:      repo,
		directory: directory,
		sender:    sender,
		alerter:   alerter,
		queue:     queue,
		collector: collector,
		now:       time.Now,
	}
}

// NotifyUser 为用户创建一条站内通知，并尽力发送邮件
func (d *Dispatcher) NotifyUser(ctx context.Context, userID, message string, typ domain.Type) (*domain.Notification, error) {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(message) == "" {
		var missing []string
		if strings.TrimSpace(userID) == "" {
			missing = append(missing, "userId")
		}
		if strings.TrimSpace(message) == "" {
			missing = append(missing, "message")
		}
		return nil, xerrors.MissingFields(missing...)
	}
	if typ == "" {
		typ = domain.TypeInfo
	}

	n, err := d.create(ctx, userID, message, typ)
	if err != nil {
		return nil, err
	}

	recipient, err := d.directory.Lookup(ctx, userID)
	if err != nil {
		logger.Warn(ctx, "recipient lookup failed, email skipped", "user_id", userID, "error", err)
		return n, nil
	}
	if recipient != nil && recipient.Email != "" {
		d.SendEmail(ctx, []string{recipient.Email}, subjectFor(typ), renderEmail(subjectFor(typ), recipient.Name, message))
	}
	return n, nil
}

// NotifyAdmins 为每个管理员各创建一条 admin 类型通知，合并发送一封邮件，并推送告警
func (d *Dispatcher) NotifyAdmins(ctx context.Context, message string) ([]*domain.Notification, error) {
	if strings.TrimSpace(message) == "" {
		return nil, xerrors.MissingFields("message")
	}
	admins, err := d.directory.Admins(ctx)
	if err != nil {
		return nil, err
	}

	created := make([]*domain.Notification, 0, len(admins))
	emails := make([]string, 0, len(admins))
	for _, admin := range admins {
		n, err := d.create(ctx, admin.ID, message, domain.TypeAdmin)
		if err != nil {
			return created, err
		}
		created = append(created, n)
		if admin.Email != "" {
			emails = append(emails, admin.Email)
		}
	}

	if len(emails) > 0 {
		subject := subjectFor(domain.TypeAdmin)
		d.SendEmail(ctx, emails, subject, renderEmail(subject, "", message))
	}
	if d.alerter != nil {
		d.queue.Submit(ctx, "admin_alert", func(ctx context.Context) error {
			return d.alerter.Alert(ctx, message)
		})
	}
	if len(admins) == 0 {
		logger.Warn(ctx, "no admin accounts to notify", "message", message)
	}
	return created, nil
}

// SendEmail 邮件入队，不等待投递结果
func (d *Dispatcher) SendEmail(ctx context.Context, to []string, subject, html string) {
	if len(to) == 0 {
		return
	}
	email := domain.Email{To: to, Subject: subject, HTML: html}
	d.queue.Submit(ctx, "email", func(ctx context.Context) error {
		return d.sender.Send(ctx, email)
	})
}

// MarkRead 标记已读，可重复调用；ownerID 非空时只允许标记属于该用户的通知
func (d *Dispatcher) MarkRead(ctx context.Context, ownerID, id string) error {
	n, err := d.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if n == nil || (ownerID != "" && n.UserID != ownerID) {
		return xerrors.NotFound("notification", id)
	}
	if n.Read {
		return nil
	}
	found, err := d.repo.MarkRead(ctx, id)
	if err != nil {
		return err
	}
	if !found {
		return xerrors.NotFound("notification", id)
	}
	return nil
}

// UnreadCount 用户未读通知数
func (d *Dispatcher) UnreadCount(ctx context.Context, userID string) (int64, error) {
	return d.repo.CountUnread(ctx, userID)
}

// ListForUser 用户通知列表，最新在前
func (d *Dispatcher) ListForUser(ctx context.Context, userID string) ([]*domain.Notification, error) {
	return d.repo.ListByUser(ctx, userID)
}

func (d *Dispatcher) create(ctx context.Context, userID, message string, typ domain.Type) (*domain.Notification, error) {
	n := &domain.Notification{
		ID:        idgen.Next(),
		UserID:    userID,
		Message:   message,
		Type:      typ,
		CreatedAt: d.now(),
	}
	if err := d.repo.Save(ctx, n); err != nil {
		return nil, err
	}
	d.collector.RecordNotification(string(typ))
	return n, nil
}
