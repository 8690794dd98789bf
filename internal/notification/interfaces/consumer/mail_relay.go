// Package consumer 消费 Kafka 邮件指令并交给邮件传输投递
package consumer

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/wyfcoding/storefront/internal/notification/domain"
	"github.com/wyfcoding/storefront/internal/notification/infrastructure/sender"
	"github.com/wyfcoding/storefront/pkg/logger"
	"github.com/wyfcoding/storefront/pkg/mq"
)

// MessageSource 需要手动确认的消息源
type MessageSource interface {
	FetchMessage(ctx context.Context) (*mq.Message, error)
	CommitMessage(ctx context.Context, m *mq.Message) error
}

// DeadLetters 死信投递
type DeadLetters interface {
	Send(ctx context.Context, original *mq.Message, reason string, err error) error
}

// MailRelay 邮件指令中继
type MailRelay struct {
	source   MessageSource
	sender   domain.Sender
	dead     DeadLetters
	maxTries uint
	interval time.Duration
}

// NewMailRelay 创建邮件中继，dead 可为 nil
func NewMailRelay(source MessageSource, s domain.Sender, dead DeadLetters, maxTries int) *MailRelay {
	if maxTries <= 0 {
		maxTries = 1
	}
	return &MailRelay{source: source, sender: s, dead: dead, maxTries: uint(maxTries), interval: time.Second}
}

// Run 循环消费直到 ctx 取消
func (r *MailRelay) Run(ctx context.Context) error {
	for {
		msg, err := r.source.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			logger.Error(ctx, "fetch mail command failed", "error", err)
			continue
		}
		r.Handle(ctx, msg)
		if err := r.source.CommitMessage(ctx, msg); err != nil {
			logger.Error(ctx, "commit mail command failed", "offset", msg.Offset, "error", err)
		}
	}
}

// Handle 处理单条消息；无法解析或多次投递失败的消息进入死信队列
func (r *MailRelay) Handle(ctx context.Context, msg *mq.Message) {
	var cmd sender.MailCommand
	if err := msg.UnmarshalPayload(&cmd); err != nil {
		r.deadLetter(ctx, msg, "malformed mail command", err)
		return
	}
	if len(cmd.To) == 0 {
		r.deadLetter(ctx, msg, "mail command without recipients", errors.New("empty recipient list"))
		return
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.interval
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, r.sender.Send(ctx, domain.Email{To: cmd.To, Subject: cmd.Subject, HTML: cmd.HTML})
	}, backoff.WithBackOff(b), backoff.WithMaxTries(r.maxTries))
	if err != nil {
		r.deadLetter(ctx, msg, "mail delivery failed", err)
		return
	}
	logger.Info(ctx, "mail command delivered", "offset", msg.Offset, "recipients", len(cmd.To))
}

func (r *MailRelay) deadLetter(ctx context.Context, msg *mq.Message, reason string, cause error) {
	logger.Error(ctx, reason, "offset", msg.Offset, "key", msg.Key, "error", cause)
	if r.dead == nil {
		return
	}
	if err := r.dead.Send(ctx, msg, reason, cause); err != nil {
		logger.Error(ctx, "dead letter publish failed", "offset", msg.Offset, "error", err)
	}
}
