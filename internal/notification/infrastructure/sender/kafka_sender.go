package sender

import (
	"context"

	"github.com/wyfcoding/storefront/internal/notification/domain"
	"github.com/wyfcoding/storefront/pkg/mq"
	"github.com/wyfcoding/storefront/pkg/xerrors"
)

// MailCommand 发送到 Kafka 的邮件指令，由 mailer 服务消费并通过 SMTP 投递
type MailCommand struct {
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// KafkaSender 将邮件指令推送到消息队列
type KafkaSender struct {
	publisher mq.Publisher
	topic     string
}

// NewKafkaSender 创建 Kafka 发送器
func NewKafkaSender(publisher mq.Publisher, topic string) *KafkaSender {
	return &KafkaSender{publisher: publisher, topic: topic}
}

// Send 使用首个收件人做 Key，保证同一收件人的邮件有序
func (s *KafkaSender) Send(ctx context.Context, email domain.Email) error {
	key := ""
	if len(email.To) > 0 {
		key = email.To[0]
	}
	cmd := MailCommand{To: email.To, Subject: email.Subject, HTML: email.HTML}
	if err := s.publisher.SendMessage(ctx, s.topic, key, cmd); err != nil {
		return xerrors.Transport(err, "failed to publish mail command")
	}
	return nil
}
