// Package sender 邮件与告警的传输实现
package sender

import (
	"context"
	"time"

	"github.com/sony/gobreaker"
	"github.com/wyfcoding/storefront/internal/notification/domain"
	"github.com/wyfcoding/storefront/pkg/logger"
	"github.com/wyfcoding/storefront/pkg/xerrors"
	"gopkg.in/gomail.v2"
)

// SMTPConfig SMTP 连接参数
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPSender 通过 SMTP 投递邮件，连续失败后熔断，熔断期间直接返回错误
type SMTPSender struct {
	dialer  *gomail.Dialer
	from    string
	breaker *gobreaker.CircuitBreaker
}

// NewSMTPSender 创建 SMTP 发送器
func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	return &SMTPSender{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "smtp",
			MaxRequests: 1,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn(context.Background(), "circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
			},
		}),
	}
}

// Send 实现 domain.Sender
func (s *SMTPSender) Send(ctx context.Context, email domain.Email) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", email.To...)
	m.SetHeader("Subject", email.Subject)
	m.SetBody("text/html", email.HTML)

	_, err := s.breaker.Execute(func() (any, error) {
		return nil, s.dialer.DialAndSend(m)
	})
	if err != nil {
		return xerrors.Transport(err, "smtp delivery failed")
	}
	logger.Info(ctx, "email sent", "channel", "smtp", "recipients", len(email.To), "subject", email.Subject)
	return nil
}
