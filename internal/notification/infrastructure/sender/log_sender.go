package sender

import (
	"context"
	"strings"

	"github.com/wyfcoding/storefront/internal/notification/domain"
	"github.com/wyfcoding/storefront/pkg/logger"
)

// LogSender 只记录日志，用于本地开发
type LogSender struct{}

func (LogSender) Send(ctx context.Context, email domain.Email) error {
	logger.Info(ctx, "email (log channel)", "to", strings.Join(email.To, ","), "subject", email.Subject, "html", email.HTML)
	return nil
}
