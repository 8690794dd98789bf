package sender

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/wyfcoding/storefront/pkg/logger"
	"github.com/wyfcoding/storefront/pkg/xerrors"
)

// WebhookAlerter 以 JSON POST 推送管理员告警
type WebhookAlerter struct {
	client *resty.Client
	url    string
}

// NewWebhookAlerter 创建告警推送器
func NewWebhookAlerter(url string) *WebhookAlerter {
	client := resty.New().
		SetTimeout(10*time.Second).
		SetHeader("Content-Type", "application/json")
	return &WebhookAlerter{client: client, url: url}
}

// Alert 实现 domain.Alerter
func (w *WebhookAlerter) Alert(ctx context.Context, message string) error {
	resp, err := w.client.R().
		SetContext(ctx).
		SetBody(map[string]string{"text": message}).
		Post(w.url)
	if err != nil {
		return xerrors.Transport(err, "webhook request failed")
	}
	if resp.IsError() {
		return xerrors.Transport(nil, "webhook returned "+resp.Status())
	}
	logger.Debug(ctx, "admin alert delivered", "status", resp.StatusCode())
	return nil
}
