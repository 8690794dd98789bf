package domain

import "context"

// Email 一封待投递的邮件
type Email struct {
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// Sender 邮件传输，投递失败返回 TransportError
type Sender interface {
	Send(ctx context.Context, email Email) error
}

// Alerter 管理员告警通道
type Alerter interface {
	Alert(ctx context.Context, message string) error
}
