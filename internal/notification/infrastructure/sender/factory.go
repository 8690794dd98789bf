package sender

import (
	"fmt"

	"github.com/wyfcoding/storefront/internal/notification/domain"
	"github.com/wyfcoding/storefront/pkg/mq"
)

// Channel 邮件通道
const (
	ChannelSMTP  = "smtp"
	ChannelKafka = "kafka"
	ChannelLog   = "log"
)

// New 按通道创建邮件发送器；kafka 通道需要 publisher
func New(channel string, smtp SMTPConfig, publisher mq.Publisher, topic string) (domain.Sender, error) {
	switch channel {
	case ChannelSMTP:
		return NewSMTPSender(smtp), nil
	case ChannelKafka:
		if publisher == nil {
			return nil, fmt.Errorf("mail channel kafka requires kafka brokers")
		}
		return NewKafkaSender(publisher, topic), nil
	case ChannelLog, "":
		return LogSender{}, nil
	default:
		return nil, fmt.Errorf("unsupported mail channel: %s", channel)
	}
}
