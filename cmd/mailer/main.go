// Mailer 主程序
// 功能：消费 Kafka 邮件指令并通过 SMTP 投递，失败消息进入死信主题
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/wyfcoding/storefront/internal/notification/infrastructure/sender"
	"github.com/wyfcoding/storefront/internal/notification/interfaces/consumer"
	"github.com/wyfcoding/storefront/pkg/config"
	"github.com/wyfcoding/storefront/pkg/logger"
	"github.com/wyfcoding/storefront/pkg/mq"
)

func main() {
	configPath := flag.String("config", "configs/config.toml", "path to config file")
	flag.Parse()

	// 1. 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	if err := logger.Init(logger.Config{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		Output:     cfg.Logger.Output,
		FilePath:   cfg.Logger.FilePath,
		MaxSize:    cfg.Logger.MaxSize,
		MaxBackups: cfg.Logger.MaxBackups,
		MaxAge:     cfg.Logger.MaxAge,
		Compress:   cfg.Logger.Compress,
		WithCaller: cfg.Logger.WithCaller,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if len(cfg.Kafka.Brokers) == 0 {
		logger.Fatal(ctx, "Mailer requires kafka.brokers")
	}

	// 3. 初始化 Kafka
	kafkaCfg := mq.KafkaConfig{
		Brokers:        cfg.Kafka.Brokers,
		GroupID:        cfg.Kafka.GroupID + "-mailer",
		SessionTimeout: cfg.Kafka.SessionTimeout,
	}
	source := mq.NewConsumer(kafkaCfg, cfg.Kafka.MailTopic)
	defer source.Close()
	producer := mq.NewProducer(kafkaCfg)
	defer producer.Close()
	dlq := mq.NewDeadLetterQueue(producer, cfg.Kafka.MailTopic+".dlq")

	// 4. 初始化 SMTP 发送器
	smtp := sender.NewSMTPSender(sender.SMTPConfig{
		Host:     cfg.Mail.Host,
		Port:     cfg.Mail.Port,
		Username: cfg.Mail.Username,
		Password: cfg.Mail.Password,
		From:     cfg.Mail.From,
	})

	// 5. 消费直到收到退出信号
	relay := consumer.NewMailRelay(source, smtp, dlq, cfg.Notification.MaxRetries)
	logger.Info(ctx, "Starting Mailer", "topic", cfg.Kafka.MailTopic, "group_id", kafkaCfg.GroupID)
	if err := relay.Run(ctx); err != nil {
		logger.Error(ctx, "Mail relay stopped", "error", err)
	}
	logger.Info(context.Background(), "Mailer stopped")
}
