package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	amqp "github.com/rabbitmq/amqp091-go"

	"finanzas/internal/config"
	"finanzas/internal/logger"
	"finanzas/internal/notify"
)

const prefetch = 16

func main() {
	if err := run(); err != nil {
		logger.Get().Fatalf("Mailer error: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger.Init(cfg.Env, cfg.LogLevel)
	defer logger.Sync()
	log := logger.Named("mailer")

	if cfg.RabbitMQURL == "" || cfg.RabbitMQEmailQueue == "" {
		return errors.New("rabbitmq is not configured")
	}
	if cfg.MailgunDomain == "" || cfg.MailgunAPIKey == "" {
		return errors.New("mailgun is not configured")
	}

	conn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		return fmt.Errorf("amqp dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("amqp channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(prefetch, 0, false); err != nil {
		return fmt.Errorf("qos: %w", err)
	}
	if _, err := notify.DeclareQueue(ch, cfg.RabbitMQEmailQueue); err != nil {
		return err
	}

	deliveries, err := ch.Consume(cfg.RabbitMQEmailQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	consumer := notify.NewConsumer(notify.NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailgunSender), log)

	log.Infow("Email worker listening", "queue", cfg.RabbitMQEmailQueue)
	err = consumer.Consume(ctx, deliveries)
	if errors.Is(err, context.Canceled) {
		log.Info("Shutting down mailer")
		return nil
	}
	return err
}
