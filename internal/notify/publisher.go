package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const publishTimeout = 5 * time.Second

// Publisher hands email jobs to the delivery pipeline.
type Publisher interface {
	PublishEmail(ctx context.Context, job EmailJob) error
}

// RabbitPublisher publishes jobs to a durable queue on the default exchange.
type RabbitPublisher struct {
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string
}

// NewRabbitPublisher dials url and declares queue.
func NewRabbitPublisher(url, queue string) (*RabbitPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if _, err := DeclareQueue(ch, queue); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	return &RabbitPublisher{conn: conn, ch: ch, queue: queue}, nil
}

// DeclareQueue declares the durable email queue.
func DeclareQueue(ch *amqp.Channel, queue string) (amqp.Queue, error) {
	q, err := ch.QueueDeclare(
		queue,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	)
	if err != nil {
		return amqp.Queue{}, fmt.Errorf("declare queue: %w", err)
	}
	return q, nil
}

func (p *RabbitPublisher) PublishEmail(ctx context.Context, job EmailJob) error {
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal email job: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = p.ch.PublishWithContext(ctx,
		"",      // default exchange
		p.queue, // routing key = queue
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Type:         job.Template,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish email job: %w", err)
	}
	return nil
}

// Close releases the channel and connection.
func (p *RabbitPublisher) Close() {
	if p == nil {
		return
	}
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}

// LogPublisher logs jobs instead of queueing them. Used when RabbitMQ is not
// configured.
type LogPublisher struct {
	log *zap.SugaredLogger
}

func NewLogPublisher(log *zap.SugaredLogger) *LogPublisher {
	return &LogPublisher{log: log}
}

func (p *LogPublisher) PublishEmail(_ context.Context, job EmailJob) error {
	p.log.Infow("Email job not queued, RabbitMQ disabled",
		"template", job.Template,
		"to", job.To,
		"subject", job.Subject,
	)
	return nil
}
