package notify

import (
	"context"
	"encoding/json"
	"errors"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// ErrDeliveriesClosed is returned by Consume when the broker closes the channel.
var ErrDeliveriesClosed = errors.New("delivery channel closed")

// Consumer sends queued email jobs. Malformed jobs are dropped; send
// failures are requeued.
type Consumer struct {
	sender Sender
	log    *zap.SugaredLogger
}

func NewConsumer(sender Sender, log *zap.SugaredLogger) *Consumer {
	return &Consumer{sender: sender, log: log}
}

// Consume processes deliveries until ctx is cancelled or the channel closes.
func (c *Consumer) Consume(ctx context.Context, deliveries <-chan amqp.Delivery) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return ErrDeliveriesClosed
			}
			c.handle(ctx, d)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, d amqp.Delivery) {
	var job EmailJob
	if err := json.Unmarshal(d.Body, &job); err != nil || job.To == "" {
		c.log.Warnw("Dropping malformed email job", "error", err, "delivery_tag", d.DeliveryTag)
		_ = d.Nack(false, false)
		return
	}

	if err := c.sender.Send(ctx, job.To, job.Subject, job.Text, job.HTML); err != nil {
		c.log.Errorw("Failed to send email", "error", err, "template", job.Template, "to", job.To)
		_ = d.Nack(false, true)
		return
	}

	c.log.Infow("Email sent", "template", job.Template, "to", job.To)
	_ = d.Ack(false)
}
