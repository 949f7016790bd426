// Package service holds outbound integrations used by the handlers.
package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	q "github.com/weatherwear/weatherwear/internal/queue"
)

// ReadingPublisher publishes ReadingRecordedEvent messages to RabbitMQ.
// Each call opens its own connection; failures are logged and returned so
// the caller can ignore them without failing the request.
type ReadingPublisher struct {
	URL    string
	Logger *slog.Logger
}

func NewReadingPublisher(url string, logger *slog.Logger) *ReadingPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReadingPublisher{URL: url, Logger: logger}
}

// PublishReading sends event to the durable reading.recorded queue as a
// persistent message.
func (p *ReadingPublisher) PublishReading(ctx context.Context, event q.ReadingRecordedEvent) error {
	conn, err := amqp.Dial(p.URL)
	if err != nil {
		p.Logger.Warn("rabbitmq: dial failed", "err", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.Logger.Warn("rabbitmq: channel open failed", "err", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	// Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(q.ReadingsQueueName, true, false, false, false, nil); err != nil {
		p.Logger.Warn("rabbitmq: queue declare failed", "err", err)
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		return err
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", q.ReadingsQueueName, false, false, pub); err != nil {
		p.Logger.Warn("rabbitmq: publish failed", "err", err)
		return err
	}
	return nil
}
