package rabbit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/hoblink/hoblink-backend/pkg/logger"
	wrap "github.com/hoblink/hoblink-backend/pkg/logger/wrapper"
	"github.com/hoblink/hoblink-backend/pkg/metrics"
	"github.com/hoblink/hoblink-backend/pkg/rabbit"
)

const (
	// driver positions fan out to every connected bridge
	ExchangeLocationFanout = "location_fanout"
	// ride lifecycle changes are routed per ride
	ExchangeRideTopic = "ride_topic"

	QueueRideStatus = "ride_status"

	publishRetries      = 5
	publishRetryBackoff = 2 * time.Second
	consumeRetryBackoff = 2 * time.Second
)

// Broker wraps the shared RabbitMQ client with the exchanges this system
// uses. Declarations are idempotent; every service calls Setup on start.
type Broker struct {
	client  *rabbit.RabbitMQ
	service string
	log     logger.Logger
}

func NewBroker(client *rabbit.RabbitMQ, service string, log logger.Logger) *Broker {
	return &Broker{client: client, service: service, log: log}
}

// Setup declares the exchanges and the durable ride status queue.
func (b *Broker) Setup(ctx context.Context) error {
	const op = "Broker.Setup"

	if err := b.client.Channel.ExchangeDeclare(ExchangeLocationFanout, "fanout", true, false, false, false, nil); err != nil {
		return fmt.Errorf("%s: declare %s: %w", op, ExchangeLocationFanout, err)
	}
	if err := b.client.Channel.ExchangeDeclare(ExchangeRideTopic, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("%s: declare %s: %w", op, ExchangeRideTopic, err)
	}

	if _, err := b.client.Channel.QueueDeclare(QueueRideStatus, true, false, false, false, nil); err != nil {
		return fmt.Errorf("%s: declare %s: %w", op, QueueRideStatus, err)
	}
	if err := b.client.Channel.QueueBind(QueueRideStatus, "ride.status.*", ExchangeRideTopic, false, nil); err != nil {
		return fmt.Errorf("%s: bind %s: %w", op, QueueRideStatus, err)
	}

	return nil
}

func (b *Broker) publish(ctx context.Context, exchange, routingKey string, msg any) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	pub := amqp.Publishing{
		ContentType:   "application/json",
		Body:          body,
		Timestamp:     time.Now(),
		CorrelationId: wrap.GetRequestID(ctx),
	}

	err = retry(publishRetries, publishRetryBackoff, func() error {
		return b.client.Channel.PublishWithContext(ctx, exchange, routingKey, false, false, pub)
	})
	metrics.RecordRabbitMQPublish(b.service, exchange, err)
	if err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

func retry(n int, sleep time.Duration, fn func() error) error {
	var err error
	for range n {
		if err = fn(); err == nil {
			return nil
		}
		time.Sleep(sleep)
	}
	return err
}
