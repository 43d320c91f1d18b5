package rabbit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/hoblink/hoblink-backend/internal/domain/models"
	wrap "github.com/hoblink/hoblink-backend/pkg/logger/wrapper"
	"github.com/hoblink/hoblink-backend/pkg/metrics"
)

// PublishStatus routes a ride lifecycle change with a per-ride key so
// subscribers can filter on the rides they care about.
func (b *Broker) PublishStatus(ctx context.Context, ride *models.Ride) error {
	ctx = wrap.WithAction(ctx, "publish_ride_status")
	key := fmt.Sprintf("ride.status.%s", ride.ID)

	if err := b.publish(ctx, ExchangeRideTopic, key, ride); err != nil {
		return wrap.Error(ctx, err)
	}
	return nil
}

type RideStatusHandlerFunc func(ctx context.Context, ride models.Ride) error

// ConsumeRideStatus reads the durable ride status queue and hands each
// change to fn. A handler error Nacks without requeue. Blocks until ctx is
// done, reconnecting as needed.
func (b *Broker) ConsumeRideStatus(ctx context.Context, fn RideStatusHandlerFunc) error {
	const op = "Broker.ConsumeRideStatus"

	for {
		if ctx.Err() != nil {
			b.log.Debug(ctx, "ride status consumer stopped by context")
			return nil
		}

		if err := b.client.EnsureConnection(ctx); err != nil {
			b.log.Error(ctx, "ensure connection failed", err, "op", op)
			time.Sleep(consumeRetryBackoff)
			continue
		}

		msgs, err := b.client.Channel.Consume(QueueRideStatus, "", false, false, false, false, nil)
		if err != nil {
			b.log.Error(ctx, "consume failed", err, "op", op)
			time.Sleep(consumeRetryBackoff)
			continue
		}

		b.log.Info(ctx, "start consuming ride status", "queue", QueueRideStatus)

	consumeLoop:
		for {
			select {
			case <-ctx.Done():
				b.log.Info(ctx, "ride status consumer shutting down", "op", op)
				return nil

			case msg, ok := <-msgs:
				if !ok {
					b.log.Warn(ctx, "message channel closed, reconnecting", "op", op)
					time.Sleep(consumeRetryBackoff)
					break consumeLoop
				}

				go b.handleRideStatus(ctx, fn, msg)
			}
		}
	}
}

func (b *Broker) handleRideStatus(ctx context.Context, fn RideStatusHandlerFunc, msg amqp.Delivery) {
	ctx = wrap.WithAction(ctx, "rabbitmq_handle_ride_status")

	var ride models.Ride
	err := json.Unmarshal(msg.Body, &ride)
	metrics.RecordRabbitMQConsume(b.service, QueueRideStatus, err)
	if err != nil {
		b.log.Error(ctx, "decode failed", err)
		_ = msg.Nack(false, false)
		return
	}

	ctx = wrap.WithRequestID(wrap.WithRideID(ctx, ride.ID.String()), msg.CorrelationId)

	if err := fn(ctx, ride); err != nil {
		b.log.Error(ctx, "failed to handle ride status", err)
		_ = msg.Nack(false, false)
		return
	}

	if err := msg.Ack(false); err != nil {
		b.log.Warn(ctx, "ack failed", "err", err.Error())
	}
}
