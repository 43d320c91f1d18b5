package rabbit

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/hoblink/hoblink-backend/internal/domain/models"
	wrap "github.com/hoblink/hoblink-backend/pkg/logger/wrapper"
	"github.com/hoblink/hoblink-backend/pkg/metrics"
)

// PublishLocation pushes one driver position to the fanout exchange.
// Delivery is at-most-once: consumers reconcile gaps from the tracking log.
func (b *Broker) PublishLocation(ctx context.Context, update *models.LocationUpdate) error {
	ctx = wrap.WithAction(ctx, "publish_location_update")

	if err := b.publish(ctx, ExchangeLocationFanout, "", update); err != nil {
		return wrap.Error(ctx, err)
	}
	return nil
}

type LocationHandlerFunc func(ctx context.Context, update models.LocationUpdate)

// ConsumeLocations binds a fresh exclusive queue to the fanout exchange and
// feeds every position to fn. Each caller sees the full stream. Blocks until
// ctx is done, reconnecting as needed.
func (b *Broker) ConsumeLocations(ctx context.Context, fn LocationHandlerFunc) error {
	const op = "Broker.ConsumeLocations"

	for {
		if ctx.Err() != nil {
			b.log.Debug(ctx, "location consumer stopped by context")
			return nil
		}

		if err := b.client.EnsureConnection(ctx); err != nil {
			b.log.Error(ctx, "ensure connection failed", err, "op", op)
			time.Sleep(consumeRetryBackoff)
			continue
		}

		// exclusive auto-delete queue: one per consumer, gone on disconnect
		q, err := b.client.Channel.QueueDeclare("", false, true, true, false, nil)
		if err != nil {
			b.log.Error(ctx, "queue declare failed", err, "op", op)
			time.Sleep(consumeRetryBackoff)
			continue
		}
		if err := b.client.Channel.QueueBind(q.Name, "", ExchangeLocationFanout, false, nil); err != nil {
			b.log.Error(ctx, "queue bind failed", err, "op", op)
			time.Sleep(consumeRetryBackoff)
			continue
		}

		msgs, err := b.client.Channel.Consume(q.Name, "", true, true, false, false, nil)
		if err != nil {
			b.log.Error(ctx, "consume failed", err, "op", op)
			time.Sleep(consumeRetryBackoff)
			continue
		}

		b.log.Info(ctx, "start consuming location updates", "queue", q.Name)

	consumeLoop:
		for {
			select {
			case <-ctx.Done():
				b.log.Info(ctx, "location consumer shutting down", "op", op)
				return nil

			case msg, ok := <-msgs:
				if !ok {
					b.log.Warn(ctx, "message channel closed, reconnecting", "op", op)
					time.Sleep(consumeRetryBackoff)
					break consumeLoop
				}

				b.handleLocation(ctx, fn, msg)
			}
		}
	}
}

func (b *Broker) handleLocation(ctx context.Context, fn LocationHandlerFunc, msg amqp.Delivery) {
	ctx = wrap.WithAction(ctx, "rabbitmq_handle_location")

	var update models.LocationUpdate
	err := json.Unmarshal(msg.Body, &update)
	metrics.RecordRabbitMQConsume(b.service, ExchangeLocationFanout, err)
	if err != nil {
		// auto-ack fanout: a bad payload is dropped, not redelivered
		b.log.Error(ctx, "decode failed", err)
		return
	}

	ctx = wrap.WithRequestID(wrap.WithDriverID(ctx, update.DriverID.String()), msg.CorrelationId)
	fn(ctx, update)
}
