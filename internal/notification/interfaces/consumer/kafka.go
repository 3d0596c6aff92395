// Package consumer feeds the notification service from the order topic.
package consumer

import (
	"context"
	"errors"

	"github.com/punjabheritage/storefront/internal/notification/application"
	pkglogger "github.com/punjabheritage/storefront/pkg/logger"
	"github.com/punjabheritage/storefront/pkg/mq"
)

type OrderEvents struct {
	app      *application.Service
	consumer *mq.KafkaConsumer
}

func NewOrderEvents(app *application.Service, consumer *mq.KafkaConsumer) *OrderEvents {
	return &OrderEvents{app: app, consumer: consumer}
}

// Run reads the order topic until the context is cancelled. Undecodable
// and unknown messages are skipped; the consumer never stops over one bad
// payload.
func (c *OrderEvents) Run(ctx context.Context) error {
	for {
		msg, err := c.consumer.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return ctx.Err()
			}
			pkglogger.Error(ctx, "failed to read order event", "error", err)
			continue
		}

		var payload application.OrderCreatedMessage
		if err := msg.UnmarshalPayload(&payload); err != nil {
			pkglogger.Warn(ctx, "skipping undecodable order event", "offset", msg.Offset, "error", err)
			continue
		}
		if payload.Event != "order.created" {
			continue
		}
		c.app.HandleOrderCreated(ctx, payload)
	}
}
