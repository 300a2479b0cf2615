package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/YelzhanWeb/kitchenline/internal/adapter/logger"
	"github.com/YelzhanWeb/kitchenline/internal/interfaces"
)

const defaultReconnectDelay = 5 * time.Second

type Consumer struct {
	conn           Connection
	logger         logger.Logger
	reconnectDelay time.Duration
}

func NewConsumer(conn Connection, logger logger.Logger) *Consumer {
	return &Consumer{conn: conn, logger: logger, reconnectDelay: defaultReconnectDelay}
}

// ConsumeNotifications binds a private queue to the notifications fanout and
// feeds every message to handler until ctx is done. Lost channels are
// reopened after a delay.
func (c *Consumer) ConsumeNotifications(ctx context.Context, handler interfaces.NotificationHandler) error {
	for {
		err := c.consumeOnce(ctx, handler)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(err, ErrConnectionClosed) {
			return err
		}

		c.logger.Error("rabbitmq_consumer_disconnected", "Notifications consumer disconnected, reconnecting", "", map[string]interface{}{
			"delay": c.reconnectDelay.String(),
		}, err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.reconnectDelay):
		}
	}
}

func (c *Consumer) consumeOnce(ctx context.Context, handler interfaces.NotificationHandler) error {
	ch, err := c.conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	closeChan := ch.NotifyClose()

	if err := declareNotifications(ch); err != nil {
		return err
	}

	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}
	if err := ch.QueueBind(q.Name, "", NotificationsExchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue: %w", err)
	}

	msgs, err := ch.Consume(q.Name, "", true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	c.logger.Info("rabbitmq_consumer_started", "Listening for status updates", "", map[string]interface{}{
		"queue": q.Name,
	})

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-closeChan:
			if err != nil {
				return fmt.Errorf("channel closed: %w", err)
			}
			return errors.New("channel closed")

		case msg, ok := <-msgs:
			if !ok {
				return errors.New("messages channel closed")
			}
			if err := handler(ctx, msg.Body); err != nil {
				c.logger.Error("notification_handler_failed", "Failed to handle notification", msg.MessageId, nil, err)
			}
		}
	}
}

var _ interfaces.MessageConsumer = (*Consumer)(nil)
