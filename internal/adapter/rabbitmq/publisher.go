package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/YelzhanWeb/kitchenline/internal/interfaces"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher sends status updates to the notifications fanout. It keeps one
// channel open and reopens it after a failure.
type Publisher struct {
	conn Connection

	mu       sync.Mutex
	ch       Channel
	declared bool
}

func NewPublisher(conn Connection) *Publisher {
	return &Publisher{conn: conn}
}

func (p *Publisher) PublishStatusUpdate(ctx context.Context, msg interfaces.StatusUpdateMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channel()
	if err != nil {
		return err
	}

	err = ch.Publish(ctx, NotificationsExchange, "", amqp.Publishing{
		ContentType: "application/json",
		MessageId:   msg.OrderID,
		Timestamp:   msg.Timestamp,
		Type:        msg.Event,
		Body:        body,
	})
	if err != nil {
		p.reset()
		return fmt.Errorf("failed to publish message: %w", err)
	}
	return nil
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch == nil {
		return nil
	}
	err := p.ch.Close()
	p.ch = nil
	return err
}

func (p *Publisher) channel() (Channel, error) {
	if p.ch != nil {
		return p.ch, nil
	}
	ch, err := p.conn.Channel()
	if err != nil {
		return nil, err
	}
	if !p.declared {
		if err := declareNotifications(ch); err != nil {
			ch.Close()
			return nil, err
		}
		p.declared = true
	}
	p.ch = ch
	return ch, nil
}

func (p *Publisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	p.ch = nil
	p.declared = false
}

var _ interfaces.MessagePublisher = (*Publisher)(nil)
