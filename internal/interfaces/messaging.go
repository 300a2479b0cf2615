package interfaces

import (
	"context"
	"time"

	"github.com/YelzhanWeb/kitchenline/internal/domain"
)

// StatusUpdateMessage is broadcast on every order lifecycle change.
type StatusUpdateMessage struct {
	OrderID   string        `json:"order_id"`
	OldStatus domain.Status `json:"old_status,omitempty"`
	NewStatus domain.Status `json:"new_status"`
	Event     string        `json:"event"`
	ChangedBy string        `json:"changed_by"`
	Timestamp time.Time     `json:"timestamp"`
}

const (
	EventOrderPlaced    = "order_placed"
	EventOrderReceived  = "order_received"
	EventOrderReady     = "order_ready"
	EventOrderAssigned  = "order_assigned"
	EventOrderDelivered = "order_delivered"
)

type MessagePublisher interface {
	PublishStatusUpdate(ctx context.Context, msg StatusUpdateMessage) error
}

type MessageConsumer interface {
	ConsumeNotifications(ctx context.Context, handler NotificationHandler) error
}

type NotificationHandler func(ctx context.Context, body []byte) error

// NopPublisher drops every message. Used when the broker is disabled.
type NopPublisher struct{}

func (NopPublisher) PublishStatusUpdate(context.Context, StatusUpdateMessage) error { return nil }
