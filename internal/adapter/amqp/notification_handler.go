package amqp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/YelzhanWeb/kitchenline/internal/adapter/logger"
	"github.com/YelzhanWeb/kitchenline/internal/interfaces"
)

// NotificationHandler prints every status update it receives.
type NotificationHandler struct {
	logger logger.Logger
	out    io.Writer
}

func NewNotificationHandler(logger logger.Logger, out io.Writer) *NotificationHandler {
	return &NotificationHandler{
		logger: logger,
		out:    out,
	}
}

func (h *NotificationHandler) HandleNotification(ctx context.Context, body []byte) error {
	var msg interfaces.StatusUpdateMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		h.logger.Error("message_parse_failed", "Failed to parse notification", "", nil, err)
		return err
	}

	h.logger.Debug("notification_received", fmt.Sprintf("Received status update for order %s", msg.OrderID),
		msg.OrderID, map[string]interface{}{
			"event":      msg.Event,
			"new_status": msg.NewStatus,
		})

	from := msg.OldStatus
	if from == "" {
		from = "-"
	}
	_, err := fmt.Fprintf(h.out, "Notification for order %s: %s (%s -> %s) by %s\n",
		msg.OrderID, msg.Event, from, msg.NewStatus, msg.ChangedBy)
	return err
}
