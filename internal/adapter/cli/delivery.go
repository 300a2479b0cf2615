package cli

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/YelzhanWeb/kitchenline/internal/adapter/logger"
	"github.com/YelzhanWeb/kitchenline/internal/domain"
	"github.com/YelzhanWeb/kitchenline/internal/interfaces"
)

// DeliveryAgent claims ready orders one at a time and marks each delivered
// once the agent types DONE.
type DeliveryAgent struct {
	kitchen interfaces.KitchenService
	poll    time.Duration
	logger  logger.Logger
}

func NewDeliveryAgent(kitchen interfaces.KitchenService, poll time.Duration, logger logger.Logger) *DeliveryAgent {
	return &DeliveryAgent{
		kitchen: kitchen,
		poll:    pollInterval(poll),
		logger:  logger,
	}
}

func (d *DeliveryAgent) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	con := newConsole(out)
	lines := readLines(ctx, in)
	con.printf("Waiting for ready orders. Type DONE after each delivery, EXIT to quit.\n")

	for {
		orderID, err := d.kitchen.ClaimReadyOrder(ctx)
		if err != nil {
			if !errors.Is(err, domain.ErrNoReadyOrders) && ctx.Err() == nil {
				d.logger.Warn("claim_failed", "Failed to claim a ready order", "", map[string]interface{}{"reason": err.Error()})
			}
			if !d.idle(ctx, con, lines) {
				return nil
			}
			continue
		}

		con.printf("*** Delivery assigned: order %s\n", orderID)
		if !d.awaitDone(ctx, con, lines, orderID) {
			d.logger.Warn("delivery_abandoned", "Agent left with a claimed order", orderID, nil)
			return nil
		}
		if err := d.kitchen.MarkDelivered(ctx, orderID); err != nil {
			d.logger.Error("mark_delivered_failed", "Failed to mark order delivered", orderID, nil, err)
			con.printf("Could not mark %s delivered: %v\n", orderID, err)
			continue
		}
		d.logger.Info("order_delivered", "Order delivered", orderID, nil)
		con.printf("Order %s delivered\n", orderID)
	}
}

// idle waits one poll interval. Input typed meanwhile is only checked for
// EXIT. It reports false when the agent should stop.
func (d *DeliveryAgent) idle(ctx context.Context, con *console, lines <-chan string) bool {
	timer := time.NewTimer(d.poll)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return false
		case <-timer.C:
			return true
		case line, ok := <-lines:
			if !ok || strings.EqualFold(line, cmdExit) {
				return false
			}
			con.printf("No delivery assigned yet\n")
		}
	}
}

func (d *DeliveryAgent) awaitDone(ctx context.Context, con *console, lines <-chan string, orderID string) bool {
	for {
		select {
		case <-ctx.Done():
			return false
		case line, ok := <-lines:
			if !ok || strings.EqualFold(line, cmdExit) {
				return false
			}
			if strings.EqualFold(line, cmdDone) {
				return true
			}
			con.printf("Type DONE once order %s is delivered\n", orderID)
		}
	}
}
