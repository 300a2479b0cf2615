package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/YelzhanWeb/kitchenline/internal/adapter/logger"
	"github.com/YelzhanWeb/kitchenline/internal/domain"
	"github.com/YelzhanWeb/kitchenline/internal/interfaces"
)

const chefHelp = "Commands:\n  ADD <item> <count>\n  READY <order-id>\n  EXIT\n"

// Chef prints newly placed orders as they arrive and lets the cook restock
// items and mark orders ready.
type Chef struct {
	kitchen interfaces.KitchenService
	catalog *domain.Catalog
	poll    time.Duration
	logger  logger.Logger
}

func NewChef(kitchen interfaces.KitchenService, catalog *domain.Catalog, poll time.Duration, logger logger.Logger) *Chef {
	return &Chef{
		kitchen: kitchen,
		catalog: catalog,
		poll:    pollInterval(poll),
		logger:  logger,
	}
}

// Run reads commands from in until EXIT, end of input or ctx cancellation.
// The order feed runs alongside and stops before Run returns.
func (c *Chef) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	con := newConsole(out)
	con.printf(chefHelp)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.feed(ctx, con)
	}()
	defer wg.Wait()

	lines := readLines(ctx, in)
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if c.handle(ctx, con, line) {
				return nil
			}
		}
	}
}

func (c *Chef) handle(ctx context.Context, con *console, line string) (exit bool) {
	verb, args := command(line)
	switch verb {
	case cmdExit:
		return true
	case "ADD":
		item, count, err := c.parseAdd(args)
		if err != nil {
			con.printf("Try again: %v\n", err)
			return false
		}
		if err := c.kitchen.Restock(ctx, item, count); err != nil {
			c.logger.Warn("restock_failed", "Restock rejected", "", map[string]interface{}{"item": item, "count": count, "reason": err.Error()})
			con.printf("Failed to add %s: %v\n", item, err)
			return false
		}
		con.printf("Added %d %s\n", count, item)
	case "READY":
		if len(args) != 1 {
			con.printf("Try again: usage READY <order-id>\n")
			return false
		}
		if err := c.kitchen.MarkReady(ctx, args[0]); err != nil {
			con.printf("Failed to mark %s ready: %v\n", args[0], err)
			return false
		}
		con.printf("Order %s is ready for delivery\n", args[0])
	default:
		con.printf("Try again: unknown command %q\n%s", verb, chefHelp)
	}
	return false
}

func (c *Chef) parseAdd(args []string) (string, int, error) {
	if len(args) != 2 {
		return "", 0, errors.New("usage ADD <item> <count>")
	}
	item := args[0]
	if !c.catalog.Contains(item) {
		return "", 0, fmt.Errorf("%w: %s", domain.ErrUnknownItem, item)
	}
	count, err := strconv.Atoi(args[1])
	if err != nil || count <= 0 {
		return "", 0, fmt.Errorf("%w: %q", domain.ErrInvalidQuantity, args[1])
	}
	return item, count, nil
}

// feed drains the placed queue every poll interval.
func (c *Chef) feed(ctx context.Context, con *console) {
	ticker := time.NewTicker(c.poll)
	defer ticker.Stop()

	for {
		for {
			order, err := c.kitchen.DequeueNext(ctx)
			if err != nil {
				if !errors.Is(err, domain.ErrNoPlacedOrders) && ctx.Err() == nil {
					c.logger.Warn("dequeue_failed", "Failed to poll placed orders", "", map[string]interface{}{"reason": err.Error()})
				}
				break
			}
			printPlaced(con, order)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func printPlaced(con *console, order *domain.Order) {
	con.printf(">>> New order %s for %s (%s)\n", order.ID, order.CustomerName, order.Contact)
	for _, name := range domain.SortedItemNames(order.Items) {
		con.printf("    %s x%d\n", name, order.Items[name])
	}
}
