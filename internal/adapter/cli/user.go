package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/YelzhanWeb/kitchenline/internal/adapter/logger"
	"github.com/YelzhanWeb/kitchenline/internal/domain"
	"github.com/YelzhanWeb/kitchenline/internal/interfaces"
)

const userHelp = "Commands:\n  MENU\n  ORDER <name> <contact> <item>=<qty> [<item>=<qty> ...]\n  STATUS\n  EXIT\n"

// User is the customer console. It tracks at most one active order, which is
// forgotten once it reaches COMPLETE.
type User struct {
	orders interfaces.OrderService
	logger logger.Logger

	active string
}

func NewUser(orders interfaces.OrderService, logger logger.Logger) *User {
	return &User{orders: orders, logger: logger}
}

// ActiveOrder returns the tracked order ID, or "" when there is none.
func (u *User) ActiveOrder() string {
	return u.active
}

func (u *User) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	con := newConsole(out)
	con.printf(userHelp)

	lines := readLines(ctx, in)
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if u.handle(ctx, con, line) {
				return nil
			}
		}
	}
}

func (u *User) handle(ctx context.Context, con *console, line string) (exit bool) {
	verb, args := command(line)
	switch verb {
	case cmdExit:
		return true
	case "MENU":
		u.showMenu(ctx, con)
	case "ORDER":
		cmd, err := ParseOrder(args)
		if err != nil {
			con.printf("Try again: %v\n", err)
			return false
		}
		u.placeOrder(ctx, con, cmd)
	case "STATUS":
		u.showStatus(ctx, con)
	default:
		con.printf("Try again: unknown command %q\n%s", verb, userHelp)
	}
	return false
}

// ParseOrder turns "<name> <contact> <item>=<qty>..." into a command.
// Zero quantities are kept; the order service drops them.
func ParseOrder(args []string) (interfaces.PlaceOrderCommand, error) {
	if len(args) < 3 {
		return interfaces.PlaceOrderCommand{}, errors.New("usage ORDER <name> <contact> <item>=<qty> ...")
	}

	cmd := interfaces.PlaceOrderCommand{
		CustomerName: args[0],
		Contact:      args[1],
		Items:        make(map[string]int, len(args)-2),
	}
	for _, pair := range args[2:] {
		name, raw, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			return interfaces.PlaceOrderCommand{}, fmt.Errorf("expected <item>=<qty>, got %q", pair)
		}
		qty, err := strconv.Atoi(raw)
		if err != nil || qty < 0 {
			return interfaces.PlaceOrderCommand{}, fmt.Errorf("%w: %s=%s", domain.ErrInvalidQuantity, name, raw)
		}
		cmd.Items[name] += qty
	}
	return cmd, nil
}

func (u *User) showMenu(ctx context.Context, con *console) {
	menu, err := u.orders.GetMenu(ctx)
	if err != nil {
		u.report(con, "get_menu", err)
		return
	}

	var b strings.Builder
	tw := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ITEM\tPRICE\tAVAILABLE")
	for _, item := range menu.Items {
		fmt.Fprintf(tw, "%s\t%s\t%d\n", item.Name, item.Price.StringFixed(2), item.Count)
	}
	tw.Flush()
	con.printf("%s", b.String())
}

func (u *User) placeOrder(ctx context.Context, con *console, cmd interfaces.PlaceOrderCommand) {
	if u.active != "" {
		status, err := u.orders.GetOrderStatus(ctx, u.active)
		if err != nil {
			u.report(con, "get_order_status", err)
			return
		}
		if status != domain.StatusComplete && status != domain.StatusInvalid {
			con.printf("Order %s is still %s; wait until it is delivered\n", u.active, status)
			return
		}
		u.active = ""
	}

	order, err := u.orders.PlaceOrder(ctx, cmd)
	switch {
	case errors.Is(err, domain.ErrInsufficientStock):
		con.printf("Order %s: not enough stock\n", domain.FailureToken)
		return
	case err != nil:
		u.report(con, "place_order", err)
		return
	}

	u.active = order.ID
	con.printf("Order %s placed, total %s\n", order.ID, order.TotalAmount.StringFixed(2))
	if !order.PaymentAccepted {
		con.printf("Payment was not confirmed; pay on delivery\n")
	}
}

func (u *User) showStatus(ctx context.Context, con *console) {
	if u.active == "" {
		con.printf("No active order\n")
		return
	}

	status, err := u.orders.GetOrderStatus(ctx, u.active)
	if err != nil {
		u.report(con, "get_order_status", err)
		return
	}
	con.printf("Order %s: %s\n", u.active, status)
	if status == domain.StatusComplete || status == domain.StatusInvalid {
		u.active = ""
	}
}

func (u *User) report(con *console, action string, err error) {
	u.logger.Warn(action+"_failed", "Order service call failed", "", map[string]interface{}{"reason": err.Error()})
	if errors.Is(err, interfaces.ErrServiceUnavailable) {
		con.printf("Order service unavailable, try again later\n")
		return
	}
	con.printf("Request failed: %v\n", err)
}
