package interfaces

import (
	"context"
	"errors"

	"github.com/YelzhanWeb/kitchenline/internal/domain"
	"github.com/shopspring/decimal"
)

// ErrServiceUnavailable marks connection-level failures reaching a remote
// service. Callers use errors.Is to tell them apart from business errors.
var ErrServiceUnavailable = errors.New("service unavailable")

// KitchenService is the kitchen contract used by the order service and by
// the chef and delivery-agent front ends.
type KitchenService interface {
	ReceiveOrder(ctx context.Context, order *domain.Order) error
	DequeueNext(ctx context.Context) (*domain.Order, error)
	Restock(ctx context.Context, item string, delta int) error
	GetCount(ctx context.Context, item string) (int, error)
	MarkReady(ctx context.Context, orderID string) error
	ClaimReadyOrder(ctx context.Context) (string, error)
	MarkDelivered(ctx context.Context, orderID string) error
	StatusOf(ctx context.Context, orderID string) (domain.Status, error)
}

// OrderService is the order contract consumed by the user front end.
type OrderService interface {
	GetMenu(ctx context.Context) (*domain.Menu, error)
	PlaceOrder(ctx context.Context, cmd PlaceOrderCommand) (*domain.Order, error)
	GetOrderStatus(ctx context.Context, orderID string) (domain.Status, error)
}

// PaymentGateway charges a customer. A false result with a nil error means
// the charge was declined.
type PaymentGateway interface {
	Charge(ctx context.Context, name, contact string, amount decimal.Decimal) (bool, error)
}

type PlaceOrderCommand struct {
	CustomerName string
	Contact      string
	Items        map[string]int
}
