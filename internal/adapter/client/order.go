package client

import (
	"context"
	"net/http"
	"net/url"

	httpAdapter "github.com/YelzhanWeb/kitchenline/internal/adapter/http"
	"github.com/YelzhanWeb/kitchenline/internal/domain"
	"github.com/YelzhanWeb/kitchenline/internal/interfaces"
)

// Order talks to one order service endpoint.
type Order struct {
	base
}

func NewOrder(baseURL string, hc *http.Client) *Order {
	return &Order{base: newBase(baseURL, hc)}
}

func (o *Order) Endpoint() string {
	return o.url
}

func (o *Order) GetMenu(ctx context.Context) (*domain.Menu, error) {
	var menu domain.Menu
	if _, err := o.do(ctx, http.MethodGet, "/menu", nil, &menu); err != nil {
		return nil, err
	}
	return &menu, nil
}

// PlaceOrder returns domain.ErrInsufficientStock when the service answers
// with the failure token.
func (o *Order) PlaceOrder(ctx context.Context, cmd interfaces.PlaceOrderCommand) (*domain.Order, error) {
	req := httpAdapter.PlaceOrderRequest{
		CustomerName: cmd.CustomerName,
		Contact:      cmd.Contact,
		Items:        cmd.Items,
	}

	var resp httpAdapter.PlaceOrderResponse
	_, err := o.do(ctx, http.MethodPost, "/orders", req, &resp)
	if err != nil {
		return nil, err
	}
	if resp.OrderID == domain.FailureToken {
		return nil, domain.ErrInsufficientStock
	}

	items := make(map[string]int, len(cmd.Items))
	for name, qty := range cmd.Items {
		if qty > 0 {
			items[name] = qty
		}
	}
	return &domain.Order{
		ID:              resp.OrderID,
		Status:          resp.Status,
		CustomerName:    cmd.CustomerName,
		Contact:         cmd.Contact,
		TotalAmount:     resp.TotalAmount,
		Items:           items,
		PaymentAccepted: resp.PaymentAccepted,
	}, nil
}

func (o *Order) GetOrderStatus(ctx context.Context, orderID string) (domain.Status, error) {
	var resp httpAdapter.OrderStatusResponse
	if _, err := o.do(ctx, http.MethodGet, "/orders/"+url.PathEscape(orderID)+"/status", nil, &resp); err != nil {
		return domain.StatusInvalid, err
	}
	return domain.ParseStatus(string(resp.Status)), nil
}

var _ interfaces.OrderService = (*Order)(nil)
