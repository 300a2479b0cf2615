package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	httpAdapter "github.com/YelzhanWeb/kitchenline/internal/adapter/http"
	"github.com/YelzhanWeb/kitchenline/internal/domain"
	"github.com/YelzhanWeb/kitchenline/internal/interfaces"
)

// Kitchen talks to a remote kitchen service.
type Kitchen struct {
	base
}

func NewKitchen(baseURL string, hc *http.Client) *Kitchen {
	return &Kitchen{base: newBase(baseURL, hc)}
}

func (k *Kitchen) ReceiveOrder(ctx context.Context, order *domain.Order) error {
	_, err := k.do(ctx, http.MethodPost, "/kitchen/orders", httpAdapter.NewKitchenOrder(order), nil)
	return err
}

func (k *Kitchen) DequeueNext(ctx context.Context) (*domain.Order, error) {
	var resp httpAdapter.KitchenOrder
	status, err := k.do(ctx, http.MethodPost, "/kitchen/orders/next", nil, &resp)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNoContent {
		return nil, domain.ErrNoPlacedOrders
	}
	return resp.Order(), nil
}

func (k *Kitchen) Restock(ctx context.Context, item string, delta int) error {
	if delta <= 0 {
		return fmt.Errorf("%w: restock %s by %d", domain.ErrInvalidQuantity, item, delta)
	}
	path := "/kitchen/inventory/" + url.PathEscape(item) + "/restock"
	_, err := k.do(ctx, http.MethodPost, path, httpAdapter.RestockRequest{Quantity: delta}, nil)
	return err
}

func (k *Kitchen) GetCount(ctx context.Context, item string) (int, error) {
	var resp httpAdapter.InventoryResponse
	if _, err := k.do(ctx, http.MethodGet, "/kitchen/inventory/"+url.PathEscape(item), nil, &resp); err != nil {
		return 0, err
	}
	return resp.Count, nil
}

func (k *Kitchen) MarkReady(ctx context.Context, orderID string) error {
	_, err := k.do(ctx, http.MethodPost, "/kitchen/orders/"+url.PathEscape(orderID)+"/ready", nil, nil)
	return err
}

func (k *Kitchen) ClaimReadyOrder(ctx context.Context) (string, error) {
	var resp httpAdapter.ClaimResponse
	status, err := k.do(ctx, http.MethodPost, "/kitchen/deliveries/claim", nil, &resp)
	if err != nil {
		return "", err
	}
	if status == http.StatusNoContent {
		return "", domain.ErrNoReadyOrders
	}
	return resp.OrderID, nil
}

func (k *Kitchen) MarkDelivered(ctx context.Context, orderID string) error {
	_, err := k.do(ctx, http.MethodPost, "/kitchen/orders/"+url.PathEscape(orderID)+"/delivered", nil, nil)
	return err
}

func (k *Kitchen) StatusOf(ctx context.Context, orderID string) (domain.Status, error) {
	var resp httpAdapter.OrderStatusResponse
	if _, err := k.do(ctx, http.MethodGet, "/kitchen/orders/"+url.PathEscape(orderID)+"/status", nil, &resp); err != nil {
		return domain.StatusInvalid, err
	}
	return domain.ParseStatus(string(resp.Status)), nil
}

var _ interfaces.KitchenService = (*Kitchen)(nil)
