package client

import (
	"context"
	"net/http"

	httpAdapter "github.com/YelzhanWeb/kitchenline/internal/adapter/http"
	"github.com/YelzhanWeb/kitchenline/internal/interfaces"
	"github.com/shopspring/decimal"
)

type Payment struct {
	base
}

func NewPayment(baseURL string, hc *http.Client) *Payment {
	return &Payment{base: newBase(baseURL, hc)}
}

func (p *Payment) Charge(ctx context.Context, name, contact string, amount decimal.Decimal) (bool, error) {
	var resp httpAdapter.ChargeResponse
	req := httpAdapter.ChargeRequest{Name: name, Contact: contact, Amount: amount}
	if _, err := p.do(ctx, http.MethodPost, "/payments", req, &resp); err != nil {
		return false, err
	}
	return resp.Accepted, nil
}

var _ interfaces.PaymentGateway = (*Payment)(nil)
