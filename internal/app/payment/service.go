// Package payment is the stand-in payment processor used for local runs.
package payment

import (
	"context"
	"strings"

	"github.com/YelzhanWeb/kitchenline/internal/adapter/logger"
	"github.com/YelzhanWeb/kitchenline/internal/domain"
	"github.com/YelzhanWeb/kitchenline/internal/interfaces"
	"github.com/shopspring/decimal"
)

// Service accepts every well-formed charge.
type Service struct {
	logger logger.Logger
}

func NewService(logger logger.Logger) *Service {
	return &Service{logger: logger}
}

func (s *Service) Charge(ctx context.Context, name, contact string, amount decimal.Decimal) (bool, error) {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(contact) == "" {
		return false, domain.ErrInvalidOrder
	}
	if amount.IsNegative() {
		return false, nil
	}

	s.logger.Info("payment_accepted", "Charge accepted", "", map[string]interface{}{
		"name":   name,
		"amount": amount.StringFixed(2),
	})
	return true, nil
}

var _ interfaces.PaymentGateway = (*Service)(nil)
