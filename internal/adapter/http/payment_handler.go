package http

import (
	"net/http"

	"github.com/YelzhanWeb/kitchenline/internal/adapter/logger"
	"github.com/YelzhanWeb/kitchenline/internal/interfaces"
	"github.com/shopspring/decimal"
)

type ChargeRequest struct {
	Name    string          `json:"name" validate:"required"`
	Contact string          `json:"contact" validate:"required"`
	Amount  decimal.Decimal `json:"amount"`
}

type ChargeResponse struct {
	Accepted bool `json:"accepted"`
}

// PaymentHandler serves a PaymentGateway over HTTP.
type PaymentHandler struct {
	gateway interfaces.PaymentGateway
	logger  logger.Logger
}

func NewPaymentHandler(gateway interfaces.PaymentGateway, logger logger.Logger) *PaymentHandler {
	return &PaymentHandler{gateway: gateway, logger: logger}
}

func (h *PaymentHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /payments", h.Charge)
	mux.HandleFunc("GET /health", health("payment-service"))
}

func (h *PaymentHandler) Charge(w http.ResponseWriter, r *http.Request) {
	var req ChargeRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if req.Amount.IsNegative() {
		respondError(w, "Validation failed", CodeValidation, http.StatusBadRequest, []ValidationError{
			{Field: "amount", Message: "must not be negative"},
		})
		return
	}

	accepted, err := h.gateway.Charge(r.Context(), req.Name, req.Contact, req.Amount)
	if err != nil {
		h.logger.Error("payment_failed", "Charge failed", RequestID(r.Context()), nil, err)
		respondServiceError(w, err)
		return
	}

	h.logger.Info("payment_processed", "Charge processed", RequestID(r.Context()), map[string]interface{}{
		"name":     req.Name,
		"amount":   req.Amount.String(),
		"accepted": accepted,
	})
	writeJSON(w, http.StatusOK, ChargeResponse{Accepted: accepted})
}
