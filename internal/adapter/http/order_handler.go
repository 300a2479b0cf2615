package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/YelzhanWeb/kitchenline/internal/adapter/logger"
	"github.com/YelzhanWeb/kitchenline/internal/domain"
	"github.com/YelzhanWeb/kitchenline/internal/interfaces"
	"github.com/shopspring/decimal"
)

type OrderHandler struct {
	service interfaces.OrderService
	logger  logger.Logger
}

func NewOrderHandler(service interfaces.OrderService, logger logger.Logger) *OrderHandler {
	return &OrderHandler{
		service: service,
		logger:  logger,
	}
}

type PlaceOrderRequest struct {
	CustomerName string         `json:"customer_name" validate:"required,max=100"`
	Contact      string         `json:"contact" validate:"required,max=100"`
	Items        map[string]int `json:"items" validate:"required,min=1,dive,keys,required,max=50,endkeys,gte=0"`
}

type PlaceOrderResponse struct {
	OrderID         string          `json:"order_id"`
	Status          domain.Status   `json:"status"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	PaymentAccepted bool            `json:"payment_accepted"`
}

// RejectedOrderResponse is returned with 409 when stock runs short. The
// order_id field carries the failure token so old clients can keep
// comparing against it.
type RejectedOrderResponse struct {
	OrderID string `json:"order_id"`
	Error   string `json:"error"`
	Code    string `json:"code"`
}

type OrderStatusResponse struct {
	OrderID string        `json:"order_id"`
	Status  domain.Status `json:"status"`
}

func (h *OrderHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /menu", h.GetMenu)
	mux.HandleFunc("POST /orders", h.PlaceOrder)
	mux.HandleFunc("GET /orders/{id}/status", h.GetOrderStatus)
	mux.HandleFunc("GET /health", health("order-service"))
}

func (h *OrderHandler) GetMenu(w http.ResponseWriter, r *http.Request) {
	menu, err := h.service.GetMenu(r.Context())
	if err != nil {
		h.logger.Error("menu_failed", "Failed to build menu", RequestID(r.Context()), nil, err)
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, menu)
}

func (h *OrderHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	requestID := RequestID(r.Context())

	var req PlaceOrderRequest
	if !decodeAndValidate(w, r, &req) {
		h.logger.Debug("validation_failed", "Order validation failed", requestID, nil)
		return
	}

	order, err := h.service.PlaceOrder(r.Context(), interfaces.PlaceOrderCommand{
		CustomerName: strings.TrimSpace(req.CustomerName),
		Contact:      strings.TrimSpace(req.Contact),
		Items:        req.Items,
	})
	if errors.Is(err, domain.ErrInsufficientStock) {
		writeJSON(w, http.StatusConflict, RejectedOrderResponse{
			OrderID: domain.FailureToken,
			Error:   err.Error(),
			Code:    CodeInsufficientStock,
		})
		return
	}
	if err != nil {
		h.logger.Error("order_creation_failed", "Failed to create order", requestID, nil, err)
		respondServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, PlaceOrderResponse{
		OrderID:         order.ID,
		Status:          order.Status,
		TotalAmount:     order.TotalAmount,
		PaymentAccepted: order.PaymentAccepted,
	})
}

func (h *OrderHandler) GetOrderStatus(w http.ResponseWriter, r *http.Request) {
	orderID := r.PathValue("id")

	status, err := h.service.GetOrderStatus(r.Context(), orderID)
	if err != nil {
		h.logger.Error("order_status_failed", "Failed to get order status", RequestID(r.Context()), map[string]interface{}{
			"order_id": orderID,
		}, err)
		respondServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, OrderStatusResponse{OrderID: orderID, Status: status})
}
