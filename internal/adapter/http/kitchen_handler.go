package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/YelzhanWeb/kitchenline/internal/adapter/logger"
	"github.com/YelzhanWeb/kitchenline/internal/domain"
	"github.com/YelzhanWeb/kitchenline/internal/interfaces"
	"github.com/shopspring/decimal"
)

// Kitchen is what the kitchen endpoints serve: the coordinator contract plus
// a full inventory listing.
type Kitchen interface {
	interfaces.KitchenService
	Inventory() map[string]int
}

type KitchenHandler struct {
	service Kitchen
	logger  logger.Logger
}

func NewKitchenHandler(service Kitchen, logger logger.Logger) *KitchenHandler {
	return &KitchenHandler{
		service: service,
		logger:  logger,
	}
}

// KitchenOrder is the wire form of an order handed to the kitchen.
type KitchenOrder struct {
	OrderID      string          `json:"order_id" validate:"required,max=64"`
	CustomerName string          `json:"customer_name"`
	Contact      string          `json:"contact"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	Items        map[string]int  `json:"items" validate:"required,min=1,dive,keys,required,endkeys,gt=0"`
	CreatedAt    time.Time       `json:"created_at"`
}

func NewKitchenOrder(o *domain.Order) KitchenOrder {
	return KitchenOrder{
		OrderID:      o.ID,
		CustomerName: o.CustomerName,
		Contact:      o.Contact,
		TotalAmount:  o.TotalAmount,
		Items:        o.Items,
		CreatedAt:    o.CreatedAt,
	}
}

func (k KitchenOrder) Order() *domain.Order {
	items := make(map[string]int, len(k.Items))
	for name, qty := range k.Items {
		items[name] = qty
	}
	return &domain.Order{
		ID:           k.OrderID,
		Status:       domain.StatusPlaced,
		CustomerName: k.CustomerName,
		Contact:      k.Contact,
		TotalAmount:  k.TotalAmount,
		Items:        items,
		CreatedAt:    k.CreatedAt,
		UpdatedAt:    k.CreatedAt,
	}
}

type RestockRequest struct {
	Quantity int `json:"quantity" validate:"gt=0"`
}

type InventoryResponse struct {
	Item  string `json:"item"`
	Count int    `json:"count"`
}

type ClaimResponse struct {
	OrderID string `json:"order_id"`
}

func (h *KitchenHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /kitchen/orders", h.ReceiveOrder)
	mux.HandleFunc("POST /kitchen/orders/next", h.DequeueNext)
	mux.HandleFunc("GET /kitchen/inventory", h.GetInventory)
	mux.HandleFunc("GET /kitchen/inventory/{item}", h.GetCount)
	mux.HandleFunc("POST /kitchen/inventory/{item}/restock", h.Restock)
	mux.HandleFunc("POST /kitchen/orders/{id}/ready", h.MarkReady)
	mux.HandleFunc("POST /kitchen/deliveries/claim", h.ClaimReadyOrder)
	mux.HandleFunc("POST /kitchen/orders/{id}/delivered", h.MarkDelivered)
	mux.HandleFunc("GET /kitchen/orders/{id}/status", h.StatusOf)
	mux.HandleFunc("GET /health", health("kitchen-service"))
}

func (h *KitchenHandler) ReceiveOrder(w http.ResponseWriter, r *http.Request) {
	var req KitchenOrder
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.service.ReceiveOrder(r.Context(), req.Order()); err != nil {
		h.logger.Debug("order_not_received", "Kitchen refused order", RequestID(r.Context()), map[string]interface{}{
			"order_id": req.OrderID,
			"reason":   err.Error(),
		})
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, ClaimResponse{OrderID: req.OrderID})
}

func (h *KitchenHandler) DequeueNext(w http.ResponseWriter, r *http.Request) {
	order, err := h.service.DequeueNext(r.Context())
	if errors.Is(err, domain.ErrNoPlacedOrders) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, NewKitchenOrder(order))
}

func (h *KitchenHandler) GetInventory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Inventory())
}

func (h *KitchenHandler) GetCount(w http.ResponseWriter, r *http.Request) {
	item := r.PathValue("item")
	count, err := h.service.GetCount(r.Context(), item)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownItem) {
			respondError(w, err.Error(), CodeUnknownItem, http.StatusNotFound, nil)
			return
		}
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, InventoryResponse{Item: item, Count: count})
}

func (h *KitchenHandler) Restock(w http.ResponseWriter, r *http.Request) {
	item := r.PathValue("item")
	var req RestockRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.service.Restock(r.Context(), item, req.Quantity); err != nil {
		if errors.Is(err, domain.ErrUnknownItem) {
			respondError(w, err.Error(), CodeUnknownItem, http.StatusNotFound, nil)
			return
		}
		respondServiceError(w, err)
		return
	}

	count, err := h.service.GetCount(r.Context(), item)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, InventoryResponse{Item: item, Count: count})
}

func (h *KitchenHandler) MarkReady(w http.ResponseWriter, r *http.Request) {
	if err := h.service.MarkReady(r.Context(), r.PathValue("id")); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *KitchenHandler) ClaimReadyOrder(w http.ResponseWriter, r *http.Request) {
	orderID, err := h.service.ClaimReadyOrder(r.Context())
	if errors.Is(err, domain.ErrNoReadyOrders) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ClaimResponse{OrderID: orderID})
}

func (h *KitchenHandler) MarkDelivered(w http.ResponseWriter, r *http.Request) {
	if err := h.service.MarkDelivered(r.Context(), r.PathValue("id")); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *KitchenHandler) StatusOf(w http.ResponseWriter, r *http.Request) {
	orderID := r.PathValue("id")
	status, err := h.service.StatusOf(r.Context(), orderID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, OrderStatusResponse{OrderID: orderID, Status: status})
}
