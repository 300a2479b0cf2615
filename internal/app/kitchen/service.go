package kitchen

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/YelzhanWeb/kitchenline/internal/adapter/logger"
	"github.com/YelzhanWeb/kitchenline/internal/adapter/metrics"
	"github.com/YelzhanWeb/kitchenline/internal/domain"
	"github.com/YelzhanWeb/kitchenline/internal/interfaces"
)

const changedBy = "kitchen-service"

// Service is the kitchen coordinator: it owns the inventory ledger, the
// queue of placed orders and the ready/assigned/complete sets.
type Service struct {
	catalog   *domain.Catalog
	ledger    *Ledger
	publisher interfaces.MessagePublisher
	logger    logger.Logger
	metrics   *metrics.Recorder
	now       func() time.Time

	queueMu  sync.Mutex
	placed   []*domain.Order
	received map[string]struct{}

	// setsMu guards ready, readyOrder, assigned and complete together so that
	// a claim is one critical section.
	setsMu     sync.Mutex
	ready      map[string]struct{}
	readyOrder []string
	assigned   map[string]struct{}
	complete   map[string]struct{}
}

func NewService(
	catalog *domain.Catalog,
	initialStock map[string]int,
	publisher interfaces.MessagePublisher,
	logger logger.Logger,
	recorder *metrics.Recorder,
) (*Service, error) {
	ledger, err := NewLedger(catalog.Names(), initialStock)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize inventory: %w", err)
	}
	if publisher == nil {
		publisher = interfaces.NopPublisher{}
	}
	if recorder == nil {
		recorder = metrics.New()
	}

	s := &Service{
		catalog:   catalog,
		ledger:    ledger,
		publisher: publisher,
		logger:    logger,
		metrics:   recorder,
		now:       time.Now,
		received:  make(map[string]struct{}),
		ready:     make(map[string]struct{}),
		assigned:  make(map[string]struct{}),
		complete:  make(map[string]struct{}),
	}
	for name, count := range ledger.Snapshot() {
		s.metrics.Inventory.WithLabelValues(name).Set(float64(count))
	}

	s.logger.Info("inventory_initialized", "Initialized item counts", "", map[string]interface{}{
		"counts": ledger.Snapshot(),
	})
	return s, nil
}

// ReceiveOrder reserves the order's items and appends it to the placed queue.
func (s *Service) ReceiveOrder(ctx context.Context, order *domain.Order) error {
	if order == nil || strings.TrimSpace(order.ID) == "" {
		return fmt.Errorf("%w: order id is required", domain.ErrInvalidOrder)
	}
	if len(order.Items) == 0 {
		return domain.ErrEmptyOrder
	}

	s.queueMu.Lock()
	if _, dup := s.received[order.ID]; dup {
		s.queueMu.Unlock()
		return fmt.Errorf("%w: %s", domain.ErrDuplicateOrder, order.ID)
	}
	remaining, err := s.ledger.Reserve(order.Items)
	if err != nil {
		s.queueMu.Unlock()
		s.logger.Warn("order_rejected", "Order could not be reserved", order.ID, map[string]interface{}{
			"reason": err.Error(),
		})
		return err
	}
	s.received[order.ID] = struct{}{}
	s.placed = append(s.placed, order.Clone())
	depth := len(s.placed)
	s.queueMu.Unlock()

	s.metrics.QueueDepth.Set(float64(depth))
	for name, count := range remaining {
		s.metrics.Inventory.WithLabelValues(name).Set(float64(count))
	}

	s.logger.Info("order_received", fmt.Sprintf("Order %s added to the placed queue", order.ID), order.ID, map[string]interface{}{
		"items":       order.Items,
		"queue_depth": depth,
	})
	s.notify(ctx, order.ID, domain.StatusPlaced, domain.StatusPlaced, interfaces.EventOrderReceived)
	return nil
}

// DequeueNext pops the oldest placed order. It never blocks.
func (s *Service) DequeueNext(ctx context.Context) (*domain.Order, error) {
	s.queueMu.Lock()
	if len(s.placed) == 0 {
		s.queueMu.Unlock()
		return nil, domain.ErrNoPlacedOrders
	}
	order := s.placed[0]
	s.placed[0] = nil
	s.placed = s.placed[1:]
	depth := len(s.placed)
	s.queueMu.Unlock()

	s.metrics.QueueDepth.Set(float64(depth))
	s.logger.Debug("order_dequeued", fmt.Sprintf("Order %s handed to a chef", order.ID), order.ID, nil)
	return order, nil
}

func (s *Service) Restock(ctx context.Context, item string, delta int) error {
	count, err := s.ledger.Restock(item, delta)
	if err != nil {
		return err
	}
	s.metrics.Inventory.WithLabelValues(item).Set(float64(count))
	s.logger.Info("item_restocked", fmt.Sprintf("%s restocked", item), "", map[string]interface{}{
		"item":  item,
		"delta": delta,
		"count": count,
	})
	return nil
}

func (s *Service) GetCount(ctx context.Context, item string) (int, error) {
	return s.ledger.Count(item)
}

// MarkReady is idempotent: an order already ready, assigned or complete is
// left where it is.
func (s *Service) MarkReady(ctx context.Context, orderID string) error {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return fmt.Errorf("%w: order id is required", domain.ErrInvalidOrder)
	}

	s.setsMu.Lock()
	_, isReady := s.ready[orderID]
	_, isAssigned := s.assigned[orderID]
	_, isComplete := s.complete[orderID]
	added := !isReady && !isAssigned && !isComplete
	if added {
		s.ready[orderID] = struct{}{}
		s.readyOrder = append(s.readyOrder, orderID)
	}
	s.setsMu.Unlock()

	if added {
		s.logger.Info("order_ready", fmt.Sprintf("Order %s is ready", orderID), orderID, nil)
		s.notify(ctx, orderID, domain.StatusPlaced, domain.StatusReady, interfaces.EventOrderReady)
	}
	return nil
}

// ClaimReadyOrder hands the oldest ready, unassigned order to the caller.
func (s *Service) ClaimReadyOrder(ctx context.Context) (string, error) {
	s.setsMu.Lock()
	claimed := ""
	for len(s.readyOrder) > 0 && claimed == "" {
		id := s.readyOrder[0]
		s.readyOrder = s.readyOrder[1:]

		if _, ok := s.ready[id]; !ok {
			continue
		}
		delete(s.ready, id)
		_, isAssigned := s.assigned[id]
		_, isComplete := s.complete[id]
		if isAssigned || isComplete {
			continue
		}
		s.assigned[id] = struct{}{}
		claimed = id
	}
	s.setsMu.Unlock()

	if claimed == "" {
		s.metrics.Claims.WithLabelValues("none").Inc()
		return "", domain.ErrNoReadyOrders
	}

	s.metrics.Claims.WithLabelValues("claimed").Inc()
	s.logger.Info("order_assigned", fmt.Sprintf("Ready order %s assigned", claimed), claimed, nil)
	s.notify(ctx, claimed, domain.StatusReady, domain.StatusReady, interfaces.EventOrderAssigned)
	return claimed, nil
}

// MarkDelivered is idempotent; the order leaves the ready/assigned sets.
func (s *Service) MarkDelivered(ctx context.Context, orderID string) error {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return fmt.Errorf("%w: order id is required", domain.ErrInvalidOrder)
	}

	s.setsMu.Lock()
	_, already := s.complete[orderID]
	if !already {
		s.complete[orderID] = struct{}{}
		delete(s.ready, orderID)
		delete(s.assigned, orderID)
	}
	s.setsMu.Unlock()

	if !already {
		s.metrics.Deliveries.Inc()
		s.logger.Info("order_delivered", fmt.Sprintf("Order %s delivered", orderID), orderID, nil)
		s.notify(ctx, orderID, domain.StatusReady, domain.StatusComplete, interfaces.EventOrderDelivered)
	}
	return nil
}

// StatusOf reports what the kitchen knows: COMPLETE, READY, or INVALID.
func (s *Service) StatusOf(ctx context.Context, orderID string) (domain.Status, error) {
	s.setsMu.Lock()
	defer s.setsMu.Unlock()

	if _, ok := s.complete[orderID]; ok {
		return domain.StatusComplete, nil
	}
	if _, ok := s.ready[orderID]; ok {
		return domain.StatusReady, nil
	}
	if _, ok := s.assigned[orderID]; ok {
		return domain.StatusReady, nil
	}
	return domain.StatusInvalid, nil
}

// Inventory returns the current counts for every catalog item.
func (s *Service) Inventory() map[string]int {
	return s.ledger.Snapshot()
}

func (s *Service) QueueDepth() int {
	s.queueMu.Lock()
	defer s.queueMu.Unlock()
	return len(s.placed)
}

func (s *Service) notify(ctx context.Context, orderID string, from, to domain.Status, event string) {
	msg := interfaces.StatusUpdateMessage{
		OrderID:   orderID,
		OldStatus: from,
		NewStatus: to,
		Event:     event,
		ChangedBy: changedBy,
		Timestamp: s.now().UTC(),
	}
	if err := s.publisher.PublishStatusUpdate(ctx, msg); err != nil {
		s.logger.Error("rabbitmq_publish_failed", "Failed to publish status update", orderID, nil, err)
	}
}

var _ interfaces.KitchenService = (*Service)(nil)
