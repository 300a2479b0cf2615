package order

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/YelzhanWeb/kitchenline/internal/adapter/logger"
	"github.com/YelzhanWeb/kitchenline/internal/adapter/metrics"
	"github.com/YelzhanWeb/kitchenline/internal/domain"
	"github.com/YelzhanWeb/kitchenline/internal/interfaces"
)

const (
	changedBy             = "order-service"
	defaultHandoffTimeout = 5 * time.Second
)

// Options tunes a Service. Zero values fall back to defaults.
type Options struct {
	HandoffTimeout time.Duration
	Clock          func() time.Time
}

// Service is the order coordinator. It is the only writer of the order
// table and persists the whole table on every change.
type Service struct {
	catalog   *domain.Catalog
	kitchen   interfaces.KitchenService
	payments  interfaces.PaymentGateway
	archive   interfaces.OrderArchive
	publisher interfaces.MessagePublisher
	logger    logger.Logger
	metrics   *metrics.Recorder

	now            func() time.Time
	handoffTimeout time.Duration

	// placeMu serializes PlaceOrder end to end.
	placeMu sync.Mutex

	mu     sync.RWMutex
	orders map[string]*domain.Order
	// pending holds one channel per order handed to the kitchen and not yet
	// acknowledged. The channel is closed when the hand-off settles.
	pending map[string]chan struct{}

	// saveMu orders snapshot writes so an older table never overwrites a newer one.
	saveMu sync.Mutex

	handoffs sync.WaitGroup
}

func NewService(
	catalog *domain.Catalog,
	kitchen interfaces.KitchenService,
	payments interfaces.PaymentGateway,
	archive interfaces.OrderArchive,
	publisher interfaces.MessagePublisher,
	logger logger.Logger,
	recorder *metrics.Recorder,
	opts Options,
) *Service {
	if publisher == nil {
		publisher = interfaces.NopPublisher{}
	}
	if recorder == nil {
		recorder = metrics.New()
	}
	if opts.HandoffTimeout <= 0 {
		opts.HandoffTimeout = defaultHandoffTimeout
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	s := &Service{
		catalog:        catalog,
		kitchen:        kitchen,
		payments:       payments,
		archive:        archive,
		publisher:      publisher,
		logger:         logger,
		metrics:        recorder,
		now:            opts.Clock,
		handoffTimeout: opts.HandoffTimeout,
		orders:         make(map[string]*domain.Order),
		pending:        make(map[string]chan struct{}),
	}

	if err := s.refresh(context.Background()); err != nil {
		s.logger.Info("archive_not_loaded", "No previous saved state to sync to", "", map[string]interface{}{
			"reason": err.Error(),
		})
	}
	return s
}

// GetMenu prices every catalog item against the kitchen's live counts.
func (s *Service) GetMenu(ctx context.Context) (*domain.Menu, error) {
	s.refreshOrLog(ctx)

	menu := &domain.Menu{}
	for _, item := range s.catalog.Items() {
		count, err := s.kitchen.GetCount(ctx, item.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to get count for %s: %w", item.Name, err)
		}
		menu.Items = append(menu.Items, domain.MenuItem{Name: item.Name, Price: item.Price, Count: count})
	}

	s.logger.Debug("menu_served", "Returning the latest menu", "", nil)
	return menu, nil
}

// PlaceOrder validates, prices, charges and records an order, then hands it
// to the kitchen in the background. The returned order is a copy.
func (s *Service) PlaceOrder(ctx context.Context, cmd interfaces.PlaceOrderCommand) (*domain.Order, error) {
	items, err := domain.NormalizeItems(cmd.Items)
	if err != nil {
		s.metrics.OrdersRejected.WithLabelValues("validation").Inc()
		return nil, err
	}
	for name := range items {
		if !s.catalog.Contains(name) {
			s.metrics.OrdersRejected.WithLabelValues("validation").Inc()
			return nil, fmt.Errorf("%w: %s", domain.ErrUnknownItem, name)
		}
	}

	s.placeMu.Lock()
	defer s.placeMu.Unlock()

	s.refreshOrLog(ctx)

	// Counts are only current once earlier orders have reached the kitchen.
	if err := s.awaitHandoffs(ctx); err != nil {
		return nil, err
	}
	if err := s.checkAvailability(ctx, items); err != nil {
		if errors.Is(err, domain.ErrInsufficientStock) {
			s.metrics.OrdersRejected.WithLabelValues("insufficient_stock").Inc()
			s.logger.Warn("order_rejected", "Order could not be placed", "", map[string]interface{}{
				"reason": err.Error(),
			})
		}
		return nil, err
	}

	total, err := s.catalog.Total(items)
	if err != nil {
		return nil, err
	}

	order, err := domain.NewOrder(cmd.CustomerName, cmd.Contact, items, total, s.now())
	if err != nil {
		s.metrics.OrdersRejected.WithLabelValues("validation").Inc()
		return nil, err
	}

	// Payment is advisory: a decline or an unreachable processor is recorded
	// on the order but never blocks it.
	accepted, err := s.payments.Charge(ctx, order.CustomerName, order.Contact, total)
	switch {
	case err != nil:
		s.metrics.PaymentsDeclined.Inc()
		s.logger.Error("payment_failed", "Payment could not be processed", order.ID, map[string]interface{}{
			"amount": total.String(),
		}, err)
	case !accepted:
		s.metrics.PaymentsDeclined.Inc()
		s.logger.Warn("payment_declined", "Payment was declined", order.ID, map[string]interface{}{
			"amount": total.String(),
		})
	default:
		s.logger.Info("payment_processed", "Payment has been processed", order.ID, map[string]interface{}{
			"amount": total.String(),
		})
	}
	order.PaymentAccepted = err == nil && accepted

	done := make(chan struct{})
	s.mu.Lock()
	s.orders[order.ID] = order
	s.pending[order.ID] = done
	s.mu.Unlock()

	s.persist(ctx)

	s.metrics.OrdersPlaced.Inc()
	s.logger.Info("order_placed", "Order has been placed", order.ID, map[string]interface{}{
		"customer_name": order.CustomerName,
		"items":         items,
		"total_amount":  total.String(),
	})
	s.notify(ctx, order.ID, "", domain.StatusPlaced, interfaces.EventOrderPlaced)

	s.handoffs.Add(1)
	go s.handoff(order.Clone(), done)

	return order.Clone(), nil
}

// GetOrderStatus returns the stored status after folding in whatever the
// kitchen reports. Unknown IDs yield INVALID without an error.
func (s *Service) GetOrderStatus(ctx context.Context, orderID string) (domain.Status, error) {
	s.refreshOrLog(ctx)

	s.mu.RLock()
	order, ok := s.orders[orderID]
	var current domain.Status
	if ok {
		current = order.Status
	}
	s.mu.RUnlock()
	if !ok {
		return domain.StatusInvalid, nil
	}
	if current.IsTerminal() {
		return current, nil
	}

	reported, err := s.kitchen.StatusOf(ctx, orderID)
	if err != nil {
		return current, fmt.Errorf("failed to get kitchen status for %s: %w", orderID, err)
	}
	if reported != domain.StatusReady && reported != domain.StatusComplete {
		return current, nil
	}

	s.mu.Lock()
	previous := order.Status
	changed := order.Advance(reported, s.now())
	current = order.Status
	s.mu.Unlock()

	if changed {
		s.persist(ctx)
		s.logger.Info("order_status_updated", fmt.Sprintf("Order %s is now %s", orderID, current), orderID, map[string]interface{}{
			"old_status": previous,
			"new_status": current,
		})
		s.notify(ctx, orderID, previous, current, "order_"+string(current))
	}
	return current, nil
}

// Order returns a copy of a stored order.
func (s *Service) Order(orderID string) (*domain.Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[orderID]
	if !ok {
		return nil, false
	}
	return o.Clone(), true
}

// Close waits for outstanding kitchen hand-offs.
func (s *Service) Close(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.handoffs.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Service) checkAvailability(ctx context.Context, items map[string]int) error {
	for _, name := range domain.SortedItemNames(items) {
		count, err := s.kitchen.GetCount(ctx, name)
		if err != nil {
			return fmt.Errorf("failed to get count for %s: %w", name, err)
		}

		if count < items[name] {
			return fmt.Errorf("%w: %s has %d, need %d", domain.ErrInsufficientStock, name, count, items[name])
		}
	}
	return nil
}

// awaitHandoffs blocks until every pending hand-off has settled. Each one is
// bounded by the hand-off timeout.
func (s *Service) awaitHandoffs(ctx context.Context) error {
	s.mu.RLock()
	waits := make([]chan struct{}, 0, len(s.pending))
	for _, done := range s.pending {
		waits = append(waits, done)
	}
	s.mu.RUnlock()

	for _, done := range waits {
		select {
		case <-done:
		case <-ctx.Done():
			return fmt.Errorf("earlier orders are still on their way to the kitchen: %w", ctx.Err())
		}
	}
	return nil
}

func (s *Service) handoff(order *domain.Order, done chan struct{}) {
	defer s.handoffs.Done()

	ctx, cancel := context.WithTimeout(context.Background(), s.handoffTimeout)
	defer cancel()

	err := s.kitchen.ReceiveOrder(ctx, order)

	s.mu.Lock()
	delete(s.pending, order.ID)
	s.mu.Unlock()
	close(done)

	if err != nil && !errors.Is(err, domain.ErrDuplicateOrder) {
		s.metrics.HandoffFailures.Inc()
		s.logger.Error("kitchen_handoff_failed", "Order could not be handed to the kitchen", order.ID, map[string]interface{}{
			"items": order.Items,
		}, err)
		return
	}
	s.logger.Debug("kitchen_handoff_done", "Order handed to the kitchen", order.ID, nil)
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
