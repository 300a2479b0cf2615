package domain

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order represents a customer order as recorded by the order service.
type Order struct {
	ID              string          `json:"order_id"`
	Status          Status          `json:"status"`
	CustomerName    string          `json:"customer_name"`
	Contact         string          `json:"contact"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	Items           map[string]int  `json:"items"`
	PaymentAccepted bool            `json:"payment_accepted"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

var (
	orderSeq atomic.Int64
	// instanceID tells apart order services sharing one archive.
	instanceID = newInstanceID()
)

func newInstanceID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// NextOrderID returns an order ID built from the creation time, a per-process
// random instance tag and a monotonic sequence.
func NextOrderID(now time.Time) string {
	return fmt.Sprintf("ORD-%d-%s-%d", now.UnixMilli(), instanceID, orderSeq.Add(1))
}

// NewOrder creates a PLACED order with a fresh ID.
func NewOrder(customerName, contact string, items map[string]int, total decimal.Decimal, now time.Time) (*Order, error) {
	now = now.UTC()
	order := &Order{
		ID:           NextOrderID(now),
		Status:       StatusPlaced,
		CustomerName: strings.TrimSpace(customerName),
		Contact:      strings.TrimSpace(contact),
		TotalAmount:  total,
		Items:        make(map[string]int, len(items)),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	for name, qty := range items {
		order.Items[name] = qty
	}

	if err := order.Validate(); err != nil {
		return nil, err
	}
	return order, nil
}

// Validate applies business validation rules
func (o *Order) Validate() error {
	if len(o.CustomerName) < 1 || len(o.CustomerName) > 100 {
		return fmt.Errorf("%w: customer name must be 1-100 characters", ErrInvalidOrder)
	}
	if o.Contact == "" {
		return fmt.Errorf("%w: contact is required", ErrInvalidOrder)
	}
	if len(o.Items) == 0 {
		return ErrEmptyOrder
	}
	for name, qty := range o.Items {
		if qty < 1 {
			return fmt.Errorf("%w: %s quantity %d", ErrInvalidQuantity, name, qty)
		}
	}
	if o.TotalAmount.IsNegative() {
		return fmt.Errorf("%w: negative total", ErrInvalidOrder)
	}
	return nil
}

// Advance moves the order forward to next. Reaching the same or an earlier
// state is a no-op; it reports whether the status changed.
func (o *Order) Advance(next Status, now time.Time) bool {
	if !o.Status.CanTransitionTo(next) {
		return false
	}
	o.Status = next
	o.UpdatedAt = now.UTC()
	return true
}

// Clone returns a deep copy safe to hand to another goroutine.
func (o *Order) Clone() *Order {
	c := *o
	c.Items = make(map[string]int, len(o.Items))
	for k, v := range o.Items {
		c.Items[k] = v
	}
	return &c
}

// NormalizeItems drops zero quantities and rejects negative ones.
func NormalizeItems(items map[string]int) (map[string]int, error) {
	out := make(map[string]int, len(items))
	for name, qty := range items {
		name = strings.TrimSpace(name)
		switch {
		case qty < 0:
			return nil, fmt.Errorf("%w: %s quantity %d", ErrInvalidQuantity, name, qty)
		case qty == 0:
			continue
		}
		out[name] += qty
	}
	if len(out) == 0 {
		return nil, ErrEmptyOrder
	}
	return out, nil
}

var (
	ErrInvalidOrder      = errors.New("invalid order")
	ErrEmptyOrder        = errors.New("order must contain at least one item")
	ErrInvalidQuantity   = errors.New("invalid quantity")
	ErrUnknownItem       = errors.New("unknown item")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrDuplicateOrder    = errors.New("order already received")
	ErrNoPlacedOrders    = errors.New("no placed orders")
	ErrNoReadyOrders     = errors.New("no ready orders available")
)
