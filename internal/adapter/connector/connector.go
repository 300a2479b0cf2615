// Package connector resolves an order service endpoint for front ends and
// fails over to a hot spare when the primary stops answering.
package connector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/YelzhanWeb/kitchenline/internal/adapter/logger"
	"github.com/YelzhanWeb/kitchenline/internal/domain"
	"github.com/YelzhanWeb/kitchenline/internal/interfaces"
)

const (
	DefaultTimeout           = 5 * time.Second
	DefaultSecondaryAttempts = 1
)

var (
	ErrServiceNotFound = errors.New("order service not found")
	ErrTimeout         = errors.New("order service call timed out")
)

// Endpoint is an order service that can be health-checked.
type Endpoint interface {
	interfaces.OrderService
	Ping(ctx context.Context) error
	Endpoint() string
}

// Dialer builds an Endpoint for an address.
type Dialer func(addr string) Endpoint

type Options struct {
	Primary           string
	Secondaries       []string
	Timeout           time.Duration
	SecondaryAttempts int
}

// Connector implements interfaces.OrderService over a primary endpoint and
// at most one secondary. Each call gets one deadline; a connection failure
// on the primary is retried once on the secondary inside that deadline.
type Connector struct {
	primary   Endpoint
	secondary Endpoint
	timeout   time.Duration
	logger    logger.Logger
}

func New(ctx context.Context, dial Dialer, opts Options, lgr logger.Logger) (*Connector, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.SecondaryAttempts <= 0 {
		opts.SecondaryAttempts = DefaultSecondaryAttempts
	}

	c := &Connector{timeout: opts.Timeout, logger: lgr}

	primary := dial(opts.Primary)
	if err := c.ping(ctx, primary); err != nil {
		lgr.Error("primary_unreachable", "Primary order service did not answer", "", map[string]interface{}{
			"endpoint": opts.Primary,
		}, err)
		return nil, fmt.Errorf("%w: %s: %v", ErrServiceNotFound, opts.Primary, err)
	}
	c.primary = primary

	tried := map[string]struct{}{opts.Primary: {}}
	attempts := 0
	for _, addr := range opts.Secondaries {
		if attempts >= opts.SecondaryAttempts {
			break
		}
		if _, seen := tried[addr]; seen {
			continue
		}
		tried[addr] = struct{}{}
		attempts++

		candidate := dial(addr)
		if err := c.ping(ctx, candidate); err != nil {
			lgr.Warn("secondary_unreachable", "Secondary order service did not answer", "", map[string]interface{}{
				"endpoint": addr,
				"reason":   err.Error(),
			})
			continue
		}
		c.secondary = candidate
		break
	}

	lgr.Info("connector_ready", "Order service resolved", "", map[string]interface{}{
		"primary":   c.primary.Endpoint(),
		"secondary": c.SecondaryEndpoint(),
	})
	return c, nil
}

func (c *Connector) SecondaryEndpoint() string {
	if c.secondary == nil {
		return ""
	}
	return c.secondary.Endpoint()
}

func (c *Connector) GetMenu(ctx context.Context) (*domain.Menu, error) {
	return call(ctx, c, "get_menu", func(ctx context.Context, e Endpoint) (*domain.Menu, error) {
		return e.GetMenu(ctx)
	})
}

func (c *Connector) PlaceOrder(ctx context.Context, cmd interfaces.PlaceOrderCommand) (*domain.Order, error) {
	return call(ctx, c, "place_order", func(ctx context.Context, e Endpoint) (*domain.Order, error) {
		return e.PlaceOrder(ctx, cmd)
	})
}

func (c *Connector) GetOrderStatus(ctx context.Context, orderID string) (domain.Status, error) {
	return call(ctx, c, "get_order_status", func(ctx context.Context, e Endpoint) (domain.Status, error) {
		return e.GetOrderStatus(ctx, orderID)
	})
}

func (c *Connector) ping(ctx context.Context, e Endpoint) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	_, err := bounded(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, e.Ping(ctx)
	})
	return err
}

// call runs op on the primary and, after a connection-level failure, once on
// the secondary. Both attempts share one deadline.
func call[T any](ctx context.Context, c *Connector, action string, op func(context.Context, Endpoint) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	result, err := bounded(ctx, func(ctx context.Context) (T, error) { return op(ctx, c.primary) })
	if err == nil || !errors.Is(err, interfaces.ErrServiceUnavailable) || c.secondary == nil {
		return result, err
	}

	c.logger.Warn("failover", "Primary order service failed, retrying on secondary", "", map[string]interface{}{
		"action":    action,
		"primary":   c.primary.Endpoint(),
		"secondary": c.secondary.Endpoint(),
		"reason":    err.Error(),
	})
	return bounded(ctx, func(ctx context.Context) (T, error) { return op(ctx, c.secondary) })
}

type outcome[T any] struct {
	value T
	err   error
}

// bounded runs fn in its own goroutine and gives up when ctx ends. A call
// abandoned this way reports ErrTimeout; fn still sees the cancelled ctx.
func bounded[T any](ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	done := make(chan outcome[T], 1)
	go func() {
		v, err := fn(ctx)
		done <- outcome[T]{value: v, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil && errors.Is(res.err, context.DeadlineExceeded) {
			return res.value, fmt.Errorf("%w: %v", ErrTimeout, res.err)
		}
		return res.value, res.err
	case <-ctx.Done():
		var zero T
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return zero, ErrTimeout
		}
		return zero, ctx.Err()
	}
}

var _ interfaces.OrderService = (*Connector)(nil)
