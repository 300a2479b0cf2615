package connector

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/YelzhanWeb/kitchenline/internal/adapter/logger"
	"github.com/YelzhanWeb/kitchenline/internal/domain"
	"github.com/YelzhanWeb/kitchenline/internal/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEndpoint struct {
	addr    string
	pingErr error
	callErr error
	delay   time.Duration

	mu    sync.Mutex
	calls int
	pings int
}

func (f *fakeEndpoint) Endpoint() string { return f.addr }

func (f *fakeEndpoint) Ping(ctx context.Context) error {
	f.mu.Lock()
	f.pings++
	f.mu.Unlock()
	return f.pingErr
}

func (f *fakeEndpoint) wait(ctx context.Context) error {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return f.callErr
}

func (f *fakeEndpoint) GetMenu(ctx context.Context) (*domain.Menu, error) {
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	return &domain.Menu{Items: []domain.MenuItem{{Name: f.addr}}}, nil
}

func (f *fakeEndpoint) PlaceOrder(ctx context.Context, cmd interfaces.PlaceOrderCommand) (*domain.Order, error) {
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	return &domain.Order{ID: "ORD-" + f.addr, Status: domain.StatusPlaced}, nil
}

func (f *fakeEndpoint) GetOrderStatus(ctx context.Context, id string) (domain.Status, error) {
	if err := f.wait(ctx); err != nil {
		return domain.StatusInvalid, err
	}
	return domain.StatusReady, nil
}

func (f *fakeEndpoint) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type registry map[string]*fakeEndpoint

func (r registry) dial(addr string) Endpoint {
	e, ok := r[addr]
	if !ok {
		e = &fakeEndpoint{addr: addr, pingErr: interfaces.ErrServiceUnavailable}
		r[addr] = e
	}
	return e
}

var unavailable = fmt.Errorf("dial tcp: %w", interfaces.ErrServiceUnavailable)

func TestNew_PrimaryMustAnswer(t *testing.T) {
	reg := registry{"a": {addr: "a", pingErr: unavailable}}

	_, err := New(context.Background(), reg.dial, Options{Primary: "a"}, logger.NewNop())
	assert.ErrorIs(t, err, ErrServiceNotFound)
}

func TestNew_PicksFirstAnsweringSecondary(t *testing.T) {
	tests := []struct {
		name          string
		secondaries   []string
		attempts      int
		wantSecondary string
	}{
		{name: "no secondaries", wantSecondary: ""},
		{name: "skips primary and duplicates", secondaries: []string{"a", "b", "b"}, attempts: 1, wantSecondary: "b"},
		{name: "one attempt stops at first dead entry", secondaries: []string{"dead", "b"}, attempts: 1, wantSecondary: ""},
		{name: "more attempts keep looking", secondaries: []string{"dead", "b"}, attempts: 2, wantSecondary: "b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := registry{
				"a":    {addr: "a"},
				"b":    {addr: "b"},
				"dead": {addr: "dead", pingErr: unavailable},
			}
			c, err := New(context.Background(), reg.dial, Options{
				Primary:           "a",
				Secondaries:       tt.secondaries,
				SecondaryAttempts: tt.attempts,
			}, logger.NewNop())
			require.NoError(t, err)
			assert.Equal(t, tt.wantSecondary, c.SecondaryEndpoint())
			assert.Equal(t, 1, reg["a"].pings, "the primary is pinged exactly once")
		})
	}
}

func TestConnector_FailsOverOnceOnConnectionError(t *testing.T) {
	reg := registry{"a": {addr: "a"}, "b": {addr: "b"}}
	c, err := New(context.Background(), reg.dial, Options{Primary: "a", Secondaries: []string{"b"}}, logger.NewNop())
	require.NoError(t, err)

	reg["a"].callErr = unavailable

	menu, err := c.GetMenu(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "b", menu.Items[0].Name)

	order, err := c.PlaceOrder(context.Background(), interfaces.PlaceOrderCommand{})
	require.NoError(t, err)
	assert.Equal(t, "ORD-b", order.ID)

	status, err := c.GetOrderStatus(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusReady, status)

	assert.Equal(t, 3, reg["a"].callCount())
	assert.Equal(t, 3, reg["b"].callCount())
}

func TestConnector_SurfacesErrorWhenSecondaryAlsoFails(t *testing.T) {
	reg := registry{"a": {addr: "a"}, "b": {addr: "b"}}
	c, err := New(context.Background(), reg.dial, Options{Primary: "a", Secondaries: []string{"b"}}, logger.NewNop())
	require.NoError(t, err)

	reg["a"].callErr = unavailable
	reg["b"].callErr = unavailable

	_, err = c.GetMenu(context.Background())
	assert.ErrorIs(t, err, interfaces.ErrServiceUnavailable)
	assert.Equal(t, 1, reg["b"].callCount(), "exactly one retry")
}

func TestConnector_BusinessErrorsAreNotRetried(t *testing.T) {
	reg := registry{"a": {addr: "a"}, "b": {addr: "b"}}
	c, err := New(context.Background(), reg.dial, Options{Primary: "a", Secondaries: []string{"b"}}, logger.NewNop())
	require.NoError(t, err)

	reg["a"].callErr = domain.ErrInsufficientStock

	_, err = c.PlaceOrder(context.Background(), interfaces.PlaceOrderCommand{})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Zero(t, reg["b"].callCount())
}

func TestConnector_NoSecondarySurfacesConnectionError(t *testing.T) {
	reg := registry{"a": {addr: "a"}}
	c, err := New(context.Background(), reg.dial, Options{Primary: "a"}, logger.NewNop())
	require.NoError(t, err)

	reg["a"].callErr = unavailable
	_, err = c.GetOrderStatus(context.Background(), "x")
	assert.ErrorIs(t, err, interfaces.ErrServiceUnavailable)
}

func TestConnector_TimeoutIsNotRetried(t *testing.T) {
	reg := registry{"a": {addr: "a"}, "b": {addr: "b"}}
	c, err := New(context.Background(), reg.dial, Options{
		Primary:     "a",
		Secondaries: []string{"b"},
		Timeout:     30 * time.Millisecond,
	}, logger.NewNop())
	require.NoError(t, err)

	reg["a"].delay = time.Second

	start := time.Now()
	_, err = c.GetMenu(context.Background())
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.Zero(t, reg["b"].callCount())
}

func TestBounded_AbandonsSlowCall(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	release := make(chan struct{})
	defer close(release)
	_, err := bounded(ctx, func(context.Context) (int, error) {
		<-release
		return 1, nil
	})
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestBounded_CallerCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	release := make(chan struct{})
	defer close(release)
	_, err := bounded(ctx, func(context.Context) (int, error) {
		<-release
		return 1, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}
