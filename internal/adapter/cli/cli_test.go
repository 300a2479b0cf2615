package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/YelzhanWeb/kitchenline/internal/adapter/logger"
	"github.com/YelzhanWeb/kitchenline/internal/adapter/metrics"
	"github.com/YelzhanWeb/kitchenline/internal/app/kitchen"
	"github.com/YelzhanWeb/kitchenline/internal/domain"
	"github.com/YelzhanWeb/kitchenline/internal/interfaces"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newKitchen(t *testing.T, stock map[string]int) *kitchen.Service {
	t.Helper()
	svc, err := kitchen.NewService(domain.DefaultCatalog(), stock, nil, logger.NewNop(), metrics.New())
	require.NoError(t, err)
	return svc
}

func placed(t *testing.T, k *kitchen.Service, items map[string]int) *domain.Order {
	t.Helper()
	o, err := domain.NewOrder("Ann", "5551234", items, decimal.NewFromInt(10), time.Now())
	require.NoError(t, err)
	require.NoError(t, k.ReceiveOrder(context.Background(), o))
	return o
}

func runAsync(t *testing.T, run func(context.Context, io.Reader, io.Writer) error, in io.Reader, out io.Writer) <-chan error {
	t.Helper()
	done := make(chan error, 1)
	go func() { done <- run(context.Background(), in, out) }()
	return done
}

func waitDone(t *testing.T, done <-chan error) {
	t.Helper()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("front end did not stop")
	}
}

func TestChef_CommandsAndFeed(t *testing.T) {
	k := newKitchen(t, map[string]int{"Burger": 2})
	o := placed(t, k, map[string]int{"Burger": 2})

	chef := NewChef(k, domain.DefaultCatalog(), 10*time.Millisecond, logger.NewNop())
	in, w := io.Pipe()
	out := &syncBuffer{}
	done := runAsync(t, chef.Run, in, out)

	assert.Eventually(t, func() bool { return strings.Contains(out.String(), "Burger x2") }, time.Second, 5*time.Millisecond)
	assert.Contains(t, out.String(), ">>> New order "+o.ID)

	fmt.Fprintln(w, "ADD Fries 3")
	fmt.Fprintln(w, "ADD Sushi 3")
	fmt.Fprintln(w, "ADD Fries -1")
	fmt.Fprintln(w, "READY "+o.ID)
	fmt.Fprintln(w, "READY")
	fmt.Fprintln(w, "exit")
	waitDone(t, done)
	w.Close()

	count, err := k.GetCount(context.Background(), "Fries")
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	status, err := k.StatusOf(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusReady, status)

	text := out.String()
	assert.Contains(t, text, "Added 3 Fries")
	assert.Contains(t, text, "Try again: unknown item: Sushi")
	assert.Contains(t, text, "Try again: invalid quantity")
	assert.Contains(t, text, "Order "+o.ID+" is ready for delivery")
	assert.Contains(t, text, "Try again: usage READY <order-id>")
}

func TestChef_StopsAtEndOfInput(t *testing.T) {
	chef := NewChef(newKitchen(t, nil), domain.DefaultCatalog(), time.Hour, logger.NewNop())
	done := runAsync(t, chef.Run, strings.NewReader("BOGUS\n"), &syncBuffer{})
	waitDone(t, done)
}

func TestDeliveryAgent_DeliversAfterDone(t *testing.T) {
	ctx := context.Background()
	k := newKitchen(t, map[string]int{"Pizza": 1})
	o := placed(t, k, map[string]int{"Pizza": 1})
	_, err := k.DequeueNext(ctx)
	require.NoError(t, err)
	require.NoError(t, k.MarkReady(ctx, o.ID))

	agent := NewDeliveryAgent(k, 10*time.Millisecond, logger.NewNop())
	in, w := io.Pipe()
	out := &syncBuffer{}
	done := runAsync(t, agent.Run, in, out)

	assert.Eventually(t, func() bool { return strings.Contains(out.String(), "Delivery assigned: order "+o.ID) }, time.Second, 5*time.Millisecond)

	status, err := k.StatusOf(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusReady, status, "not delivered before DONE")

	fmt.Fprintln(w, "on my way")
	fmt.Fprintln(w, "done")
	assert.Eventually(t, func() bool { return strings.Contains(out.String(), "Order "+o.ID+" delivered") }, time.Second, 5*time.Millisecond)

	fmt.Fprintln(w, "EXIT")
	waitDone(t, done)
	w.Close()

	status, err = k.StatusOf(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusComplete, status)
	assert.Contains(t, out.String(), "Type DONE once order "+o.ID+" is delivered")
}

func TestDeliveryAgent_ExitWhileIdle(t *testing.T) {
	agent := NewDeliveryAgent(newKitchen(t, nil), time.Hour, logger.NewNop())
	done := runAsync(t, agent.Run, strings.NewReader("EXIT\n"), &syncBuffer{})
	waitDone(t, done)
}

type stubOrders struct {
	menu     *domain.Menu
	placeErr error
	statuses []domain.Status
	placed   []interfaces.PlaceOrderCommand
}

func (s *stubOrders) GetMenu(context.Context) (*domain.Menu, error) {
	return s.menu, nil
}

func (s *stubOrders) PlaceOrder(_ context.Context, cmd interfaces.PlaceOrderCommand) (*domain.Order, error) {
	if s.placeErr != nil {
		return nil, s.placeErr
	}
	s.placed = append(s.placed, cmd)
	return &domain.Order{
		ID:              fmt.Sprintf("ORD-%d", len(s.placed)),
		Status:          domain.StatusPlaced,
		TotalAmount:     decimal.NewFromInt(25),
		PaymentAccepted: true,
	}, nil
}

func (s *stubOrders) GetOrderStatus(context.Context, string) (domain.Status, error) {
	st := s.statuses[0]
	if len(s.statuses) > 1 {
		s.statuses = s.statuses[1:]
	}
	return st, nil
}

func TestUser_SingleActiveOrder(t *testing.T) {
	orders := &stubOrders{
		menu: &domain.Menu{Items: []domain.MenuItem{{Name: "Burger", Price: decimal.NewFromInt(10), Count: 8}}},
		// STATUS, blocked ORDER check, STATUS
		statuses: []domain.Status{domain.StatusPlaced, domain.StatusReady, domain.StatusComplete},
	}
	user := NewUser(orders, logger.NewNop())
	out := &bytes.Buffer{}

	input := strings.Join([]string{
		"STATUS",
		"MENU",
		"ORDER Ann 5551234 Burger=2 Fries=1",
		"STATUS",
		"ORDER Ann 5551234 Burger=1",
		"STATUS",
		"ORDER Ann 5551234 Burger=1",
		"EXIT",
		"MENU",
	}, "\n")
	require.NoError(t, user.Run(context.Background(), strings.NewReader(input), out))

	text := out.String()
	assert.Contains(t, text, "No active order")
	assert.Contains(t, text, "Burger  10.00  8")
	assert.Contains(t, text, "Order ORD-1 placed, total 25.00")
	assert.Contains(t, text, "Order ORD-1: PLACED")
	assert.Contains(t, text, "Order ORD-1 is still READY")
	assert.Contains(t, text, "Order ORD-1: COMPLETE")
	assert.Contains(t, text, "Order ORD-2 placed")
	assert.Equal(t, 1, strings.Count(text, "ITEM"), "input after EXIT is ignored")

	require.Len(t, orders.placed, 2)
	assert.Equal(t, map[string]int{"Burger": 2, "Fries": 1}, orders.placed[0].Items)
	assert.Equal(t, "ORD-2", user.ActiveOrder())
}

func TestUser_ReportsFailures(t *testing.T) {
	orders := &stubOrders{placeErr: fmt.Errorf("remote: %w", domain.ErrInsufficientStock)}
	user := NewUser(orders, logger.NewNop())
	out := &bytes.Buffer{}

	input := "ORDER Ann 1 Burger=9\nORDER Ann\nORDER Ann 1 Burger=x\nFLY\n"
	require.NoError(t, user.Run(context.Background(), strings.NewReader(input), out))

	text := out.String()
	assert.Contains(t, text, "Order FAILED: not enough stock")
	assert.Contains(t, text, "Try again: usage ORDER")
	assert.Contains(t, text, "Try again: invalid quantity")
	assert.Contains(t, text, `unknown command "FLY"`)
	assert.Empty(t, user.ActiveOrder())

	orders.placeErr = fmt.Errorf("dial: %w", interfaces.ErrServiceUnavailable)
	out.Reset()
	require.NoError(t, user.Run(context.Background(), strings.NewReader("ORDER Ann 1 Burger=1\n"), out))
	assert.Contains(t, out.String(), "Order service unavailable")
}

func TestParseOrder(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    map[string]int
		wantErr bool
	}{
		{name: "merges repeated items", args: []string{"Ann", "1", "Burger=1", "Burger=2", "Pasta=0"}, want: map[string]int{"Burger": 3, "Pasta": 0}},
		{name: "missing items", args: []string{"Ann", "1"}, wantErr: true},
		{name: "no equals sign", args: []string{"Ann", "1", "Burger"}, wantErr: true},
		{name: "negative quantity", args: []string{"Ann", "1", "Burger=-2"}, wantErr: true},
		{name: "empty item name", args: []string{"Ann", "1", "=2"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := ParseOrder(tt.args)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "Ann", cmd.CustomerName)
			assert.Equal(t, tt.want, cmd.Items)
		})
	}
}
