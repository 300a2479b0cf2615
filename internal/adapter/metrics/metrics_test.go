package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_IndependentRegistries(t *testing.T) {
	a := New()
	b := New()

	a.OrdersPlaced.Inc()
	a.OrdersRejected.WithLabelValues("insufficient_stock").Add(2)

	assert.Equal(t, 1.0, testutil.ToFloat64(a.OrdersPlaced))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.OrdersPlaced))
	assert.Equal(t, 2.0, testutil.ToFloat64(a.OrdersRejected.WithLabelValues("insufficient_stock")))
}

func TestRecorder_Handler(t *testing.T) {
	r := New()
	r.QueueDepth.Set(3)
	r.Inventory.WithLabelValues("Burger").Set(8)

	srv := httptest.NewServer(r.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "kitchenline_kitchen_queue_depth 3")
	assert.Contains(t, string(body), `kitchenline_kitchen_inventory_count{item="Burger"} 8`)
}
