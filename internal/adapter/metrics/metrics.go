// Package metrics exposes the coordinators' Prometheus instrumentation.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "kitchenline"

// Recorder owns a private registry so that several recorders can coexist in
// one process (tests, multiple services).
type Recorder struct {
	registry *prometheus.Registry

	OrdersPlaced        prometheus.Counter
	OrdersRejected      *prometheus.CounterVec
	PaymentsDeclined    prometheus.Counter
	HandoffFailures     prometheus.Counter
	ArchiveSaveFailures prometheus.Counter
	QueueDepth          prometheus.Gauge
	Inventory           *prometheus.GaugeVec
	Claims              *prometheus.CounterVec
	Deliveries          prometheus.Counter
}

func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		OrdersPlaced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_placed_total",
			Help:      "Orders accepted by the order service.",
		}),
		OrdersRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_rejected_total",
			Help:      "Orders rejected by the order service, by reason.",
		}, []string{"reason"}),
		PaymentsDeclined: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_declined_total",
			Help:      "Charges declined or failed; orders proceed regardless.",
		}),
		HandoffFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kitchen_handoff_failures_total",
			Help:      "Background hand-offs to the kitchen that failed.",
		}),
		ArchiveSaveFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "archive_save_failures_total",
			Help:      "Order table snapshots that could not be persisted.",
		}),
		QueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "kitchen_queue_depth",
			Help:      "Placed orders waiting for a chef.",
		}),
		Inventory: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "kitchen_inventory_count",
			Help:      "Available count per catalog item.",
		}, []string{"item"}),
		Claims: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kitchen_claims_total",
			Help:      "Delivery claim attempts, by result.",
		}, []string{"result"}),
		Deliveries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kitchen_deliveries_total",
			Help:      "Orders marked delivered.",
		}),
	}

	r.registry.MustRegister(
		r.OrdersPlaced,
		r.OrdersRejected,
		r.PaymentsDeclined,
		r.HandoffFailures,
		r.ArchiveSaveFailures,
		r.QueueDepth,
		r.Inventory,
		r.Claims,
		r.Deliveries,
	)
	return r
}

func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
