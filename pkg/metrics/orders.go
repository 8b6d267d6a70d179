package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

const namespace = "bookstore"

// Checkout failure reasons.
const (
	ReasonEmptyCart         = "empty_cart"
	ReasonInsufficientStock = "insufficient_stock"
	ReasonNotFound          = "not_found"
	ReasonInternal          = "internal"
)

// OrderMetrics tracks checkout outcomes and order lifecycle transitions.
type OrderMetrics struct {
	created     prometheus.Counter
	failures    *prometheus.CounterVec
	totals      prometheus.Histogram
	transitions *prometheus.CounterVec
}

func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	created := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "orders",
		Name:      "created_total",
		Help:      "Orders committed by checkout.",
	})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "orders",
		Name:      "checkout_failures_total",
		Help:      "Checkouts rolled back, by reason.",
	}, []string{"reason"})
	totals := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "orders",
		Name:      "total_price",
		Help:      "Order totals at checkout.",
		Buckets:   []float64{10, 25, 50, 100, 250, 500, 1000},
	})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "orders",
		Name:      "status_transitions_total",
		Help:      "Order status changes.",
	}, []string{"from", "to"})
	reg.MustRegister(created, failures, totals, transitions)
	return &OrderMetrics{
		created:     created,
		failures:    failures,
		totals:      totals,
		transitions: transitions,
	}
}

// ObserveCreated counts a committed order and records its total.
func (m *OrderMetrics) ObserveCreated(total decimal.Decimal) {
	if m == nil || m.created == nil {
		return
	}
	m.created.Inc()
	value, _ := total.Float64()
	m.totals.Observe(value)
}

func (m *OrderMetrics) IncCheckoutFailure(reason string) {
	if m == nil || m.failures == nil {
		return
	}
	m.failures.WithLabelValues(normalizeLabel(reason)).Inc()
}

func (m *OrderMetrics) IncTransition(from, to string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(from), normalizeLabel(to)).Inc()
}
