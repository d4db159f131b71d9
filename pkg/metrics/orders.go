package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OrderMetrics records checkout and fulfilment activity.
type OrderMetrics struct {
	created     *prometheus.CounterVec
	transitions *prometheus.CounterVec
	emails      *prometheus.CounterVec
	checkout    prometheus.Histogram
}

// NewOrderMetrics registers the order metrics on the provided registerer.
func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	created := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Orders persisted by checkout, by item source.",
	}, []string{"source"})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_status_transitions_total",
		Help: "Accepted order status transitions.",
	}, []string{"from", "to"})
	emails := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_emails_total",
		Help: "Order confirmation email attempts, by outcome.",
	}, []string{"outcome"})
	checkout := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "checkout_duration_seconds",
		Help:    "Time spent persisting an order.",
		Buckets: prometheus.DefBuckets,
	})
	reg.MustRegister(created, transitions, emails, checkout)
	return &OrderMetrics{
		created:     created,
		transitions: transitions,
		emails:      emails,
		checkout:    checkout,
	}
}

// IncCreated counts a persisted order; source is "cart" or "payload".
func (m *OrderMetrics) IncCreated(source string) {
	if m == nil || m.created == nil {
		return
	}
	m.created.WithLabelValues(normalizeLabel(source)).Inc()
}

func (m *OrderMetrics) IncTransition(from, to string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(from), normalizeLabel(to)).Inc()
}

// IncEmail counts a confirmation email outcome: "sent" or "failed".
func (m *OrderMetrics) IncEmail(outcome string) {
	if m == nil || m.emails == nil {
		return
	}
	m.emails.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func (m *OrderMetrics) ObserveCheckout(duration time.Duration) {
	if m == nil || m.checkout == nil {
		return
	}
	m.checkout.Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
