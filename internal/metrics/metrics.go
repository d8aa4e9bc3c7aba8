package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	Requests          *prometheus.CounterVec
	LatencyMS         *prometheus.HistogramVec
	OrderTransitions  *prometheus.CounterVec
	WebhookDeliveries *prometheus.CounterVec
	AuditEnqueued     prometheus.Counter
	AuditDropped      prometheus.Counter
	AuditWriteErrors  prometheus.Counter
	NotifyDropped     prometheus.Counter
	NotifyErrors      *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New registers the collectors on reg. Tests pass prometheus.NewRegistry().
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"route", "status"}),
		LatencyMS: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "storefront",
			Name:      "http_request_duration_ms",
			Help:      "HTTP request latency in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}, []string{"route"}),
		OrderTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "order_transitions_total",
			Help:      "Order status transitions by target status.",
		}, []string{"status"}),
		WebhookDeliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "payment_webhooks_total",
			Help:      "Payment webhook deliveries by provider and outcome.",
		}, []string{"provider", "outcome"}),
		AuditEnqueued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "audit_entries_enqueued_total",
			Help:      "Audit entries accepted into the write queue.",
		}),
		AuditDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "audit_entries_dropped_total",
			Help:      "Audit entries evicted because the write queue was full.",
		}),
		AuditWriteErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "audit_write_errors_total",
			Help:      "Audit entries that failed to persist.",
		}),
		NotifyDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "notify_events_dropped_total",
			Help:      "Notification events evicted because the queue was full.",
		}),
		NotifyErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "notify_errors_total",
			Help:      "Notification delivery failures by notifier.",
		}, []string{"notifier"}),
		gatherer: reg,
	}

	reg.MustRegister(
		m.Requests, m.LatencyMS, m.OrderTransitions, m.WebhookDeliveries,
		m.AuditEnqueued, m.AuditDropped, m.AuditWriteErrors,
		m.NotifyDropped, m.NotifyErrors,
	)
	return m
}

// NewDiscard returns collectors registered on a private registry, for
// callers that do not expose them.
func NewDiscard() *Metrics {
	return New(prometheus.NewRegistry())
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
