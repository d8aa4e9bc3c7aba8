package notify

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"storefront/internal/metrics"
	"storefront/internal/queue"
)

const notifyTimeout = 5 * time.Second

// Dispatcher queues events and hands them to every notifier from a single
// worker goroutine.
type Dispatcher struct {
	log       *slog.Logger
	metrics   *metrics.Metrics
	queue     *queue.Bounded[Event]
	notifiers []Notifier
}

func NewDispatcher(log *slog.Logger, m *metrics.Metrics, size int, notifiers ...Notifier) *Dispatcher {
	return &Dispatcher{
		log:       log.With("component", "notify"),
		metrics:   m,
		queue:     queue.NewBounded[Event](size),
		notifiers: notifiers,
	}
}

func (d *Dispatcher) Publish(event Event) {
	if len(d.notifiers) == 0 {
		return
	}
	if d.queue.Push(event) {
		d.metrics.NotifyDropped.Inc()
		d.log.Warn("notify queue full, dropped oldest event")
	}
}

// Run delivers events until ctx is cancelled and the queue is drained.
func (d *Dispatcher) Run(ctx context.Context) {
	d.queue.Run(ctx, d.deliver)
}

func (d *Dispatcher) deliver(event Event) {
	for _, n := range d.notifiers {
		ctx, cancel := context.WithTimeout(detach(event.ctx), notifyTimeout)
		if err := n.Notify(ctx, event); err != nil {
			d.metrics.NotifyErrors.WithLabelValues(n.Name()).Inc()
			d.log.Error("notify failed", "notifier", n.Name(), "type", event.Type, "order_id", event.OrderID, "err", err)
		}
		cancel()
	}
}

// detach keeps the span context of the producing request but none of its
// cancellation.
func detach(parent context.Context) context.Context {
	if parent == nil {
		return context.Background()
	}
	return trace.ContextWithSpanContext(context.Background(), trace.SpanContextFromContext(parent))
}
