// Package notify fans order events out to external channels. Delivery is
// best effort: events are queued, failures are logged and never returned
// to the request that produced them.
package notify

import (
	"context"
	"time"

	"storefront/internal/models"
)

type EventType string

const (
	EventOrderCreated    EventType = "order.created"
	EventOrderStatus     EventType = "order.status_changed"
	EventCourierAssigned EventType = "order.courier_assigned"
	EventOrderDeleted    EventType = "order.deleted"
	EventPaymentIntent   EventType = "payment.intent_created"
	EventPaymentPaid     EventType = "payment.paid"
	EventPaymentFailed   EventType = "payment.failed"
)

type Event struct {
	Type          EventType            `json:"type"`
	OrderID       string               `json:"orderId"`
	UserID        string               `json:"userId"`
	Status        models.OrderStatus   `json:"status"`
	PaymentStatus models.PaymentStatus `json:"paymentStatus"`
	Total         float64              `json:"total"`
	At            time.Time            `json:"at"`

	// Trace context of the producing request, carried to the worker.
	ctx context.Context
}

// OrderEvent snapshots the fields of order relevant to subscribers.
func OrderEvent(ctx context.Context, typ EventType, order *models.Order) Event {
	return Event{
		Type:          typ,
		OrderID:       order.ID,
		UserID:        order.UserID,
		Status:        order.Status,
		PaymentStatus: order.PaymentStatus,
		Total:         order.Totals.Total,
		At:            time.Now().UTC(),
		ctx:           ctx,
	}
}

// Publisher accepts events without blocking.
type Publisher interface {
	Publish(event Event)
}

type Notifier interface {
	Name() string
	Notify(ctx context.Context, event Event) error
}

// Discard drops every event.
type Discard struct{}

func (Discard) Publish(Event) {}
