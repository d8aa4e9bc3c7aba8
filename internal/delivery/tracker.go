// Package delivery projects an order into the customer-facing tracking view.
// The projection is pure: it reads nothing but the order it is given.
package delivery

import (
	"time"

	"storefront/internal/models"
	"storefront/internal/orders"
)

type Step struct {
	Status    models.OrderStatus `json:"status"`
	Completed bool               `json:"completed"`
	Current   bool               `json:"current"`
	At        *time.Time         `json:"at,omitempty"`
}

type Courier struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

type OrderSummary struct {
	ID            string             `json:"id"`
	Status        models.OrderStatus `json:"status"`
	Total         float64            `json:"total"`
	EstimatedTime *time.Time         `json:"estimatedTime"`
}

type Tracking struct {
	Order    OrderSummary `json:"order"`
	Timeline []Step       `json:"timeline"`
	Courier  *Courier     `json:"courier"`
}

func Track(order *models.Order) Tracking {
	t := Tracking{
		Order: OrderSummary{
			ID:            order.ID,
			Status:        order.Status,
			Total:         order.Totals.Total,
			EstimatedTime: order.Delivery.EstimatedTime,
		},
		Timeline: Timeline(order),
	}
	if order.HasCourier() {
		t.Courier = &Courier{
			ID:    order.Delivery.CourierID,
			Name:  order.Delivery.CourierName,
			Phone: order.Delivery.CourierPhone,
		}
	}
	return t
}

// Timeline lists every forward stage for open and delivered orders. A
// cancelled order shows only the stages it actually reached, followed by
// the cancellation.
func Timeline(order *models.Order) []Step {
	reached := firstReached(order.StatusHistory)

	if order.Status == models.OrderStatusCancelled {
		steps := make([]Step, 0, len(reached)+1)
		for _, s := range orders.Stages() {
			at, ok := reached[s]
			if !ok {
				continue
			}
			steps = append(steps, Step{Status: s, Completed: true, At: at})
		}
		// Orders persisted before history existed still start at pending.
		if len(steps) == 0 {
			steps = append(steps, Step{Status: models.OrderStatusPending, Completed: true, At: timePtr(order.CreatedAt)})
		}
		return append(steps, Step{
			Status:    models.OrderStatusCancelled,
			Completed: true,
			Current:   true,
			At:        reached[models.OrderStatusCancelled],
		})
	}

	current := orders.Ordinal(order.Status)
	stages := orders.Stages()
	steps := make([]Step, 0, len(stages))
	for i, s := range stages {
		step := Step{Status: s, Completed: i <= current, Current: i == current}
		if step.Completed {
			step.At = reached[s]
			if step.At == nil && s == models.OrderStatusPending {
				step.At = timePtr(order.CreatedAt)
			}
		}
		steps = append(steps, step)
	}
	return steps
}

func firstReached(history []models.StatusChange) map[models.OrderStatus]*time.Time {
	out := make(map[models.OrderStatus]*time.Time, len(history))
	for _, h := range history {
		if _, seen := out[h.Status]; seen {
			continue
		}
		out[h.Status] = timePtr(h.At)
	}
	return out
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
