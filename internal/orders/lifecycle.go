package orders

import "storefront/internal/models"

// stages lists the forward path of an order. cancelled sits outside it.
var stages = []models.OrderStatus{
	models.OrderStatusPending,
	models.OrderStatusConfirmed,
	models.OrderStatusPreparing,
	models.OrderStatusReadyForDelivery,
	models.OrderStatusInTransit,
	models.OrderStatusDelivered,
}

// Stages returns the forward path from pending to delivered.
func Stages() []models.OrderStatus {
	out := make([]models.OrderStatus, len(stages))
	copy(out, stages)
	return out
}

// Ordinal returns the position of status on the forward path, or -1.
func Ordinal(status models.OrderStatus) int {
	for i, s := range stages {
		if s == status {
			return i
		}
	}
	return -1
}

// ValidTarget reports whether status may be requested through a transition.
// pending is only ever the initial state.
func ValidTarget(status models.OrderStatus) bool {
	if status == models.OrderStatusCancelled {
		return true
	}
	return Ordinal(status) > 0
}

func IsTerminal(status models.OrderStatus) bool {
	return status == models.OrderStatusDelivered || status == models.OrderStatusCancelled
}

// CanTransition reports whether from -> to is an edge of the lifecycle graph:
// forward moves (skips allowed) and cancellation of any open order.
func CanTransition(from, to models.OrderStatus) bool {
	if IsTerminal(from) {
		return false
	}
	if to == models.OrderStatusCancelled {
		return true
	}
	return Ordinal(to) > Ordinal(from)
}

func openStatuses() []models.OrderStatus {
	out := make([]models.OrderStatus, 0, len(stages))
	for _, s := range stages {
		if !IsTerminal(s) {
			out = append(out, s)
		}
	}
	return out
}
