package delivery

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/models"
)

var t0 = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func history(statuses ...models.OrderStatus) []models.StatusChange {
	out := make([]models.StatusChange, len(statuses))
	for i, s := range statuses {
		out[i] = models.StatusChange{Status: s, At: t0.Add(time.Duration(i) * time.Minute)}
	}
	return out
}

func statuses(steps []Step) []models.OrderStatus {
	out := make([]models.OrderStatus, len(steps))
	for i, s := range steps {
		out[i] = s.Status
	}
	return out
}

func TestTimelineForOpenOrder(t *testing.T) {
	order := &models.Order{
		ID:            "o1",
		Status:        models.OrderStatusPreparing,
		CreatedAt:     t0,
		StatusHistory: history(models.OrderStatusPending, models.OrderStatusConfirmed, models.OrderStatusPreparing),
	}

	steps := Timeline(order)
	require.Len(t, steps, 6)
	assert.Equal(t, []models.OrderStatus{
		models.OrderStatusPending, models.OrderStatusConfirmed, models.OrderStatusPreparing,
		models.OrderStatusReadyForDelivery, models.OrderStatusInTransit, models.OrderStatusDelivered,
	}, statuses(steps))

	for i, s := range steps {
		assert.Equal(t, i <= 2, s.Completed, s.Status)
		assert.Equal(t, i == 2, s.Current, s.Status)
	}
	require.NotNil(t, steps[1].At)
	assert.Equal(t, t0.Add(time.Minute), *steps[1].At)
	assert.Nil(t, steps[3].At)
}

func TestTimelineWithSkippedStage(t *testing.T) {
	order := &models.Order{
		Status:        models.OrderStatusInTransit,
		CreatedAt:     t0,
		StatusHistory: history(models.OrderStatusPending, models.OrderStatusInTransit),
	}

	steps := Timeline(order)
	assert.True(t, steps[2].Completed, "skipped stages below current count as completed")
	assert.Nil(t, steps[2].At)
	assert.True(t, steps[4].Current)
}

func TestTimelineForCancelledOrder(t *testing.T) {
	order := &models.Order{
		Status:        models.OrderStatusCancelled,
		CreatedAt:     t0,
		StatusHistory: history(models.OrderStatusPending, models.OrderStatusConfirmed, models.OrderStatusCancelled),
	}

	steps := Timeline(order)
	assert.Equal(t, []models.OrderStatus{
		models.OrderStatusPending, models.OrderStatusConfirmed, models.OrderStatusCancelled,
	}, statuses(steps))
	last := steps[len(steps)-1]
	assert.True(t, last.Completed)
	assert.True(t, last.Current)
	require.NotNil(t, last.At)
	assert.Equal(t, t0.Add(2*time.Minute), *last.At)
}

func TestTimelineForCancelledOrderWithoutHistory(t *testing.T) {
	order := &models.Order{Status: models.OrderStatusCancelled, CreatedAt: t0}

	steps := Timeline(order)
	assert.Equal(t, []models.OrderStatus{models.OrderStatusPending, models.OrderStatusCancelled}, statuses(steps))
}

func TestTrackIncludesCourier(t *testing.T) {
	eta := t0.Add(time.Hour)
	order := &models.Order{
		ID:     "o1",
		Status: models.OrderStatusInTransit,
		Totals: models.Totals{Total: 25},
		Delivery: models.Delivery{
			CourierID: "c1", CourierName: "Ali", CourierPhone: "+998",
			EstimatedTime: &eta,
		},
	}

	tr := Track(order)
	assert.Equal(t, "o1", tr.Order.ID)
	assert.Equal(t, 25.0, tr.Order.Total)
	assert.Equal(t, &eta, tr.Order.EstimatedTime)
	require.NotNil(t, tr.Courier)
	assert.Equal(t, "Ali", tr.Courier.Name)

	order.Delivery = models.Delivery{}
	assert.Nil(t, Track(order).Courier)
}
