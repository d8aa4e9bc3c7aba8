package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"storefront/internal/models"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to models.OrderStatus
		want     bool
	}{
		{models.OrderStatusPending, models.OrderStatusConfirmed, true},
		{models.OrderStatusPending, models.OrderStatusInTransit, true},
		{models.OrderStatusPreparing, models.OrderStatusConfirmed, false},
		{models.OrderStatusInTransit, models.OrderStatusDelivered, true},
		{models.OrderStatusInTransit, models.OrderStatusCancelled, true},
		{models.OrderStatusPending, models.OrderStatusCancelled, true},
		{models.OrderStatusDelivered, models.OrderStatusCancelled, false},
		{models.OrderStatusCancelled, models.OrderStatusConfirmed, false},
		{models.OrderStatusConfirmed, models.OrderStatusPending, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestValidTarget(t *testing.T) {
	assert.False(t, ValidTarget(models.OrderStatusPending))
	assert.False(t, ValidTarget("shipped"))
	assert.False(t, ValidTarget(""))
	for _, s := range []models.OrderStatus{
		models.OrderStatusConfirmed, models.OrderStatusPreparing, models.OrderStatusReadyForDelivery,
		models.OrderStatusInTransit, models.OrderStatusDelivered, models.OrderStatusCancelled,
	} {
		assert.True(t, ValidTarget(s), s)
	}
}

func TestStagesIsACopy(t *testing.T) {
	s := Stages()
	s[0] = "mutated"
	assert.Equal(t, models.OrderStatusPending, Stages()[0])
}
