//go:build integration

package mongostore

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/internal/models"
	"storefront/internal/store"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()

	container, err := mongodb.Run(ctx, "mongo:7")
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })

	return New(client.Database("storefront_test"))
}

func newOrder(id string) *models.Order {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &models.Order{
		ID:            id,
		UserID:        "u1",
		Items:         []models.CartItem{{ProductID: "p1", Title: "Tee", Slug: "tee", Price: 10, Qty: 1, Image: "img"}},
		Totals:        models.Totals{Subtotal: 10, Total: 10},
		Status:        models.OrderStatusPending,
		PaymentStatus: models.PaymentStatusPending,
		PaymentMethod: models.PaymentMethodCash,
		StatusHistory: []models.StatusChange{{Status: models.OrderStatusPending, At: now}},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func TestUpdateOrderConditional(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	require.NoError(t, s.InsertOrder(ctx, newOrder("o1")))

	confirmed := models.OrderStatusConfirmed
	updated, err := s.UpdateOrder(ctx, "o1",
		store.OrderCondition{StatusIn: []models.OrderStatus{models.OrderStatusPending}},
		store.OrderUpdate{Status: &confirmed, At: time.Now().UTC()})
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusConfirmed, updated.Status)
	assert.Len(t, updated.StatusHistory, 2)

	_, err = s.UpdateOrder(ctx, "o1",
		store.OrderCondition{StatusIn: []models.OrderStatus{models.OrderStatusPending}},
		store.OrderUpdate{Status: &confirmed, At: time.Now().UTC()})
	assert.ErrorIs(t, err, store.ErrPreconditionFailed)

	_, err = s.UpdateOrder(ctx, "missing", store.OrderCondition{}, store.OrderUpdate{At: time.Now()})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestConcurrentSettlementAppliesOnce(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	require.NoError(t, s.InsertOrder(ctx, newOrder("o2")))

	paid := models.PaymentStatusPaid
	var wg sync.WaitGroup
	var mu sync.Mutex
	applied := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			now := time.Now().UTC()
			_, err := s.UpdateOrder(ctx, "o2",
				store.OrderCondition{PaymentStatusIn: []models.PaymentStatus{models.PaymentStatusPending}},
				store.OrderUpdate{PaymentStatus: &paid, PaidAt: &now, At: now})
			if err == nil {
				mu.Lock()
				applied++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, applied)
}

func TestAuditStatsAggregation(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	now := time.Now().UTC()
	entries := []models.AuditLogEntry{
		{ID: "a1", UserID: "u1", UserRole: models.RoleAdmin, Action: models.AuditActionCreate, Resource: models.AuditResourceOrder, Timestamp: now, Success: true, Details: map[string]any{}},
		{ID: "a2", UserID: "u1", UserRole: models.RoleAdmin, Action: models.AuditActionDelete, Resource: models.AuditResourceUser, Timestamp: now, Success: false, Details: map[string]any{}},
	}
	for i := range entries {
		require.NoError(t, s.InsertAuditLog(ctx, &entries[i]))
	}

	stats, err := s.AuditStats(ctx, store.AuditFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Total)
	assert.Equal(t, int64(1), stats.Failures)
	assert.Equal(t, int64(2), stats.ByRole["admin"])

	logs, total, err := s.ListAuditLogs(ctx, store.AuditFilter{Resource: "user"}, store.Page{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "a2", logs[0].ID)
}
