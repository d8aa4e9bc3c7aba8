package rbac

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"storefront/internal/models"
)

func TestAdminHasEverything(t *testing.T) {
	for _, r := range allResources {
		for _, a := range crud {
			assert.True(t, Allowed(models.RoleAdmin, r, a), "%s:%s", r, a)
		}
	}
}

func TestOperatorPermissions(t *testing.T) {
	cases := []struct {
		resource Resource
		action   Action
		want     bool
	}{
		{ResourceOrders, ActionDelete, true},
		{ResourceOwnOrders, ActionCreate, true},
		{ResourceOwnOrders, ActionUpdate, false},
		{ResourcePayments, ActionRead, true},
		{ResourcePayments, ActionDelete, false},
		{ResourceDelivery, ActionUpdate, true},
		{ResourceDelivery, ActionDelete, false},
		{ResourceUsers, ActionUpdate, true},
		{ResourceUsers, ActionDelete, false},
		{ResourceAuditLogs, ActionRead, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Allowed(models.RoleOperator, tc.resource, tc.action), "%s:%s", tc.resource, tc.action)
	}
}

func TestUserPermissions(t *testing.T) {
	assert.True(t, Allowed(models.RoleUser, ResourceOwnOrders, ActionCreate))
	assert.True(t, Allowed(models.RoleUser, ResourceOwnOrders, ActionRead))
	assert.True(t, Allowed(models.RoleUser, ResourcePayments, ActionCreate))
	assert.True(t, Allowed(models.RoleUser, ResourceDelivery, ActionRead))

	assert.False(t, Allowed(models.RoleUser, ResourceOrders, ActionRead))
	assert.False(t, Allowed(models.RoleUser, ResourceOrders, ActionUpdate))
	assert.False(t, Allowed(models.RoleUser, ResourcePayments, ActionRead))
	assert.False(t, Allowed(models.RoleUser, ResourceUsers, ActionRead))
	assert.False(t, Allowed(models.RoleUser, ResourceAuditLogs, ActionRead))
}

func TestUnknownRoleDenied(t *testing.T) {
	assert.False(t, Allowed("moderator", ResourceOrders, ActionRead))
	assert.False(t, Allowed("", ResourceOwnOrders, ActionRead))
}

func TestIsStaff(t *testing.T) {
	assert.True(t, IsStaff(models.RoleAdmin))
	assert.True(t, IsStaff(models.RoleOperator))
	assert.False(t, IsStaff(models.RoleUser))
}

func TestPermissionLabel(t *testing.T) {
	assert.Equal(t, "orders:update", Permission(ResourceOrders, ActionUpdate))
}
