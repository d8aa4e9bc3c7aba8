// Package rbac holds the role to permission table. The table is built once
// at init and never mutated afterwards.
package rbac

import (
	"fmt"

	"storefront/internal/models"
)

type Resource string

const (
	ResourceOrders    Resource = "orders"
	ResourceOwnOrders Resource = "own_orders"
	ResourcePayments  Resource = "payments"
	ResourceDelivery  Resource = "delivery"
	ResourceUsers     Resource = "users"
	ResourceAuditLogs Resource = "audit_logs"
)

type Action string

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

var (
	allResources = []Resource{ResourceOrders, ResourceOwnOrders, ResourcePayments, ResourceDelivery, ResourceUsers, ResourceAuditLogs}
	crud         = []Action{ActionCreate, ActionRead, ActionUpdate, ActionDelete}
)

type actionSet map[Action]struct{}

func setOf(actions ...Action) actionSet {
	s := make(actionSet, len(actions))
	for _, a := range actions {
		s[a] = struct{}{}
	}
	return s
}

var permissions = buildTable()

func buildTable() map[models.Role]map[Resource]actionSet {
	admin := make(map[Resource]actionSet, len(allResources))
	for _, r := range allResources {
		admin[r] = setOf(crud...)
	}

	return map[models.Role]map[Resource]actionSet{
		models.RoleAdmin: admin,
		models.RoleOperator: {
			ResourceOrders:    setOf(crud...),
			ResourceOwnOrders: setOf(ActionCreate, ActionRead),
			ResourcePayments:  setOf(ActionCreate, ActionRead),
			ResourceDelivery:  setOf(ActionRead, ActionUpdate),
			ResourceUsers:     setOf(ActionCreate, ActionRead, ActionUpdate),
		},
		models.RoleUser: {
			ResourceOwnOrders: setOf(ActionCreate, ActionRead),
			ResourcePayments:  setOf(ActionCreate),
			ResourceDelivery:  setOf(ActionRead),
		},
	}
}

// Allowed reports whether role may perform action on resource. Unknown roles
// are denied everything.
func Allowed(role models.Role, resource Resource, action Action) bool {
	resources, ok := permissions[role]
	if !ok {
		return false
	}
	_, ok = resources[resource][action]
	return ok
}

// Permission renders the "resource:action" label used in 403 bodies.
func Permission(resource Resource, action Action) string {
	return fmt.Sprintf("%s:%s", resource, action)
}

// IsStaff reports whether the role can see orders beyond its own.
func IsStaff(role models.Role) bool {
	return Allowed(role, ResourceOrders, ActionRead)
}
