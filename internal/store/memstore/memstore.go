// Package memstore is an in-process implementation of the store contracts.
// It backs STORE=memory runs and the HTTP tests; a single mutex plays the
// role the document database plays for conditional updates.
package memstore

import (
	"context"
	"slices"
	"sort"
	"sync"

	"storefront/internal/models"
	"storefront/internal/store"
)

type Store struct {
	mu     sync.RWMutex
	orders map[string]models.Order
	users  map[string]models.User
	audit  []models.AuditLogEntry
}

func New() *Store {
	return &Store{
		orders: map[string]models.Order{},
		users:  map[string]models.User{},
	}
}

var (
	_ store.OrderRepository = (*Store)(nil)
	_ store.UserRepository  = (*Store)(nil)
	_ store.AuditRepository = (*Store)(nil)
)

/* =========================
   ORDERS
========================= */

func (s *Store) InsertOrder(_ context.Context, order *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.orders[order.ID]; ok {
		return store.ErrDuplicate
	}
	s.orders[order.ID] = cloneOrder(*order)
	return nil
}

func (s *Store) FindOrder(_ context.Context, id string) (*models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	order, ok := s.orders[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := cloneOrder(order)
	return &out, nil
}

func (s *Store) ListOrders(_ context.Context, filter store.OrderFilter, page store.Page) ([]models.Order, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]models.Order, 0)
	for _, order := range s.orders {
		if filter.Status != "" && order.Status != filter.Status {
			continue
		}
		if filter.PaymentStatus != "" && order.PaymentStatus != filter.PaymentStatus {
			continue
		}
		if filter.UserID != "" && order.UserID != filter.UserID {
			continue
		}
		matched = append(matched, cloneOrder(order))
	}
	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return paginate(matched, page), int64(len(matched)), nil
}

func (s *Store) UpdateOrder(_ context.Context, id string, cond store.OrderCondition, upd store.OrderUpdate) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if len(cond.StatusIn) > 0 && !slices.Contains(cond.StatusIn, order.Status) {
		return nil, store.ErrPreconditionFailed
	}
	if len(cond.PaymentStatusIn) > 0 && !slices.Contains(cond.PaymentStatusIn, order.PaymentStatus) {
		return nil, store.ErrPreconditionFailed
	}

	order = cloneOrder(order)
	if upd.Status != nil {
		order.Status = *upd.Status
		order.StatusHistory = append(order.StatusHistory, models.StatusChange{Status: *upd.Status, At: upd.At})
	}
	if upd.PaymentStatus != nil {
		order.PaymentStatus = *upd.PaymentStatus
	}
	if upd.PaymentMethod != nil {
		order.PaymentMethod = *upd.PaymentMethod
	}
	if upd.PaymentIntentID != nil {
		order.PaymentIntentID = *upd.PaymentIntentID
	}
	if upd.PaidAt != nil {
		paidAt := *upd.PaidAt
		order.PaidAt = &paidAt
	}
	if c := upd.Courier; c != nil {
		order.Delivery.CourierID = c.ID
		order.Delivery.CourierName = c.Name
		order.Delivery.CourierPhone = c.Phone
		if c.EstimatedTime != nil {
			eta := *c.EstimatedTime
			order.Delivery.EstimatedTime = &eta
		}
	}
	order.UpdatedAt = upd.At
	s.orders[id] = order

	out := cloneOrder(order)
	return &out, nil
}

func (s *Store) DeleteOrder(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.orders[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.orders, id)
	return nil
}

/* =========================
   USERS
========================= */

func (s *Store) InsertUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Phone == user.Phone {
			return store.ErrDuplicate
		}
	}
	if _, ok := s.users[user.ID]; ok {
		return store.ErrDuplicate
	}
	s.users[user.ID] = *user
	return nil
}

func (s *Store) FindUser(_ context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &user, nil
}

func (s *Store) FindUserByPhone(_ context.Context, phone string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if user.Phone == phone {
			u := user
			return &u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) ListUsers(_ context.Context, page store.Page) ([]models.User, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]models.User, 0, len(s.users))
	for _, user := range s.users {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.After(users[j].CreatedAt) })
	return paginate(users, page), int64(len(users)), nil
}

func (s *Store) UpdateUser(_ context.Context, id string, upd store.UserUpdate) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if upd.Name != nil {
		user.Name = *upd.Name
	}
	if upd.Role != nil {
		user.Role = *upd.Role
	}
	if upd.IsActive != nil {
		user.IsActive = *upd.IsActive
	}
	user.UpdatedAt = upd.At
	s.users[id] = user
	return &user, nil
}

func (s *Store) DeleteUser(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.users, id)
	return nil
}

/* =========================
   AUDIT LOGS
========================= */

func (s *Store) InsertAuditLog(_ context.Context, entry *models.AuditLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.audit = append(s.audit, *entry)
	return nil
}

func (s *Store) ListAuditLogs(_ context.Context, filter store.AuditFilter, page store.Page) ([]models.AuditLogEntry, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := s.matchAudit(filter)
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].Timestamp.After(matched[j].Timestamp) })
	return paginate(matched, page), int64(len(matched)), nil
}

func (s *Store) AuditStats(_ context.Context, filter store.AuditFilter) (store.AuditStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := store.AuditStats{
		ByAction:   map[string]int64{},
		ByResource: map[string]int64{},
		ByRole:     map[string]int64{},
	}
	for _, entry := range s.matchAudit(filter) {
		stats.Total++
		if !entry.Success {
			stats.Failures++
		}
		stats.ByAction[string(entry.Action)]++
		stats.ByResource[string(entry.Resource)]++
		stats.ByRole[string(entry.UserRole)]++
	}
	return stats, nil
}

func (s *Store) matchAudit(filter store.AuditFilter) []models.AuditLogEntry {
	out := make([]models.AuditLogEntry, 0)
	for _, entry := range s.audit {
		if filter.Resource != "" && string(entry.Resource) != filter.Resource {
			continue
		}
		if filter.Action != "" && string(entry.Action) != filter.Action {
			continue
		}
		if filter.UserRole != "" && string(entry.UserRole) != filter.UserRole {
			continue
		}
		if filter.UserID != "" && entry.UserID != filter.UserID {
			continue
		}
		if filter.StartDate != nil && entry.Timestamp.Before(*filter.StartDate) {
			continue
		}
		if filter.EndDate != nil && entry.Timestamp.After(*filter.EndDate) {
			continue
		}
		out = append(out, entry)
	}
	return out
}

func paginate[T any](items []T, page store.Page) []T {
	if page.Limit <= 0 {
		return items
	}
	start := page.Skip()
	if start >= int64(len(items)) {
		return []T{}
	}
	end := start + page.Limit
	if end > int64(len(items)) {
		end = int64(len(items))
	}
	return items[start:end]
}

func cloneOrder(o models.Order) models.Order {
	o.Items = slices.Clone(o.Items)
	o.StatusHistory = slices.Clone(o.StatusHistory)
	o.PaidAt = clonePtr(o.PaidAt)
	o.Address.Coordinates = clonePtr(o.Address.Coordinates)
	o.Delivery.Coordinates = clonePtr(o.Delivery.Coordinates)
	o.Delivery.Address.Coordinates = clonePtr(o.Delivery.Address.Coordinates)
	o.Delivery.EstimatedTime = clonePtr(o.Delivery.EstimatedTime)
	return o
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
