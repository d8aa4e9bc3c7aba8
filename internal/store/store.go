// Package store declares the persistence contracts shared by the services.
// Implementations live in mongostore (production) and memstore (tests and
// local runs). Every order mutation is a conditional single-document update.
package store

import (
	"context"
	"errors"
	"math"
	"time"

	"storefront/internal/models"
)

var (
	ErrNotFound = errors.New("store: not found")
	// ErrPreconditionFailed means the document exists but the update
	// condition did not match its current state.
	ErrPreconditionFailed = errors.New("store: precondition failed")
	ErrDuplicate          = errors.New("store: duplicate key")
)

type Page struct {
	Page  int64
	Limit int64
}

// Skip saturates at math.MaxInt64 instead of wrapping.
func (p Page) Skip() int64 {
	if p.Page < 1 || p.Limit <= 0 {
		return 0
	}
	if p.Page-1 > math.MaxInt64/p.Limit {
		return math.MaxInt64
	}
	return (p.Page - 1) * p.Limit
}

type OrderFilter struct {
	Status        models.OrderStatus
	PaymentStatus models.PaymentStatus
	UserID        string
}

// OrderCondition restricts an update to orders in one of the listed states.
// Empty slices match any value.
type OrderCondition struct {
	StatusIn        []models.OrderStatus
	PaymentStatusIn []models.PaymentStatus
}

type CourierAssignment struct {
	ID            string
	Name          string
	Phone         string
	EstimatedTime *time.Time
}

// OrderUpdate lists the fields to set. A non-nil Status also appends a
// StatusChange to the order history.
type OrderUpdate struct {
	Status          *models.OrderStatus
	PaymentStatus   *models.PaymentStatus
	PaymentMethod   *models.PaymentMethod
	PaymentIntentID *string
	PaidAt          *time.Time
	Courier         *CourierAssignment
	At              time.Time
}

type OrderRepository interface {
	InsertOrder(ctx context.Context, order *models.Order) error
	FindOrder(ctx context.Context, id string) (*models.Order, error)
	ListOrders(ctx context.Context, filter OrderFilter, page Page) ([]models.Order, int64, error)
	UpdateOrder(ctx context.Context, id string, cond OrderCondition, upd OrderUpdate) (*models.Order, error)
	DeleteOrder(ctx context.Context, id string) error
}

type UserUpdate struct {
	Name     *string
	Role     *models.Role
	IsActive *bool
	At       time.Time
}

type UserRepository interface {
	InsertUser(ctx context.Context, user *models.User) error
	FindUser(ctx context.Context, id string) (*models.User, error)
	FindUserByPhone(ctx context.Context, phone string) (*models.User, error)
	ListUsers(ctx context.Context, page Page) ([]models.User, int64, error)
	UpdateUser(ctx context.Context, id string, upd UserUpdate) (*models.User, error)
	DeleteUser(ctx context.Context, id string) error
}

type AuditFilter struct {
	Resource  string
	Action    string
	UserRole  string
	UserID    string
	StartDate *time.Time
	EndDate   *time.Time
}

type AuditStats struct {
	Total      int64            `json:"total"`
	Failures   int64            `json:"failures"`
	ByAction   map[string]int64 `json:"byAction"`
	ByResource map[string]int64 `json:"byResource"`
	ByRole     map[string]int64 `json:"byRole"`
}

// AuditRepository is append-only: there is no update or delete.
type AuditRepository interface {
	InsertAuditLog(ctx context.Context, entry *models.AuditLogEntry) error
	ListAuditLogs(ctx context.Context, filter AuditFilter, page Page) ([]models.AuditLogEntry, int64, error)
	AuditStats(ctx context.Context, filter AuditFilter) (AuditStats, error)
}
