// Package orders owns the order lifecycle: creation, status transitions and
// courier assignment. Every mutation is a conditional update on the current
// state, so concurrent writers cannot both win.
package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"storefront/internal/apperrors"
	"storefront/internal/metrics"
	"storefront/internal/models"
	"storefront/internal/notify"
	"storefront/internal/rbac"
	"storefront/internal/store"
)

const storeTimeout = 5 * time.Second

var tracer = otel.Tracer("storefront/orders")

type Service struct {
	repo      store.OrderRepository
	publisher notify.Publisher
	metrics   *metrics.Metrics
	log       *slog.Logger
	now       func() time.Time
}

func NewService(repo store.OrderRepository, publisher notify.Publisher, m *metrics.Metrics, log *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		publisher: publisher,
		metrics:   m,
		log:       log.With("component", "orders"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

type CreateInput struct {
	UserID        string
	Items         []models.CartItem
	Totals        *models.Totals
	Address       *models.Address
	PaymentMethod models.PaymentMethod
	Notes         string
	Delivery      *models.Delivery
}

/* =========================
   CREATE
========================= */

func (s *Service) Create(ctx context.Context, in CreateInput) (_ *models.Order, err error) {
	ctx, span := tracer.Start(ctx, "orders.Create")
	defer func() { endSpan(span, err) }()

	if err := validateCreate(&in); err != nil {
		return nil, err
	}

	now := s.now()
	order := &models.Order{
		ID:            primitive.NewObjectID().Hex(),
		UserID:        in.UserID,
		Items:         in.Items,
		Totals:        *in.Totals,
		Status:        models.OrderStatusPending,
		Address:       *in.Address,
		PaymentStatus: models.PaymentStatusPending,
		PaymentMethod: in.PaymentMethod,
		Notes:         strings.TrimSpace(in.Notes),
		StatusHistory: []models.StatusChange{{Status: models.OrderStatusPending, At: now}},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if in.Delivery != nil {
		order.Delivery = *in.Delivery
		// Courier fields are set only through AssignCourier.
		order.Delivery.CourierID = ""
		order.Delivery.CourierName = ""
		order.Delivery.CourierPhone = ""
	} else {
		order.Delivery = models.Delivery{Address: *in.Address, Coordinates: in.Address.Coordinates}
	}
	span.SetAttributes(attribute.String("order.id", order.ID))

	opCtx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	if err := s.repo.InsertOrder(opCtx, order); err != nil {
		return nil, mapStoreErr(err)
	}

	s.log.Info("order created", "order_id", order.ID, "user_id", order.UserID, "total", order.Totals.Total)
	s.publisher.Publish(notify.OrderEvent(ctx, notify.EventOrderCreated, order))
	return order, nil
}

func validateCreate(in *CreateInput) error {
	if strings.TrimSpace(in.UserID) == "" {
		return apperrors.Validation("user is required")
	}
	if len(in.Items) == 0 {
		return apperrors.Validation("items are required")
	}
	if in.Totals == nil {
		return apperrors.Validation("totals are required")
	}
	if in.Address == nil {
		return apperrors.Validation("address is required")
	}
	if in.PaymentMethod == "" {
		in.PaymentMethod = models.PaymentMethodCash
	}
	if !in.PaymentMethod.Valid() {
		return apperrors.Validation("invalid paymentMethod")
	}

	subtotal := decimal.Zero
	for i, item := range in.Items {
		if strings.TrimSpace(item.ProductID) == "" {
			return apperrors.Validation(fmt.Sprintf("items[%d].productId is required", i))
		}
		if item.Qty < 1 {
			return apperrors.Validation(fmt.Sprintf("items[%d].qty must be at least 1", i))
		}
		if item.Price < 0 {
			return apperrors.Validation(fmt.Sprintf("items[%d].price must not be negative", i))
		}
		line := decimal.NewFromFloat(item.Price).Mul(decimal.NewFromInt(int64(item.Qty)))
		subtotal = subtotal.Add(line)
	}

	t := in.Totals
	if t.Shipping < 0 || t.Tax < 0 {
		return apperrors.Validation("shipping and tax must not be negative")
	}
	if !money(t.Subtotal).Equal(subtotal.Round(2)) {
		return apperrors.Validation("totals.subtotal does not match items")
	}
	want := money(t.Subtotal).Add(money(t.Shipping)).Add(money(t.Tax))
	if !money(t.Total).Equal(want) {
		return apperrors.Validation("totals.total does not match subtotal, shipping and tax")
	}
	return nil
}

func money(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(2)
}

/* =========================
   TRANSITIONS
========================= */

// TransitionStatus moves the order to target. Requesting the current status
// is a no-op that returns the order unchanged.
func (s *Service) TransitionStatus(ctx context.Context, id string, target models.OrderStatus) (_ *models.Order, err error) {
	ctx, span := tracer.Start(ctx, "orders.TransitionStatus", trace.WithAttributes(
		attribute.String("order.id", id),
		attribute.String("order.target_status", string(target)),
	))
	defer func() { endSpan(span, err) }()

	if !ValidTarget(target) {
		return nil, apperrors.Validation("invalid status")
	}

	current, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status == target {
		return current, nil
	}
	if !CanTransition(current.Status, target) {
		return nil, apperrors.Conflict(fmt.Sprintf("cannot change status from %s to %s", current.Status, target))
	}

	opCtx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	updated, err := s.repo.UpdateOrder(opCtx, id,
		store.OrderCondition{StatusIn: []models.OrderStatus{current.Status}},
		store.OrderUpdate{Status: &target, At: s.now()},
	)
	if err != nil {
		return nil, mapStoreErr(err)
	}

	s.metrics.OrderTransitions.WithLabelValues(string(target)).Inc()
	s.log.Info("order status changed", "order_id", id, "from", current.Status, "to", target)
	s.publisher.Publish(notify.OrderEvent(ctx, notify.EventOrderStatus, updated))
	return updated, nil
}

type CourierInput struct {
	CourierID     string
	CourierName   string
	CourierPhone  string
	EstimatedTime *time.Time
}

// AssignCourier sets the courier of an open order. Delivered and cancelled
// orders are rejected.
func (s *Service) AssignCourier(ctx context.Context, id string, in CourierInput) (_ *models.Order, err error) {
	ctx, span := tracer.Start(ctx, "orders.AssignCourier", trace.WithAttributes(attribute.String("order.id", id)))
	defer func() { endSpan(span, err) }()

	if strings.TrimSpace(in.CourierID) == "" || strings.TrimSpace(in.CourierName) == "" || strings.TrimSpace(in.CourierPhone) == "" {
		return nil, apperrors.Validation("courierId, courierName and courierPhone required")
	}

	current, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if IsTerminal(current.Status) {
		return nil, apperrors.Conflict(fmt.Sprintf("cannot assign courier to %s order", current.Status))
	}

	opCtx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	updated, err := s.repo.UpdateOrder(opCtx, id,
		store.OrderCondition{StatusIn: openStatuses()},
		store.OrderUpdate{
			Courier: &store.CourierAssignment{
				ID:            in.CourierID,
				Name:          in.CourierName,
				Phone:         in.CourierPhone,
				EstimatedTime: in.EstimatedTime,
			},
			At: s.now(),
		},
	)
	if err != nil {
		return nil, mapStoreErr(err)
	}

	s.log.Info("courier assigned", "order_id", id, "courier_id", in.CourierID)
	s.publisher.Publish(notify.OrderEvent(ctx, notify.EventCourierAssigned, updated))
	return updated, nil
}

/* =========================
   READS / DELETE
========================= */

// Get returns the order if caller owns it or is staff.
func (s *Service) Get(ctx context.Context, id string, caller *models.User) (*models.Order, error) {
	order, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanView(caller, order) {
		return nil, apperrors.Forbidden("access denied")
	}
	return order, nil
}

// CanView reports whether caller may read order.
func CanView(caller *models.User, order *models.Order) bool {
	if caller == nil {
		return false
	}
	return rbac.IsStaff(caller.Role) || order.UserID == caller.ID
}

func (s *Service) ListByUser(ctx context.Context, userID string) ([]models.Order, error) {
	opCtx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	orders, _, err := s.repo.ListOrders(opCtx, store.OrderFilter{UserID: userID}, store.Page{})
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return orders, nil
}

func (s *Service) List(ctx context.Context, filter store.OrderFilter, page store.Page) ([]models.Order, int64, error) {
	opCtx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	orders, total, err := s.repo.ListOrders(opCtx, filter, page)
	if err != nil {
		return nil, 0, mapStoreErr(err)
	}
	return orders, total, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	order, err := s.find(ctx, id)
	if err != nil {
		return err
	}

	opCtx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	if err := s.repo.DeleteOrder(opCtx, id); err != nil {
		return mapStoreErr(err)
	}

	s.log.Info("order deleted", "order_id", id)
	s.publisher.Publish(notify.OrderEvent(ctx, notify.EventOrderDeleted, order))
	return nil
}

func (s *Service) find(ctx context.Context, id string) (*models.Order, error) {
	opCtx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	order, err := s.repo.FindOrder(opCtx, id)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return order, nil
}

func mapStoreErr(err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return apperrors.NotFound("order not found")
	case errors.Is(err, store.ErrPreconditionFailed):
		return apperrors.Conflict("order was modified concurrently")
	case errors.Is(err, store.ErrDuplicate):
		return apperrors.Conflict("order already exists")
	}
	return apperrors.Server("order store failure", err)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
