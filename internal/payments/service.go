// Package payments creates payment intents and settles orders from signed
// provider webhooks. It writes only the payment fields of an order.
package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
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

var tracer = otel.Tracer("storefront/payments")

// Provider describes a payment gateway. Scale converts the amount the
// provider reports into order currency units.
type Provider struct {
	Name   string
	Secret string
	Scale  int64
}

type Config struct {
	Providers      []Provider
	RedirectBase   string
	ReconcileTotal bool
}

type Service struct {
	repo      store.OrderRepository
	publisher notify.Publisher
	metrics   *metrics.Metrics
	log       *slog.Logger
	providers map[string]Provider
	redirect  string
	reconcile bool
	now       func() time.Time
}

func NewService(repo store.OrderRepository, publisher notify.Publisher, m *metrics.Metrics, log *slog.Logger, cfg Config) *Service {
	providers := make(map[string]Provider, len(cfg.Providers))
	for _, p := range cfg.Providers {
		if p.Scale < 1 {
			p.Scale = 1
		}
		providers[p.Name] = p
	}
	return &Service{
		repo:      repo,
		publisher: publisher,
		metrics:   m,
		log:       log.With("component", "payments"),
		providers: providers,
		redirect:  strings.TrimRight(cfg.RedirectBase, "/"),
		reconcile: cfg.ReconcileTotal,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// DefaultProviders returns payme (amounts in tiyin) and click (amounts in sum).
func DefaultProviders(paymeSecret, clickSecret string) []Provider {
	return []Provider{
		{Name: string(models.PaymentMethodPayme), Secret: paymeSecret, Scale: 100},
		{Name: string(models.PaymentMethodClick), Secret: clickSecret, Scale: 1},
	}
}

/* =========================
   INTENTS
========================= */

type IntentRequest struct {
	OrderID string
	Amount  float64
}

type Intent struct {
	IntentID    string `json:"intentId"`
	RedirectURL string `json:"redirectUrl"`
}

// CreateIntent returns the order's pending intent for provider when one
// exists, otherwise mints and persists a new one.
func (s *Service) CreateIntent(ctx context.Context, provider string, req IntentRequest, caller *models.User) (_ *Intent, err error) {
	ctx, span := tracer.Start(ctx, "payments.CreateIntent", trace.WithAttributes(
		attribute.String("payment.provider", provider),
		attribute.String("order.id", req.OrderID),
	))
	defer func() { endSpan(span, err) }()

	if strings.TrimSpace(req.OrderID) == "" || req.Amount == 0 {
		return nil, apperrors.Validation("orderId and amount required")
	}
	if _, ok := s.providers[provider]; !ok {
		return nil, apperrors.Validation("unknown payment provider")
	}

	order, err := s.find(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}
	if caller != nil && !rbac.IsStaff(caller.Role) && order.UserID != caller.ID {
		return nil, apperrors.Forbidden("access denied")
	}
	if order.PaymentStatus == models.PaymentStatusPaid {
		return nil, apperrors.Conflict("order already paid")
	}

	method := models.PaymentMethod(provider)
	if order.PaymentStatus == models.PaymentStatusPending && order.PaymentIntentID != "" && order.PaymentMethod == method {
		return s.intent(provider, order.PaymentIntentID), nil
	}

	intentID := strings.ReplaceAll(uuid.NewString(), "-", "")
	pending := models.PaymentStatusPending

	opCtx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	updated, err := s.repo.UpdateOrder(opCtx, order.ID,
		store.OrderCondition{PaymentStatusIn: []models.PaymentStatus{models.PaymentStatusPending, models.PaymentStatusFailed}},
		store.OrderUpdate{
			PaymentMethod:   &method,
			PaymentStatus:   &pending,
			PaymentIntentID: &intentID,
			At:              s.now(),
		},
	)
	if err != nil {
		if errors.Is(err, store.ErrPreconditionFailed) {
			return nil, apperrors.Conflict("order already paid")
		}
		return nil, mapStoreErr(err)
	}

	s.log.Info("payment intent created", "order_id", order.ID, "provider", provider, "intent_id", intentID)
	s.publisher.Publish(notify.OrderEvent(ctx, notify.EventPaymentIntent, updated))
	return s.intent(provider, intentID), nil
}

func (s *Service) intent(provider, intentID string) *Intent {
	return &Intent{
		IntentID:    intentID,
		RedirectURL: fmt.Sprintf("%s/%s/%s", s.redirect, provider, intentID),
	}
}

/* =========================
   WEBHOOKS
========================= */

type webhookPayload struct {
	IntentID string          `json:"intentId"`
	OrderID  string          `json:"orderId"`
	Amount   json.RawMessage `json:"amount"`
	Status   string          `json:"status"`
}

// HandleWebhook verifies the signature over rawBody and settles the order.
// Redelivery of an already-settled payment succeeds without writing.
func (s *Service) HandleWebhook(ctx context.Context, provider string, rawBody []byte, signature string) (err error) {
	ctx, span := tracer.Start(ctx, "payments.HandleWebhook", trace.WithAttributes(attribute.String("payment.provider", provider)))
	outcome := "settled"
	defer func() {
		if err != nil {
			outcome = outcomeFor(err)
		}
		s.metrics.WebhookDeliveries.WithLabelValues(provider, outcome).Inc()
		endSpan(span, err)
	}()

	p, ok := s.providers[provider]
	if !ok || !VerifySignature(rawBody, signature, p.Secret) {
		s.log.Warn("webhook signature rejected", "provider", provider)
		return apperrors.Signature("invalid signature")
	}

	var payload webhookPayload
	if err := json.Unmarshal(rawBody, &payload); err != nil {
		return apperrors.Validation("invalid payload")
	}
	if strings.TrimSpace(payload.IntentID) == "" || strings.TrimSpace(payload.OrderID) == "" {
		return apperrors.Validation("intentId and orderId required")
	}
	span.SetAttributes(attribute.String("order.id", payload.OrderID), attribute.String("payment.intent_id", payload.IntentID))

	order, err := s.find(ctx, payload.OrderID)
	if err != nil {
		return err
	}
	if order.PaymentStatus == models.PaymentStatusPaid {
		outcome = "replay"
		s.log.Info("webhook replay ignored", "order_id", order.ID, "intent_id", payload.IntentID)
		return nil
	}

	if strings.EqualFold(payload.Status, string(models.PaymentStatusFailed)) {
		outcome = "failed"
		return s.markFailed(ctx, order, payload.IntentID)
	}

	if s.reconcile {
		if err := reconcile(order, payload.Amount, p.Scale); err != nil {
			return err
		}
	}

	paid := models.PaymentStatusPaid
	method := models.PaymentMethod(provider)
	now := s.now()
	opCtx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	updated, err := s.repo.UpdateOrder(opCtx, order.ID,
		store.OrderCondition{PaymentStatusIn: []models.PaymentStatus{models.PaymentStatusPending, models.PaymentStatusFailed}},
		store.OrderUpdate{
			PaymentStatus:   &paid,
			PaymentMethod:   &method,
			PaymentIntentID: &payload.IntentID,
			PaidAt:          &now,
			At:              now,
		},
	)
	if errors.Is(err, store.ErrPreconditionFailed) {
		// A concurrent delivery settled it first.
		outcome = "replay"
		return nil
	}
	if err != nil {
		return mapStoreErr(err)
	}

	s.log.Info("order paid", "order_id", order.ID, "provider", provider, "intent_id", payload.IntentID)
	s.publisher.Publish(notify.OrderEvent(ctx, notify.EventPaymentPaid, updated))
	return nil
}

func (s *Service) markFailed(ctx context.Context, order *models.Order, intentID string) error {
	failed := models.PaymentStatusFailed
	opCtx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	updated, err := s.repo.UpdateOrder(opCtx, order.ID,
		store.OrderCondition{PaymentStatusIn: []models.PaymentStatus{models.PaymentStatusPending}},
		store.OrderUpdate{PaymentStatus: &failed, At: s.now()},
	)
	if errors.Is(err, store.ErrPreconditionFailed) {
		return nil
	}
	if err != nil {
		return mapStoreErr(err)
	}

	s.log.Warn("payment failed", "order_id", order.ID, "intent_id", intentID)
	s.publisher.Publish(notify.OrderEvent(ctx, notify.EventPaymentFailed, updated))
	return nil
}

// reconcile is the only reader of the payload amount.
func reconcile(order *models.Order, raw json.RawMessage, scale int64) error {
	if len(raw) == 0 || string(raw) == "null" {
		return apperrors.Validation("amount required")
	}
	var amount json.Number
	if err := json.Unmarshal(raw, &amount); err != nil {
		return apperrors.Validation("invalid amount")
	}
	got, err := decimal.NewFromString(amount.String())
	if err != nil {
		return apperrors.Validation("invalid amount")
	}
	got = got.Div(decimal.NewFromInt(scale)).Round(2)
	want := decimal.NewFromFloat(order.Totals.Total).Round(2)
	if !got.Equal(want) {
		return apperrors.Validation("amount does not match order total")
	}
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
	}
	return apperrors.Server("order store failure", err)
}

func outcomeFor(err error) string {
	switch apperrors.As(err).Kind {
	case apperrors.KindSignature:
		return "bad_signature"
	case apperrors.KindValidation:
		return "bad_payload"
	case apperrors.KindNotFound:
		return "unknown_order"
	}
	return "error"
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
