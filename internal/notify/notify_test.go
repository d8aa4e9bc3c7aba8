package notify

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/metrics"
	"storefront/internal/models"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (r *recordingNotifier) Name() string { return "recording" }

func (r *recordingNotifier) Notify(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return r.err
}

func (r *recordingNotifier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleOrder() *models.Order {
	return &models.Order{
		ID:            "o1",
		UserID:        "u1",
		Status:        models.OrderStatusConfirmed,
		PaymentStatus: models.PaymentStatusPaid,
		Totals:        models.Totals{Total: 42.5},
	}
}

func TestDispatcherDeliversToEveryNotifier(t *testing.T) {
	a, b := &recordingNotifier{}, &recordingNotifier{err: assert.AnError}
	d := NewDispatcher(testLogger(), metrics.NewDiscard(), 8, a, b)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		d.Run(ctx)
		close(done)
	}()

	d.Publish(OrderEvent(context.Background(), EventOrderCreated, sampleOrder()))
	d.Publish(OrderEvent(context.Background(), EventPaymentPaid, sampleOrder()))

	require.Eventually(t, func() bool { return a.count() == 2 && b.count() == 2 }, time.Second, 10*time.Millisecond)
	cancel()
	<-done
}

func TestDispatcherWithoutNotifiersIgnoresEvents(t *testing.T) {
	d := NewDispatcher(testLogger(), metrics.NewDiscard(), 1)
	d.Publish(OrderEvent(context.Background(), EventOrderCreated, sampleOrder()))
	assert.Equal(t, 0, d.queue.Len())
}

func TestTelegramNotifierPostsMessage(t *testing.T) {
	var gotPath string
	var body map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewTelegramNotifierWithBase(srv.URL, "tok", "chat-9")
	err := n.Notify(context.Background(), OrderEvent(context.Background(), EventOrderStatus, sampleOrder()))
	require.NoError(t, err)

	assert.Equal(t, "/bottok/sendMessage", gotPath)
	assert.Equal(t, "chat-9", body["chat_id"])
	assert.Contains(t, body["text"], "order: o1")
	assert.Contains(t, body["text"], "status: confirmed")
}

func TestTelegramNotifierReportsHTTPErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	n := NewTelegramNotifierWithBase(srv.URL, "tok", "chat")
	err := n.Notify(context.Background(), OrderEvent(context.Background(), EventOrderStatus, sampleOrder()))
	assert.Error(t, err)
}

type fakeProducer struct {
	msgs []kafka.Message
}

func (f *fakeProducer) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func TestKafkaPublisherKeysByOrder(t *testing.T) {
	p := &fakeProducer{}
	pub := NewKafkaPublisher(p, "storefront.orders")

	err := pub.Notify(context.Background(), OrderEvent(context.Background(), EventPaymentPaid, sampleOrder()))
	require.NoError(t, err)
	require.Len(t, p.msgs, 1)

	msg := p.msgs[0]
	assert.Equal(t, "storefront.orders", msg.Topic)
	assert.Equal(t, "o1", string(msg.Key))
	assert.Equal(t, "event_type", msg.Headers[0].Key)
	assert.Equal(t, string(EventPaymentPaid), string(msg.Headers[0].Value))

	var decoded Event
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, models.PaymentStatusPaid, decoded.PaymentStatus)
	assert.Equal(t, 42.5, decoded.Total)
}
