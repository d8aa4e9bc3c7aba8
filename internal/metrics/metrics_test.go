package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlerExposesRegisteredCollectors(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.WebhookDeliveries.WithLabelValues("payme", "settled").Inc()
	m.AuditDropped.Add(2)

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Contains(t, body, `storefront_payment_webhooks_total{outcome="settled",provider="payme"} 1`)
	assert.Contains(t, body, "storefront_audit_entries_dropped_total 2")
}

func TestNewDiscardIsIndependent(t *testing.T) {
	assert.NotPanics(t, func() {
		NewDiscard()
		NewDiscard()
	})
}
