package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/middleware"
	"storefront/internal/payments"
)

const (
	signatureHeader = "x-signature"
	maxWebhookBody  = 1 << 20
)

// Fields are optional at bind time so that a missing value yields the
// service's own message.
type createIntentRequest struct {
	OrderID string  `json:"orderId"`
	Amount  float64 `json:"amount"`
}

func CreatePaymentIntent(svc *payments.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /payments/:provider/create"
		defer handlePanic(c, route)

		var req createIntentRequest
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			respondWithError(c, http.StatusBadRequest, route, "invalid body")
			return
		}

		intent, err := svc.CreateIntent(c.Request.Context(), c.Param("provider"), payments.IntentRequest{
			OrderID: req.OrderID,
			Amount:  req.Amount,
		}, middleware.CurrentUser(c))
		if err != nil {
			respondError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, intent)
	}
}

// PaymentWebhook verifies the provider signature over the exact bytes
// received, so the body is read raw and never re-encoded.
func PaymentWebhook(svc *payments.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /payments/:provider/webhook"
		defer handlePanic(c, route)

		raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid body")
			return
		}

		if err := svc.HandleWebhook(c.Request.Context(), c.Param("provider"), raw, c.GetHeader(signatureHeader)); err != nil {
			respondError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}
