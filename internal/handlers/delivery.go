package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/delivery"
	"storefront/internal/middleware"
	"storefront/internal/orders"
)

func TrackDelivery(svc *orders.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /delivery/track/:orderId"
		defer handlePanic(c, route)

		order, err := svc.Get(c.Request.Context(), c.Param("orderId"), middleware.CurrentUser(c))
		if err != nil {
			respondError(c, route, err)
			return
		}

		c.Header("Cache-Control", "no-store")
		c.JSON(http.StatusOK, delivery.Track(order))
	}
}
