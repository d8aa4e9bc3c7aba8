package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"storefront/internal/orders"
)

type assignCourierRequest struct {
	CourierID     string     `json:"courierId" binding:"required"`
	CourierName   string     `json:"courierName" binding:"required"`
	CourierPhone  string     `json:"courierPhone" binding:"required"`
	EstimatedTime *time.Time `json:"estimatedTime"`
}

func DeleteOrder(svc *orders.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /admin/orders/:id"
		defer handlePanic(c, route)

		if err := svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
			respondError(c, route, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "order deleted"})
	}
}

func AssignCourier(svc *orders.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /admin/orders/:id/courier"
		defer handlePanic(c, route)

		var req assignCourierRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		order, err := svc.AssignCourier(c.Request.Context(), c.Param("id"), orders.CourierInput{
			CourierID:     req.CourierID,
			CourierName:   req.CourierName,
			CourierPhone:  req.CourierPhone,
			EstimatedTime: req.EstimatedTime,
		})
		if err != nil {
			respondError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, order)
	}
}
