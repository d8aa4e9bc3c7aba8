package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/audit"
	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/orders"
	"storefront/internal/store"
)

/* =========================
   REQUEST DTOs
========================= */

type createOrderRequest struct {
	Items         []models.CartItem    `json:"items" binding:"required"`
	Totals        *models.Totals       `json:"totals" binding:"required"`
	Address       *models.Address      `json:"address" binding:"required"`
	PaymentMethod models.PaymentMethod `json:"paymentMethod"`
	Notes         string               `json:"notes"`
	Delivery      *models.Delivery     `json:"delivery"`
}

type updateStatusRequest struct {
	Status models.OrderStatus `json:"status" binding:"required"`
}

/* =========================
   CUSTOMER
========================= */

func CreateOrder(svc *orders.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /orders"
		defer handlePanic(c, route)

		var req createOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		order, err := svc.Create(c.Request.Context(), orders.CreateInput{
			UserID:        middleware.CurrentUser(c).ID,
			Items:         req.Items,
			Totals:        req.Totals,
			Address:       req.Address,
			PaymentMethod: req.PaymentMethod,
			Notes:         req.Notes,
			Delivery:      req.Delivery,
		})
		if err != nil {
			respondError(c, route, err)
			return
		}

		c.Set(middleware.AuditResourceKey, order.ID)
		c.JSON(http.StatusCreated, order)
	}
}

func MyOrders(svc *orders.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /orders/my"
		defer handlePanic(c, route)

		list, err := svc.ListByUser(c.Request.Context(), middleware.CurrentUser(c).ID)
		if err != nil {
			respondError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"orders": list})
	}
}

func GetOrder(svc *orders.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /orders/:id"
		defer handlePanic(c, route)

		order, err := svc.Get(c.Request.Context(), c.Param("id"), middleware.CurrentUser(c))
		if err != nil {
			respondError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

/* =========================
   STAFF
========================= */

func ListOrders(svc *orders.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /orders"
		defer handlePanic(c, route)

		page, err := pageFromQuery(c)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		filter := store.OrderFilter{
			Status:        models.OrderStatus(c.Query("status")),
			PaymentStatus: models.PaymentStatus(c.Query("paymentStatus")),
			UserID:        c.Query("userId"),
		}
		list, total, err := svc.List(c.Request.Context(), filter, page)
		if err != nil {
			respondError(c, route, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"orders":     list,
			"pagination": audit.NewPagination(page, total),
		})
	}
}

func UpdateOrderStatus(svc *orders.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PATCH /orders/:id/status"
		defer handlePanic(c, route)

		var req updateStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		order, err := svc.TransitionStatus(c.Request.Context(), c.Param("id"), req.Status)
		if err != nil {
			respondError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, order)
	}
}
