package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"storefront/internal/accounts"
	"storefront/internal/audit"
	"storefront/internal/metrics"
	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/orders"
	"storefront/internal/payments"
	"storefront/internal/rbac"
)

type Deps struct {
	Orders   *orders.Service
	Payments *payments.Service
	Accounts *accounts.Service
	Audit    middleware.AuditSink
	AuditLog *audit.Query
	Metrics  *metrics.Metrics
	Ping     func(context.Context) error
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	requireAuth := middleware.RequireAuth(d.Accounts)
	can := middleware.RequirePermission
	audited := func(action models.AuditAction, resource models.AuditResource) gin.HandlerFunc {
		return middleware.Audit(d.Audit, action, resource)
	}

	r.GET("/health", Health(d.Ping))
	r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))

	r.POST("/auth/register", Register(d.Accounts))
	r.POST("/auth/login", Login(d.Accounts))
	r.GET("/auth/me", requireAuth, GetMe())

	o := r.Group("/orders")
	o.Use(requireAuth)
	{
		o.POST("", audited(models.AuditActionCreate, models.AuditResourceOrder),
			can(rbac.ResourceOwnOrders, rbac.ActionCreate), CreateOrder(d.Orders))
		o.GET("/my", can(rbac.ResourceOwnOrders, rbac.ActionRead), MyOrders(d.Orders))
		o.GET("", can(rbac.ResourceOrders, rbac.ActionRead), ListOrders(d.Orders))
		o.GET("/:id", middleware.RequireAnyPermission(
			middleware.Permission{Resource: rbac.ResourceOrders, Action: rbac.ActionRead},
			middleware.Permission{Resource: rbac.ResourceOwnOrders, Action: rbac.ActionRead},
		), GetOrder(d.Orders))
		o.PATCH("/:id/status", audited(models.AuditActionStatusChange, models.AuditResourceOrder),
			can(rbac.ResourceOrders, rbac.ActionUpdate), UpdateOrderStatus(d.Orders))
	}

	r.POST("/payments/:provider/create", requireAuth,
		audited(models.AuditActionPaymentIntent, models.AuditResourcePayment),
		can(rbac.ResourcePayments, rbac.ActionCreate), CreatePaymentIntent(d.Payments))
	r.POST("/payments/:provider/webhook", PaymentWebhook(d.Payments))

	r.GET("/delivery/track/:orderId", requireAuth, can(rbac.ResourceDelivery, rbac.ActionRead), TrackDelivery(d.Orders))

	admin := r.Group("/admin")
	admin.Use(requireAuth)
	{
		admin.DELETE("/orders/:id", audited(models.AuditActionDelete, models.AuditResourceOrder),
			can(rbac.ResourceOrders, rbac.ActionDelete), DeleteOrder(d.Orders))
		admin.PUT("/orders/:id/courier", audited(models.AuditActionAssignCourier, models.AuditResourceDelivery),
			can(rbac.ResourceDelivery, rbac.ActionUpdate), AssignCourier(d.Orders))

		admin.GET("/audit-logs", can(rbac.ResourceAuditLogs, rbac.ActionRead), ListAuditLogs(d.AuditLog))
		admin.GET("/audit-logs/stats", can(rbac.ResourceAuditLogs, rbac.ActionRead), AuditStats(d.AuditLog))
		admin.GET("/audit-logs/user/:userId", can(rbac.ResourceAuditLogs, rbac.ActionRead), UserActivity(d.AuditLog))

		admin.GET("/users", can(rbac.ResourceUsers, rbac.ActionRead), ListUsers(d.Accounts))
		admin.POST("/users", audited(models.AuditActionCreate, models.AuditResourceUser),
			can(rbac.ResourceUsers, rbac.ActionCreate), CreateUser(d.Accounts))
		admin.PATCH("/users/:id", audited(models.AuditActionUpdate, models.AuditResourceUser),
			can(rbac.ResourceUsers, rbac.ActionUpdate), UpdateUser(d.Accounts))
		admin.DELETE("/users/:id", audited(models.AuditActionDelete, models.AuditResourceUser),
			middleware.RejectSelf("id", "cannot delete your own account"),
			can(rbac.ResourceUsers, rbac.ActionDelete), DeleteUser(d.Accounts))
	}
}
