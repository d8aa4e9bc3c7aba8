package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/accounts"
	"storefront/internal/audit"
	"storefront/internal/middleware"
)

type createUserRequest struct {
	Name     string `json:"name" binding:"required"`
	Phone    string `json:"phone" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role" binding:"required,oneof=admin operator user moderator cashier"`
}

type updateUserRequest struct {
	Name     *string `json:"name"`
	Role     *string `json:"role" binding:"omitempty,oneof=admin operator user moderator cashier"`
	IsActive *bool   `json:"isActive"`
}

func ListUsers(svc *accounts.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/users"
		defer handlePanic(c, route)

		page, err := pageFromQuery(c)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		users, total, err := svc.List(c.Request.Context(), page)
		if err != nil {
			respondError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"users":      users,
			"pagination": audit.NewPagination(page, total),
		})
	}
}

func CreateUser(svc *accounts.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /admin/users"
		defer handlePanic(c, route)

		var req createUserRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		user, err := svc.Create(c.Request.Context(), middleware.CurrentUser(c), req.Name, req.Phone, req.Password, req.Role)
		if err != nil {
			respondError(c, route, err)
			return
		}

		c.Set(middleware.AuditResourceKey, user.ID)
		c.JSON(http.StatusCreated, user)
	}
}

func UpdateUser(svc *accounts.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PATCH /admin/users/:id"
		defer handlePanic(c, route)

		var req updateUserRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		user, err := svc.Update(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"), accounts.UpdateInput{
			Name:     req.Name,
			Role:     req.Role,
			IsActive: req.IsActive,
		})
		if err != nil {
			respondError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

func DeleteUser(svc *accounts.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /admin/users/:id"
		defer handlePanic(c, route)

		if err := svc.Delete(c.Request.Context(), middleware.CurrentUser(c), c.Param("id")); err != nil {
			respondError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "user deleted"})
	}
}
