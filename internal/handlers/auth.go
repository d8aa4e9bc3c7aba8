package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/accounts"
	"storefront/internal/middleware"
)

type registerRequest struct {
	Name     string `json:"name" binding:"required"`
	Phone    string `json:"phone" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginRequest struct {
	Phone    string `json:"phone" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func Register(svc *accounts.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /auth/register"
		defer handlePanic(c, route)

		var req registerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		session, err := svc.Register(c.Request.Context(), req.Name, req.Phone, req.Password)
		if err != nil {
			respondError(c, route, err)
			return
		}
		c.JSON(http.StatusCreated, session)
	}
}

func Login(svc *accounts.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /auth/login"
		defer handlePanic(c, route)

		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		session, err := svc.Login(c.Request.Context(), req.Phone, req.Password)
		if err != nil {
			respondError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, session)
	}
}

func GetMe() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user": middleware.CurrentUser(c)})
	}
}
