package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/apperrors"
	"storefront/internal/auth"
	"storefront/internal/models"
	"storefront/internal/rbac"
)

const userKey = "currentUser"

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

// RequireAuth resolves the bearer token to an active stored account. The
// stored role, not the token claim, is what later checks see.
func RequireAuth(authn Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader("Authorization")
		if raw == "" {
			AbortWithError(c, apperrors.Auth("missing token"))
			return
		}
		token, ok := auth.BearerToken(raw)
		if !ok {
			AbortWithError(c, apperrors.Auth("invalid token"))
			return
		}

		user, err := authn.Authenticate(c.Request.Context(), token)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		c.Set(userKey, user)
		c.Next()
	}
}

// RequirePermission rejects callers whose role lacks action on resource.
func RequirePermission(resource rbac.Resource, action rbac.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			AbortWithError(c, apperrors.Auth("unauthorized"))
			return
		}
		if !rbac.Allowed(user.Role, resource, action) {
			AbortWithError(c, apperrors.Forbidden("insufficient permissions").
				With("userRole", user.Role).
				With("requiredPermission", rbac.Permission(resource, action)))
			return
		}
		c.Next()
	}
}

// RequireAnyPermission passes when the role holds at least one of perms.
func RequireAnyPermission(perms ...Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			AbortWithError(c, apperrors.Auth("unauthorized"))
			return
		}
		for _, p := range perms {
			if rbac.Allowed(user.Role, p.Resource, p.Action) {
				c.Next()
				return
			}
		}
		required := ""
		if len(perms) > 0 {
			required = rbac.Permission(perms[0].Resource, perms[0].Action)
		}
		AbortWithError(c, apperrors.Forbidden("insufficient permissions").
			With("userRole", user.Role).
			With("requiredPermission", required))
	}
}

type Permission struct {
	Resource rbac.Resource
	Action   rbac.Action
}

func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(userKey)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}

// AbortWithError writes err as {message, ...fields} with the status of its
// kind and records the message for the audit trail.
func AbortWithError(c *gin.Context, err error) {
	appErr := apperrors.As(err)
	body := gin.H{"message": appErr.Message}
	for k, v := range appErr.Fields {
		body[k] = v
	}
	c.Set(AuditErrorKey, appErr.Message)
	c.AbortWithStatusJSON(appErr.Status(), body)
}

// WriteStatusError is AbortWithError for callers that only have a status.
func WriteStatusError(c *gin.Context, status int, message string) {
	if message == "" {
		message = http.StatusText(status)
	}
	c.Set(AuditErrorKey, message)
	c.AbortWithStatusJSON(status, gin.H{"message": message})
}

// RejectSelf fails with 400 when the path parameter names the caller. It
// runs ahead of the permission check so the answer does not depend on role.
func RejectSelf(param, message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if user := CurrentUser(c); user != nil && c.Param(param) == user.ID {
			AbortWithError(c, apperrors.Validation(message))
			return
		}
		c.Next()
	}
}
