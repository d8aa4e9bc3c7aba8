package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"storefront/internal/apperrors"
	"storefront/internal/middleware"
)

func handlePanic(c *gin.Context, route string) {
	if r := recover(); r != nil {
		slog.Error("panic recovered", "route", route, "panic", r)
		middleware.WriteStatusError(c, http.StatusInternalServerError, "internal server error")
	}
}

// respondError maps a service error onto its status. Server errors are
// logged with their cause; the client only sees a generic message.
func respondError(c *gin.Context, route string, err error) {
	appErr := apperrors.As(err)
	if appErr.Kind == apperrors.KindServer {
		slog.Error("request failed", "route", route, "request_id", middleware.GetRequestID(c), "err", err)
		appErr = apperrors.Server("internal server error", nil)
	} else {
		slog.Debug("returning error", "route", route, "status", appErr.Status(), "message", appErr.Message)
	}
	middleware.AbortWithError(c, appErr)
}

func respondWithError(c *gin.Context, status int, route string, message string) {
	slog.Debug("returning error", "route", route, "status", status, "message", message)
	middleware.WriteStatusError(c, status, message)
}

func respondValidationError(c *gin.Context, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		details := make([]string, 0, len(validationErrors))
		for _, fieldError := range validationErrors {
			field := lowerCamel(fieldError.Field())
			switch fieldError.Tag() {
			case "required":
				details = append(details, fmt.Sprintf("%s is required", field))
			case "oneof":
				details = append(details, fmt.Sprintf("%s must be one of %s", field, fieldError.Param()))
			default:
				details = append(details, fmt.Sprintf("%s is invalid", field))
			}
		}
		c.Set(middleware.AuditErrorKey, "validation failed")
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"message": "validation failed",
			"details": details,
		})
		return
	}

	middleware.WriteStatusError(c, http.StatusBadRequest, "invalid body")
}

func lowerCamel(field string) string {
	if field == "" {
		return field
	}
	return strings.ToLower(field[:1]) + field[1:]
}
