package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"storefront/internal/audit"
	"storefront/internal/store"
)

const defaultActivityLimit = 50

func auditFilterFromQuery(c *gin.Context) (store.AuditFilter, error) {
	start, err := parseDateParam(c.Query("startDate"), false)
	if err != nil {
		return store.AuditFilter{}, err
	}
	end, err := parseDateParam(c.Query("endDate"), true)
	if err != nil {
		return store.AuditFilter{}, err
	}
	return store.AuditFilter{
		Resource:  c.Query("resource"),
		Action:    c.Query("action"),
		UserRole:  c.Query("userRole"),
		UserID:    c.Query("userId"),
		StartDate: start,
		EndDate:   end,
	}, nil
}

func ListAuditLogs(q *audit.Query) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/audit-logs"
		defer handlePanic(c, route)

		page, err := pageFromQuery(c)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}
		filter, err := auditFilterFromQuery(c)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid date range")
			return
		}

		logs, pagination, err := q.List(c.Request.Context(), filter, page)
		if err != nil {
			respondError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"logs": logs, "pagination": pagination})
	}
}

func AuditStats(q *audit.Query) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/audit-logs/stats"
		defer handlePanic(c, route)

		filter, err := auditFilterFromQuery(c)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid date range")
			return
		}

		stats, err := q.Stats(c.Request.Context(), store.AuditFilter{StartDate: filter.StartDate, EndDate: filter.EndDate})
		if err != nil {
			respondError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, stats)
	}
}

func UserActivity(q *audit.Query) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/audit-logs/user/:userId"
		defer handlePanic(c, route)

		limit := int64(defaultActivityLimit)
		if raw := c.Query("limit"); raw != "" {
			l, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || l < 1 {
				respondWithError(c, http.StatusBadRequest, route, "invalid limit")
				return
			}
			limit = min(l, maxPageLimit)
		}

		logs, err := q.UserActivity(c.Request.Context(), c.Param("userId"), limit)
		if err != nil {
			respondError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"logs": logs})
	}
}
