package audit

import (
	"context"
	"math"

	"storefront/internal/apperrors"
	"storefront/internal/models"
	"storefront/internal/store"
)

type Pagination struct {
	Page  int64 `json:"page"`
	Limit int64 `json:"limit"`
	Total int64 `json:"total"`
	Pages int64 `json:"pages"`
}

func NewPagination(page store.Page, total int64) Pagination {
	pages := int64(0)
	if page.Limit > 0 {
		pages = int64(math.Ceil(float64(total) / float64(page.Limit)))
	}
	return Pagination{Page: page.Page, Limit: page.Limit, Total: total, Pages: pages}
}

type Query struct {
	repo store.AuditRepository
}

func NewQuery(repo store.AuditRepository) *Query {
	return &Query{repo: repo}
}

func (q *Query) List(ctx context.Context, filter store.AuditFilter, page store.Page) ([]models.AuditLogEntry, Pagination, error) {
	opCtx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	logs, total, err := q.repo.ListAuditLogs(opCtx, filter, page)
	if err != nil {
		return nil, Pagination{}, apperrors.Server("failed to fetch audit logs", err)
	}
	return logs, NewPagination(page, total), nil
}

// UserActivity returns the latest limit entries produced by userID.
func (q *Query) UserActivity(ctx context.Context, userID string, limit int64) ([]models.AuditLogEntry, error) {
	opCtx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	logs, _, err := q.repo.ListAuditLogs(opCtx, store.AuditFilter{UserID: userID}, store.Page{Page: 1, Limit: limit})
	if err != nil {
		return nil, apperrors.Server("failed to fetch user activity", err)
	}
	return logs, nil
}

func (q *Query) Stats(ctx context.Context, filter store.AuditFilter) (store.AuditStats, error) {
	opCtx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	stats, err := q.repo.AuditStats(opCtx, filter)
	if err != nil {
		return store.AuditStats{}, apperrors.Server("failed to compute audit stats", err)
	}
	return stats, nil
}
