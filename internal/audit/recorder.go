// Package audit records who did what to which resource. Entries are queued
// in memory and written by a single background consumer; a failed write is
// logged and counted but never reaches the request that produced it.
package audit

import (
	"context"
	"log/slog"
	"time"

	"storefront/internal/metrics"
	"storefront/internal/models"
	"storefront/internal/queue"
	"storefront/internal/store"
)

const writeTimeout = 5 * time.Second

type Recorder struct {
	repo    store.AuditRepository
	queue   *queue.Bounded[models.AuditLogEntry]
	metrics *metrics.Metrics
	log     *slog.Logger
}

func NewRecorder(repo store.AuditRepository, size int, m *metrics.Metrics, log *slog.Logger) *Recorder {
	return &Recorder{
		repo:    repo,
		queue:   queue.NewBounded[models.AuditLogEntry](size),
		metrics: m,
		log:     log.With("component", "audit"),
	}
}

// Record enqueues entry without blocking. When the queue is full the oldest
// pending entry is dropped.
func (r *Recorder) Record(entry models.AuditLogEntry) {
	r.metrics.AuditEnqueued.Inc()
	if r.queue.Push(entry) {
		r.metrics.AuditDropped.Inc()
		r.log.Warn("audit queue full, dropped oldest entry")
	}
}

// Run writes entries until ctx is cancelled, then flushes what is queued.
func (r *Recorder) Run(ctx context.Context) {
	r.queue.Run(ctx, r.write)
}

func (r *Recorder) write(entry models.AuditLogEntry) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	if err := r.repo.InsertAuditLog(ctx, &entry); err != nil {
		r.metrics.AuditWriteErrors.Inc()
		r.log.Error("audit write failed",
			"action", entry.Action,
			"resource", entry.Resource,
			"resource_id", entry.ResourceID,
			"err", err,
		)
	}
}

func (r *Recorder) Pending() int { return r.queue.Len() }
