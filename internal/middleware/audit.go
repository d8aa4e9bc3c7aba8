package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"storefront/internal/audit"
	"storefront/internal/models"
)

const (
	// AuditResourceKey lets a handler name the resource it created.
	AuditResourceKey = "auditResourceId"
	// AuditErrorKey carries the message of a failed response.
	AuditErrorKey = "auditError"

	maxAuditBody = 64 << 10
)

type AuditSink interface {
	Record(entry models.AuditLogEntry)
}

// Audit records one entry per request once the handler chain has finished.
// The entry is queued; the response is never delayed by the write.
func Audit(sink AuditSink, action models.AuditAction, resource models.AuditResource) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		var raw []byte
		if c.Request.Body != nil {
			raw = captureBody(c.Request)
		}

		c.Next()

		var body any
		if len(bytes.TrimSpace(raw)) > 0 {
			if err := json.Unmarshal(raw, &body); err != nil {
				body = nil
			}
		}
		body = audit.Sanitize(body)

		status := c.Writer.Status()
		entry := models.AuditLogEntry{
			ID:         uuid.NewString(),
			Action:     action,
			Resource:   resource,
			ResourceID: resourceID(c, body),
			Details: map[string]any{
				"method":         c.Request.Method,
				"path":           c.Request.URL.Path,
				"query":          sanitizedQuery(c.Request.URL.Query()),
				"body":           body,
				"responseTimeMs": time.Since(start).Milliseconds(),
				"statusCode":     status,
				"requestId":      GetRequestID(c),
			},
			IPAddress: c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
			Timestamp: time.Now().UTC(),
			Success:   status < http.StatusBadRequest,
		}
		if user := CurrentUser(c); user != nil {
			entry.UserID = user.ID
			entry.UserName = user.Name
			entry.UserRole = user.Role
		}
		if !entry.Success {
			entry.ErrorMessage = c.GetString(AuditErrorKey)
			if entry.ErrorMessage == "" {
				entry.ErrorMessage = http.StatusText(status)
			}
		}

		sink.Record(entry)
	}
}

type replayBody struct {
	io.Reader
	io.Closer
}

// captureBody keeps at most maxAuditBody bytes for the entry and hands the
// handler the whole stream, prefix included.
func captureBody(r *http.Request) []byte {
	orig := r.Body
	raw, err := io.ReadAll(io.LimitReader(orig, maxAuditBody))
	r.Body = replayBody{Reader: io.MultiReader(bytes.NewReader(raw), orig), Closer: orig}
	if err != nil {
		// partial prefix; the handler hits the same error when it reads on
		return nil
	}
	return raw
}

func sanitizedQuery(values url.Values) any {
	if len(values) == 0 {
		return nil
	}
	query := make(map[string]any, len(values))
	for key, vals := range values {
		if len(vals) == 1 {
			query[key] = vals[0]
			continue
		}
		list := make([]any, len(vals))
		for i, v := range vals {
			list[i] = v
		}
		query[key] = list
	}
	return audit.Sanitize(query)
}

func resourceID(c *gin.Context, body any) string {
	for _, name := range []string{"id", "orderId", "userId"} {
		if v := c.Param(name); v != "" {
			return v
		}
	}
	if v := c.GetString(AuditResourceKey); v != "" {
		return v
	}
	if m, ok := body.(map[string]any); ok {
		for _, key := range []string{"id", "orderId"} {
			if v, ok := m[key].(string); ok && v != "" {
				return v
			}
		}
	}
	return ""
}
