package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/apperrors"
	"storefront/internal/metrics"
	"storefront/internal/models"
	"storefront/internal/rbac"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubAuthenticator map[string]*models.User

func (s stubAuthenticator) Authenticate(_ context.Context, token string) (*models.User, error) {
	if u, ok := s[token]; ok {
		return u, nil
	}
	return nil, apperrors.Auth("unauthorized")
}

type captureSink struct {
	mu      sync.Mutex
	entries []models.AuditLogEntry
}

func (s *captureSink) Record(e models.AuditLogEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
}

var users = stubAuthenticator{
	"admin-token": {ID: "a1", Name: "Admin", Role: models.RoleAdmin, IsActive: true},
	"user-token":  {ID: "u1", Name: "Customer", Role: models.RoleUser, IsActive: true},
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestRequireAuth(t *testing.T) {
	r := gin.New()
	r.GET("/me", RequireAuth(users), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": CurrentUser(c).ID})
	})

	cases := []struct {
		header string
		status int
	}{
		{"", http.StatusUnauthorized},
		{"Basic abc", http.StatusUnauthorized},
		{"Bearer unknown", http.StatusUnauthorized},
		{"Bearer user-token", http.StatusOK},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, tc.status, w.Code, tc.header)
		if tc.status != http.StatusOK {
			assert.NotEmpty(t, decode(t, w)["message"])
		}
	}
}

func TestRequirePermissionForbiddenBody(t *testing.T) {
	r := gin.New()
	r.PATCH("/orders/:id/status",
		RequireAuth(users),
		RequirePermission(rbac.ResourceOrders, rbac.ActionUpdate),
		func(c *gin.Context) { c.Status(http.StatusOK) },
	)

	req := httptest.NewRequest(http.MethodPatch, "/orders/o1/status", nil)
	req.Header.Set("Authorization", "Bearer user-token")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusForbidden, w.Code)
	body := decode(t, w)
	assert.Equal(t, "insufficient permissions", body["message"])
	assert.Equal(t, "user", body["userRole"])
	assert.Equal(t, "orders:update", body["requiredPermission"])

	req = httptest.NewRequest(http.MethodPatch, "/orders/o1/status", nil)
	req.Header.Set("Authorization", "Bearer admin-token")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireAnyPermission(t *testing.T) {
	r := gin.New()
	r.GET("/orders/:id",
		RequireAuth(users),
		RequireAnyPermission(
			Permission{rbac.ResourceOrders, rbac.ActionRead},
			Permission{rbac.ResourceOwnOrders, rbac.ActionRead},
		),
		func(c *gin.Context) { c.Status(http.StatusOK) },
	)

	req := httptest.NewRequest(http.MethodGet, "/orders/o1", nil)
	req.Header.Set("Authorization", "Bearer user-token")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuditRecordsSanitizedEntry(t *testing.T) {
	sink := &captureSink{}
	r := gin.New()
	r.Use(RequestID())
	r.POST("/admin/users",
		RequireAuth(users),
		Audit(sink, models.AuditActionCreate, models.AuditResourceUser),
		func(c *gin.Context) {
			var body map[string]any
			require.NoError(t, c.ShouldBindJSON(&body))
			assert.Equal(t, "hunter22", body["password"], "handler sees the original body")
			c.Set(AuditResourceKey, "new-user")
			c.JSON(http.StatusCreated, gin.H{"id": "new-user"})
		},
	)

	req := httptest.NewRequest(http.MethodPost, "/admin/users?src=test&token=abc&tag=a&tag=b", strings.NewReader(`{"name":"Ali","password":"hunter22","meta":{"token":"t"}}`))
	req.Header.Set("Authorization", "Bearer admin-token")
	req.Header.Set("User-Agent", "tests")
	req.Header.Set(RequestIDHeader, "req-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	require.Len(t, sink.entries, 1)
	e := sink.entries[0]
	assert.Equal(t, "a1", e.UserID)
	assert.Equal(t, "Admin", e.UserName)
	assert.Equal(t, models.RoleAdmin, e.UserRole)
	assert.Equal(t, models.AuditActionCreate, e.Action)
	assert.Equal(t, models.AuditResourceUser, e.Resource)
	assert.Equal(t, "new-user", e.ResourceID)
	assert.True(t, e.Success)
	assert.Empty(t, e.ErrorMessage)
	assert.Equal(t, "tests", e.UserAgent)

	assert.Equal(t, http.MethodPost, e.Details["method"])
	assert.Equal(t, "/admin/users", e.Details["path"])
	assert.Equal(t, map[string]any{
		"src":   "test",
		"token": "[REDACTED]",
		"tag":   []any{"a", "b"},
	}, e.Details["query"])
	assert.Equal(t, http.StatusCreated, e.Details["statusCode"])
	assert.Equal(t, "req-1", e.Details["requestId"])
	body := e.Details["body"].(map[string]any)
	assert.Equal(t, "[REDACTED]", body["password"])
	assert.Equal(t, "[REDACTED]", body["meta"].(map[string]any)["token"])
}

func TestAuditPassesLargeBodiesThrough(t *testing.T) {
	sink := &captureSink{}
	payload := `{"note":"` + strings.Repeat("x", 2*maxAuditBody) + `"}`

	r := gin.New()
	r.POST("/orders",
		RequireAuth(users),
		Audit(sink, models.AuditActionCreate, models.AuditResourceOrder),
		func(c *gin.Context) {
			var body struct {
				Note string `json:"note"`
			}
			if err := c.ShouldBindJSON(&body); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"message": "invalid body"})
				return
			}
			c.JSON(http.StatusCreated, gin.H{"length": len(body.Note)})
		},
	)

	req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(payload))
	req.Header.Set("Authorization", "Bearer user-token")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.EqualValues(t, 2*maxAuditBody, decode(t, w)["length"])

	require.Len(t, sink.entries, 1)
	assert.True(t, sink.entries[0].Success)
	// the stored prefix is cut mid-document, so no body is recorded
	assert.Nil(t, sink.entries[0].Details["body"])
}

func TestAuditRecordsFailures(t *testing.T) {
	sink := &captureSink{}
	r := gin.New()
	r.PATCH("/orders/:id/status",
		RequireAuth(users),
		Audit(sink, models.AuditActionStatusChange, models.AuditResourceOrder),
		RequirePermission(rbac.ResourceOrders, rbac.ActionUpdate),
		func(c *gin.Context) { AbortWithError(c, apperrors.Validation("invalid status")) },
	)

	send := func(token string) {
		req := httptest.NewRequest(http.MethodPatch, "/orders/o9/status", strings.NewReader(`{"status":"bogus"}`))
		req.Header.Set("Authorization", "Bearer "+token)
		r.ServeHTTP(httptest.NewRecorder(), req)
	}
	send("user-token")
	send("admin-token")

	require.Len(t, sink.entries, 2)
	denied, invalid := sink.entries[0], sink.entries[1]

	assert.False(t, denied.Success)
	assert.Equal(t, "o9", denied.ResourceID)
	assert.Equal(t, "insufficient permissions", denied.ErrorMessage)
	assert.Equal(t, http.StatusForbidden, denied.Details["statusCode"])

	assert.False(t, invalid.Success)
	assert.Equal(t, "invalid status", invalid.ErrorMessage)
	assert.Equal(t, http.StatusBadRequest, invalid.Details["statusCode"])
}

func TestAuditFallsBackToStatusText(t *testing.T) {
	sink := &captureSink{}
	r := gin.New()
	r.DELETE("/admin/orders/:id",
		RequireAuth(users),
		Audit(sink, models.AuditActionDelete, models.AuditResourceOrder),
		func(c *gin.Context) { c.Status(http.StatusNotFound) },
	)

	req := httptest.NewRequest(http.MethodDelete, "/admin/orders/o1", nil)
	req.Header.Set("Authorization", "Bearer admin-token")
	r.ServeHTTP(httptest.NewRecorder(), req)

	require.Len(t, sink.entries, 1)
	assert.Equal(t, "Not Found", sink.entries[0].ErrorMessage)
	assert.Nil(t, sink.entries[0].Details["body"])
}

func TestRequestIDGenerated(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), Metrics(metrics.NewDiscard()))
	r.GET("/x", func(c *gin.Context) { c.String(http.StatusOK, GetRequestID(c)) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	id := w.Header().Get(RequestIDHeader)
	assert.Len(t, id, 36)
	assert.Equal(t, id, w.Body.String())
}
