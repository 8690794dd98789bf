package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/storefront/internal/notification/application"
	"github.com/wyfcoding/storefront/internal/notification/domain"
	"github.com/wyfcoding/storefront/internal/notification/infrastructure/persistence/mysql"
	"github.com/wyfcoding/storefront/pkg/db"
	"github.com/wyfcoding/storefront/pkg/metrics"
	"github.com/wyfcoding/storefront/pkg/middleware"
)

type directory struct{}

func (directory) Lookup(_ context.Context, id string) (*domain.Recipient, error) {
	if id != "u1" {
		return nil, nil
	}
	return &domain.Recipient{ID: "u1", Name: "Ada", Email: "ada@example.com"}, nil
}

func (directory) Admins(context.Context) ([]domain.Recipient, error) {
	return nil, nil
}

type recordingSender struct {
	mu   sync.Mutex
	sent []domain.Email
}

func (s *recordingSender) Send(_ context.Context, e domain.Email) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, e)
	return nil
}

func newRouter(t *testing.T) (*gin.Engine, *application.DeliveryQueue, *recordingSender) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	d, err := db.OpenMemory(t.Name())
	require.NoError(t, err)
	require.NoError(t, d.AutoMigrate(&mysql.NotificationModel{}))
	t.Cleanup(func() { _ = d.Close() })

	q := application.NewDeliveryQueue(application.QueueConfig{Workers: 1, QueueSize: 16, MaxTries: 1, RetryInterval: time.Millisecond}, metrics.Nop{})
	q.Start()
	t.Cleanup(q.Close)

	s := &recordingSender{}
	h := NewNotificationHandler(application.NewDispatcher(mysql.NewNotificationRepository(d.DB), directory{}, s, nil, q, metrics.Nop{}))

	r := gin.New()
	r.Use(func(c *gin.Context) {
		middleware.SetIdentity(c, middleware.Identity{UserID: c.GetHeader("X-User"), Role: c.GetHeader("X-Role")})
		c.Next()
	})
	api := r.Group("/api")
	h.RegisterRoutes(api)
	h.RegisterAdminRoutes(api.Group("/admin"))
	return r, q, s
}

func do(r *gin.Engine, method, path, user, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequestWithContext(context.Background(), method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User", user)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Code   string          `json:"code"`
	Data   json.RawMessage `json:"data"`
	Fields []string        `json:"fields"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var e envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &e))
	return e
}

func unread(t *testing.T, r *gin.Engine, user string) int64 {
	t.Helper()
	w := do(r, http.MethodGet, "/api/notifications/unread-count", user, "")
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Count int64 `json:"count"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &body))
	return body.Count
}

func TestSendListAndMarkRead(t *testing.T) {
	r, q, sender := newRouter(t)

	w := do(r, http.MethodPost, "/api/admin/notifications", "a1", `{"userId":"u1","message":"Your refund is on the way"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		ID   string `json:"id"`
		Type string `json:"type"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &created))
	assert.Equal(t, "admin", created.Type)
	assert.Equal(t, int64(1), unread(t, r, "u1"))

	w = do(r, http.MethodGet, "/api/notifications", "u1", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list []json.RawMessage
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &list))
	assert.Len(t, list, 1)

	w = do(r, http.MethodPut, "/api/notifications/"+created.ID+"/read", "u2", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	for range 2 {
		w = do(r, http.MethodPut, "/api/notifications/"+created.ID+"/read", "u1", "")
		assert.Equal(t, http.StatusOK, w.Code)
	}
	assert.Equal(t, int64(0), unread(t, r, "u1"))

	q.Close()
	sender.mu.Lock()
	defer sender.mu.Unlock()
	require.Len(t, sender.sent, 1)
	assert.Equal(t, []string{"ada@example.com"}, sender.sent[0].To)
}

func TestSendToUser_Validation(t *testing.T) {
	r, _, _ := newRouter(t)

	w := do(r, http.MethodPost, "/api/admin/notifications", "a1", `{"userId":"u1"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/api/admin/notifications", "a1", `{`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSendEmail(t *testing.T) {
	r, q, sender := newRouter(t)

	w := do(r, http.MethodPost, "/api/admin/emails", "a1", `{"to":["ops@example.com"],"subject":"Stock report","html":"<p>ok</p>"}`)
	assert.Equal(t, http.StatusAccepted, w.Code)

	w = do(r, http.MethodPost, "/api/admin/emails", "a1", `{"to":["not-an-email"],"subject":"x","html":"y"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/api/admin/emails", "a1", `{"to":["ops@example.com"]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.ElementsMatch(t, []string{"subject", "html"}, decode(t, w).Fields)

	q.Close()
	sender.mu.Lock()
	defer sender.mu.Unlock()
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "Stock report", sender.sent[0].Subject)
}
