package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	accountdomain "github.com/wyfcoding/storefront/internal/account/domain"
	catalogdomain "github.com/wyfcoding/storefront/internal/catalog/domain"
	catalogmysql "github.com/wyfcoding/storefront/internal/catalog/infrastructure/persistence/mysql"
	inventoryapp "github.com/wyfcoding/storefront/internal/inventory/application"
	inventorymysql "github.com/wyfcoding/storefront/internal/inventory/infrastructure/persistence/mysql"
	notificationdomain "github.com/wyfcoding/storefront/internal/notification/domain"
	"github.com/wyfcoding/storefront/internal/order/application"
	"github.com/wyfcoding/storefront/internal/order/infrastructure/persistence/mysql"
	"github.com/wyfcoding/storefront/pkg/db"
	"github.com/wyfcoding/storefront/pkg/metrics"
	"github.com/wyfcoding/storefront/pkg/middleware"
	"github.com/wyfcoding/storefront/pkg/outbox"
)

type accounts map[string]*accountdomain.Account

func (a accounts) Lookup(_ context.Context, id string) (*accountdomain.Account, error) {
	return a[id], nil
}

type silentNotifier struct{}

func (silentNotifier) NotifyUser(context.Context, string, string, notificationdomain.Type) (*notificationdomain.Notification, error) {
	return &notificationdomain.Notification{}, nil
}

func (silentNotifier) NotifyAdmins(context.Context, string) ([]*notificationdomain.Notification, error) {
	return nil, nil
}

func newRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	d, err := db.OpenMemory(t.Name())
	require.NoError(t, err)
	require.NoError(t, d.AutoMigrate(&catalogmysql.ProductModel{}, &inventorymysql.ReservationModel{}, &mysql.OrderModel{}))
	t.Cleanup(func() { _ = d.Close() })

	products := catalogmysql.NewProductRepository(d.DB)
	require.NoError(t, products.Save(context.Background(), &catalogdomain.Product{
		ID: "p1", Name: "Phone", Price: decimal.NewFromInt(1000), Category: "Electronics", Stock: 5,
	}))
	people := accounts{
		"u1": {ID: "u1", Name: "Ada", Email: "ada@example.com"},
		"u2": {ID: "u2", Name: "Bob", Email: "bob@example.com"},
	}

	orders := mysql.NewOrderRepository(d.DB)
	h := NewOrderHandler(
		application.NewOrderCommandService(application.Deps{
			Tx:       d,
			Orders:   orders,
			Products: products,
			Accounts: people,
			Stock:    inventoryapp.NewLedger(inventorymysql.NewStockStore(d.DB), metrics.Nop{}),
			Notifier: silentNotifier{},
			Events:   outbox.Nop{},
		}),
		application.NewOrderQueryService(orders, products, people),
	)

	r := gin.New()
	// 测试中以请求头模拟已认证用户
	r.Use(func(c *gin.Context) {
		middleware.SetIdentity(c, middleware.Identity{UserID: c.GetHeader("X-User"), Role: c.GetHeader("X-Role")})
		c.Next()
	})
	api := r.Group("/api")
	h.RegisterRoutes(api)
	h.RegisterAdminRoutes(api.Group("/admin"))
	return r
}

func do(r *gin.Engine, method, path, user, role, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequestWithContext(context.Background(), method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User", user)
	req.Header.Set("X-Role", role)
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

const orderBody = `{"productId":"p1","quantity":3,"deliveryOption":"delivery","paymentMethod":"card",
	"deliveryAddress":{"state":"Lagos","street":"2 Bourdillon"}}`

func TestCreateOrder_UserFromIdentity(t *testing.T) {
	r := newRouter(t)

	w := do(r, http.MethodPost, "/api/orders", "u1", "customer", `{"userId":"u2",`+orderBody[1:])
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		ID          string `json:"id"`
		UserID      string `json:"userId"`
		TotalAmount string `json:"totalAmount"`
		Status      string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &created))
	assert.Equal(t, "u1", created.UserID)
	assert.Equal(t, "3150", created.TotalAmount)
	assert.Equal(t, "pending", created.Status)

	w = do(r, http.MethodGet, "/api/orders/"+created.ID, "u2", "customer", "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(r, http.MethodGet, "/api/orders/"+created.ID, "u1", "customer", "")
	require.Equal(t, http.StatusOK, w.Code)
	var view struct {
		ProductName  string `json:"productName"`
		CustomerName string `json:"customerName"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &view))
	assert.Equal(t, "Phone", view.ProductName)
	assert.Equal(t, "Ada", view.CustomerName)
}

func TestCreateOrder_Errors(t *testing.T) {
	r := newRouter(t)

	w := do(r, http.MethodPost, "/api/orders", "u1", "customer", `{"productId":"p1"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.ElementsMatch(t, []string{"quantity", "deliveryOption", "paymentMethod", "deliveryAddress"}, decode(t, w).Fields)

	w = do(r, http.MethodPost, "/api/orders", "u1", "customer", `{not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/api/orders", "u1", "customer", strings.Replace(orderBody, `"quantity":3`, `"quantity":9`, 1))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "insufficient_stock", decode(t, w).Code)
}

func TestAdminTransitionAndList(t *testing.T) {
	r := newRouter(t)

	w := do(r, http.MethodPost, "/api/orders", "u1", "customer", orderBody)
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &created))

	w = do(r, http.MethodPut, "/api/admin/orders/"+created.ID+"/status", "a1", "admin", `{"status":"delivered","message":"Shipped via courier"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated struct {
		Status       string `json:"status"`
		AdminMessage string `json:"adminMessage"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &updated))
	assert.Equal(t, "delivered", updated.Status)
	assert.Equal(t, "Shipped via courier", updated.AdminMessage)

	w = do(r, http.MethodPut, "/api/admin/orders/"+created.ID+"/status", "a1", "admin", `{"status":"lost"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPut, "/api/admin/orders/ORD-missing/status", "a1", "admin", `{"status":"confirmed"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(r, http.MethodGet, "/api/admin/orders", "a1", "admin", "")
	require.Equal(t, http.StatusOK, w.Code)
	var all []json.RawMessage
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &all))
	assert.Len(t, all, 1)

	w = do(r, http.MethodGet, "/api/orders", "u2", "customer", "")
	require.Equal(t, http.StatusOK, w.Code)
	var mine []json.RawMessage
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &mine))
	assert.Empty(t, mine)
}
