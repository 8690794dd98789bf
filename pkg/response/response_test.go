package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/storefront/pkg/xerrors"
)

func TestError_MapsKinds(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"validation", xerrors.MissingFields("name"), http.StatusBadRequest, "validation"},
		{"not found", xerrors.NotFound("order", "ORD-1"), http.StatusNotFound, "not_found"},
		{"insufficient stock", xerrors.InsufficientStock("p1", 3, 1), http.StatusConflict, "insufficient_stock"},
		{"forbidden", xerrors.Forbidden("not yours"), http.StatusForbidden, "forbidden"},
		{"unauthorized", xerrors.Unauthorized("login required"), http.StatusUnauthorized, "unauthorized"},
		{"transport hidden", xerrors.Transport(errors.New("dial"), "smtp"), http.StatusInternalServerError, "internal"},
		{"plain error hidden", errors.New("db down"), http.StatusInternalServerError, "internal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			Error(c, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			var body Body
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantCode, body.Code)
		})
	}
}

func TestError_ValidationCarriesFields(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", nil)

	Error(c, xerrors.MissingFields("productId", "quantity"))

	var body Body
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, []string{"productId", "quantity"}, body.Fields)
	assert.Equal(t, "Missing required fields: productId, quantity", body.Message)
}
