package economy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"starledger/internal/auth"
	"starledger/internal/idempotency"
	"starledger/internal/rules"
	"starledger/internal/wallet"
)

func setupRouter(svc Service, accountID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	h := NewHandler(svc)
	group := router.Group("/star-economy")
	group.Use(func(c *gin.Context) {
		if accountID != "" {
			auth.SetAccountID(c, accountID)
		}
		c.Next()
	})
	h.RegisterRoutes(group)
	h.RegisterAdminRoutes(router.Group("/admin"))
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}, headers map[string]string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return w, out
}

func newTestService() Service {
	return NewService(wallet.NewMemoryRepository(100), rules.NewDefaultRegistry(), idempotency.NewMemoryStore(time.Hour), Options{})
}

func TestHandler_Balance(t *testing.T) {
	router := setupRouter(newTestService(), "u1")

	w, body := doJSON(t, router, http.MethodGet, "/star-economy/balance", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])

	data := body["data"].(map[string]interface{})
	assert.Equal(t, float64(100), data["balance"])
	assert.Equal(t, float64(100), data["totalEarned"])
	assert.Equal(t, float64(0), data["totalSpent"])
	assert.Contains(t, data, "lastUpdated")
}

func TestHandler_Unauthenticated(t *testing.T) {
	router := setupRouter(newTestService(), "")

	w, body := doJSON(t, router, http.MethodGet, "/star-economy/balance", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, false, body["success"])
}

func TestHandler_EarnSpendTransactions(t *testing.T) {
	router := setupRouter(newTestService(), "u1")

	w, body := doJSON(t, router, http.MethodPost, "/star-economy/earn", gin.H{"action": "daily_login", "amount": 20}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(10), body["amount"])
	assert.Equal(t, float64(110), body["newBalance"])
	tx := body["transaction"].(map[string]interface{})
	assert.Equal(t, "earn", tx["type"])
	assert.Equal(t, "completed", tx["status"])

	w, body = doJSON(t, router, http.MethodPost, "/star-economy/spend",
		gin.H{"amount": 30, "purpose": "music", "description": "buy music"}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, float64(80), body["newBalance"])

	w, body = doJSON(t, router, http.MethodPost, "/star-economy/spend",
		gin.H{"amount": 1000, "purpose": "music", "description": "buy album"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, KindInsufficientBalance, body["kind"])
	assert.Equal(t, "insufficient balance", body["error"])

	w, body = doJSON(t, router, http.MethodGet, "/star-economy/transactions", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := body["data"].(map[string]interface{})
	txs := data["transactions"].([]interface{})
	require.Len(t, txs, 2)
	assert.Equal(t, "buy music", txs[0].(map[string]interface{})["description"])
	assert.Equal(t, float64(2), data["total"])
	assert.Equal(t, false, data["hasMore"])

	w, body = doJSON(t, router, http.MethodGet, "/star-economy/transactions?limit=1", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	data = body["data"].(map[string]interface{})
	assert.Len(t, data["transactions"], 1)
	assert.Equal(t, true, data["hasMore"])
}

func TestHandler_ErrorMapping(t *testing.T) {
	router := setupRouter(newTestService(), "u1")

	tests := []struct {
		name   string
		path   string
		body   interface{}
		status int
		kind   string
	}{
		{"malformed json", "/star-economy/earn", `{"action":`, http.StatusBadRequest, KindInvalidRequest},
		{"missing action", "/star-economy/earn", gin.H{}, http.StatusBadRequest, KindInvalidRequest},
		{"unknown rule", "/star-economy/earn", gin.H{"action": "nope"}, http.StatusBadRequest, KindInvalidRule},
		{"negative earn", "/star-economy/earn", gin.H{"action": "create_script", "amount": -1}, http.StatusBadRequest, KindInvalidAmount},
		{"overflowing earn", "/star-economy/earn", gin.H{"action": "create_script", "amount": int64(math.MaxInt64)}, http.StatusBadRequest, KindInvalidAmount},
		{"missing purpose", "/star-economy/spend", gin.H{"amount": 5, "description": "d"}, http.StatusBadRequest, KindInvalidRequest},
		{"zero spend", "/star-economy/spend", gin.H{"amount": 0, "purpose": "p", "description": "d"}, http.StatusBadRequest, KindInvalidAmount},
		{"overlong purpose", "/star-economy/spend", gin.H{"amount": 1, "purpose": string(make([]byte, 65)), "description": "d"}, http.StatusBadRequest, KindInvalidRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, body := doJSON(t, router, http.MethodPost, tt.path, tt.body, nil)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.kind, body["kind"])
			assert.Equal(t, false, body["success"])
		})
	}
}

func TestHandler_BadPaging(t *testing.T) {
	router := setupRouter(newTestService(), "u1")

	w, body := doJSON(t, router, http.MethodGet, "/star-economy/transactions?limit=abc", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, KindInvalidRequest, body["kind"])

	w, _ = doJSON(t, router, http.MethodGet, "/star-economy/transactions?offset=-1", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_IdempotencyKeyReplays(t *testing.T) {
	router := setupRouter(newTestService(), "u1")
	headers := map[string]string{IdempotencyHeader: "abc"}
	req := gin.H{"amount": 10, "purpose": "p", "description": "d"}

	w1, first := doJSON(t, router, http.MethodPost, "/star-economy/spend", req, headers)
	require.Equal(t, http.StatusOK, w1.Code)
	w2, second := doJSON(t, router, http.MethodPost, "/star-economy/spend", req, headers)
	require.Equal(t, http.StatusOK, w2.Code)

	assert.Equal(t, first["transaction"], second["transaction"])
	assert.Equal(t, float64(90), second["newBalance"])

	_, bal := doJSON(t, router, http.MethodGet, "/star-economy/balance", nil, nil)
	assert.Equal(t, float64(90), bal["data"].(map[string]interface{})["balance"])
}

func TestHandler_DailyLimitIs429(t *testing.T) {
	svc := NewService(wallet.NewMemoryRepository(0), rules.NewDefaultRegistry(), nil, Options{DailyCapMode: "cumulative"})
	router := setupRouter(svc, "u1")

	w, _ := doJSON(t, router, http.MethodPost, "/star-economy/earn", gin.H{"action": "daily_login"}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, body := doJSON(t, router, http.MethodPost, "/star-economy/earn", gin.H{"action": "daily_login"}, nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, KindDailyLimitReached, body["kind"])
}

func TestHandler_InternalErrorIsNotEchoed(t *testing.T) {
	repo := new(MockRepository)
	repo.On("GetOrCreate", mock.Anything, "u1").Return(nil, errors.New("pq: password authentication failed"))
	router := setupRouter(NewService(repo, rules.NewDefaultRegistry(), nil, Options{}), "u1")

	w, body := doJSON(t, router, http.MethodGet, "/star-economy/balance", nil, nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, KindInternal, body["kind"])
	assert.NotContains(t, body["error"], "password")
}

func TestHandler_Rules(t *testing.T) {
	svc := newTestService()
	router := setupRouter(svc, "u1")

	w, body := doJSON(t, router, http.MethodGet, "/star-economy/rules", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["data"], 3)

	w, body = doJSON(t, router, http.MethodPatch, "/admin/rules/share_work", gin.H{"active": false}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, body["data"].(map[string]interface{})["active"])

	_, body = doJSON(t, router, http.MethodGet, "/star-economy/rules", nil, nil)
	assert.Len(t, body["data"], 2)

	w, body = doJSON(t, router, http.MethodPatch, "/admin/rules/share_work", gin.H{}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, KindInvalidRequest, body["kind"])

	w, body = doJSON(t, router, http.MethodPatch, "/admin/rules/unknown", gin.H{"active": true}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, KindInvalidRule, body["kind"])
}

func TestHandler_AdminAccount(t *testing.T) {
	svc := newTestService()
	router := setupRouter(svc, "u1")

	w, body := doJSON(t, router, http.MethodGet, "/admin/accounts/ghost", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, KindNotFound, body["kind"])

	_, err := svc.Balance(context.Background(), "u2")
	require.NoError(t, err)

	w, body = doJSON(t, router, http.MethodGet, "/admin/accounts/u2", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "u2", data["account_id"])
	assert.Equal(t, float64(100), data["balance"])
}
