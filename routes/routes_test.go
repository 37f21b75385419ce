package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/expensedecoder/api/config"
	"github.com/expensedecoder/api/handlers"
	"github.com/expensedecoder/api/middleware"
	"github.com/expensedecoder/api/storage"
)

const testSecret = "routes-test-secret-with-at-least-32-chars"

func init() {
	gin.SetMode(gin.TestMode)
}

type cannedGateway struct{ reply string }

func (g cannedGateway) Complete(ctx context.Context, system, prompt string) (string, error) {
	return g.reply, nil
}

func token(t *testing.T, sub string) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   sub,
		Audience:  jwt.ClaimStrings{"authenticated"},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

func newTestRouter(t *testing.T, limit int) (*gin.Engine, *handlers.WSHandler) {
	t.Helper()
	cfg := config.Default()
	cfg.AuthJWTSecret = testSecret

	ws := handlers.NewWSHandler()
	limiter := middleware.NewRateLimiter(limit, time.Minute)
	t.Cleanup(func() {
		limiter.Stop()
		ws.Close()
	})

	return NewRouter(Deps{
		Config:   cfg,
		Store:    storage.NewMemoryStore(),
		Gateway:  cannedGateway{reply: `[{"type":"tip","message":"Nice"}]`},
		WS:       ws,
		Verifier: middleware.NewTokenVerifier(cfg.AuthJWTSecret, cfg.AuthAudience),
		Limiter:  limiter,
	}), ws
}

func request(r http.Handler, method, path, tok, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealthIsPublic(t *testing.T) {
	r, _ := newTestRouter(t, 100)

	w := request(r, http.MethodGet, "/health", "", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, Version, body["version"])
}

func TestAPIRequiresToken(t *testing.T) {
	r, _ := newTestRouter(t, 100)

	assert.Equal(t, http.StatusUnauthorized, request(r, http.MethodGet, "/api/v1/expenses", "", "").Code)
	assert.Equal(t, http.StatusUnauthorized, request(r, http.MethodGet, "/api/v1/expenses", "garbage", "").Code)
}

func TestExpenseAndInsightFlow(t *testing.T) {
	r, _ := newTestRouter(t, 100)
	tok := token(t, "user-1")

	w := request(r, http.MethodPost, "/api/v1/expenses", tok, `{"amount": 20, "category": "Food"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	w = request(r, http.MethodPost, "/api/v1/insights/analyze", tok, `{"userId":"user-1"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"outcome":"model"`)

	w = request(r, http.MethodGet, "/api/v1/insights/latest", tok, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"message":"Nice"`)

	// another user sees nothing
	w = request(r, http.MethodGet, "/api/v1/expenses", token(t, "user-2"), "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestRateLimitPerUser(t *testing.T) {
	r, _ := newTestRouter(t, 2)
	tok := token(t, "user-1")

	assert.Equal(t, http.StatusOK, request(r, http.MethodGet, "/api/v1/expenses", tok, "").Code)
	assert.Equal(t, http.StatusOK, request(r, http.MethodGet, "/api/v1/expenses", tok, "").Code)
	assert.Equal(t, http.StatusTooManyRequests, request(r, http.MethodGet, "/api/v1/expenses", tok, "").Code)
	assert.Equal(t, http.StatusOK, request(r, http.MethodGet, "/api/v1/expenses", token(t, "user-2"), "").Code)
}

func TestWebSocketRefresh(t *testing.T) {
	r, ws := newTestRouter(t, 100)
	srv := httptest.NewServer(r)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/ws?token=" + token(t, "user-1")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return ws.M.Len() == 1 }, 2*time.Second, 10*time.Millisecond)

	// events for other users are not delivered
	ws.Notify("user-2", handlers.EventExpensesUpdated)

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/v1/expenses", strings.NewReader(`{"amount": 5, "category": "Coffee"}`))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token(t, "user-1"))
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"expenses_updated"}`, string(msg))
}
