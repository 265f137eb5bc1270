package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"horror-story-server/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(log *zap.Logger, mws ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(mws...)
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": GetRequestID(c)})
	})
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/fail", func(c *gin.Context) { c.Status(http.StatusBadGateway) })
	return r
}

func TestRequestID_GeneratedWhenMissing(t *testing.T) {
	r := newRouter(zap.NewNop(), RequestID())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	id := w.Header().Get(RequestIDHeader)
	require.NotEmpty(t, id)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, id, body["id"])
}

func TestRequestID_KeepsIncoming(t *testing.T) {
	r := newRouter(zap.NewNop(), RequestID())
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

func TestNoStore(t *testing.T) {
	r := newRouter(zap.NewNop(), NoStore())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}

func TestGinZapLogger_Levels(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	log := zap.New(core)
	r := newRouter(log, RequestID(), GinZapLogger(log))

	for _, path := range []string{"/ping", "/health", "/fail"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	entries := logs.All()
	require.Len(t, entries, 2, "/health не логируется")
	assert.Equal(t, "Request completed", entries[0].Message)
	assert.Equal(t, "Server error", entries[1].Message)
	assert.NotEmpty(t, entries[0].ContextMap()["request_id"])
}

func TestRateLimiter_InMemory(t *testing.T) {
	store := NewRateLimitStore(nil, 2)
	r := newRouter(zap.NewNop(), RateLimiter(store, zap.NewNop()))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		codes = append(codes, w.Code)
		if w.Code == http.StatusTooManyRequests {
			var resp models.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.False(t, resp.OK)
			assert.Equal(t, models.ErrCodeRateLimited, resp.Code)
		}
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func preflightRequest(origin string) *http.Request {
	req := httptest.NewRequest(http.MethodOptions, "/api/horror", nil)
	req.Header.Set("Origin", origin)
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Content-Type")
	return req
}

func newCORSRouter(origins []string) *gin.Engine {
	r := gin.New()
	r.Use(CORS(origins))
	r.POST("/api/horror", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestCORS_PreflightAllowAll(t *testing.T) {
	for _, origins := range [][]string{nil, {"*"}} {
		w := httptest.NewRecorder()
		newCORSRouter(origins).ServeHTTP(w, preflightRequest("https://hyesugi.pages.dev"))

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
		methods := w.Header().Get("Access-Control-Allow-Methods")
		for _, m := range []string{"GET", "POST", "OPTIONS"} {
			assert.Contains(t, methods, m)
		}
		assert.NotContains(t, methods, "DELETE")
		headers := w.Header().Get("Access-Control-Allow-Headers")
		assert.Contains(t, headers, "Content-Type")
		assert.Contains(t, headers, "Authorization")
	}
}

func TestCORS_ExplicitOrigins(t *testing.T) {
	r := newCORSRouter([]string{"https://hyesugi.pages.dev", "http://localhost:5173"})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, preflightRequest("http://localhost:5173"))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, preflightRequest("https://evil.example"))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_SimpleRequestHeaders(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/horror", nil)
	req.Header.Set("Origin", "https://hyesugi.pages.dev")
	w := httptest.NewRecorder()
	newCORSRouter(nil).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
