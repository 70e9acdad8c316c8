package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"techfix-backend/internal/ratelimit"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(limiter *ratelimit.Limiter) *gin.Engine {
	router := gin.New()
	router.Use(RateLimitMiddleware(limiter))
	router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})
	return router
}

func doGet(router *gin.Engine, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRateLimitHeaders(t *testing.T) {
	router := newRouter(ratelimit.New(5, time.Minute))

	w := doGet(router, map[string]string{"X-Forwarded-For": "10.0.0.1"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "5", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "4", w.Header().Get("X-RateLimit-Remaining"))
	assert.Empty(t, w.Header().Get("X-RateLimit-Reset"))
}

func TestRateLimitExceeded(t *testing.T) {
	router := newRouter(ratelimit.New(2, time.Minute))
	headers := map[string]string{"X-Forwarded-For": "10.0.0.2"}

	doGet(router, headers)
	doGet(router, headers)
	w := doGet(router, headers)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "Too Many Requests", w.Body.String())
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

	reset := w.Header().Get("X-RateLimit-Reset")
	require.NotEmpty(t, reset)
	_, err := time.Parse(time.RFC3339, reset)
	assert.NoError(t, err)
}

func TestRateLimitKeysAreIndependent(t *testing.T) {
	router := newRouter(ratelimit.New(1, time.Minute))

	first := doGet(router, map[string]string{"X-Forwarded-For": "10.0.0.3"})
	second := doGet(router, map[string]string{"X-Forwarded-For": "10.0.0.4"})
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusOK, second.Code)

	third := doGet(router, map[string]string{"X-Forwarded-For": "10.0.0.3"})
	assert.Equal(t, http.StatusTooManyRequests, third.Code)
}

func TestClientKeyDerivation(t *testing.T) {
	cases := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{"forwarded-for wins", map[string]string{"X-Forwarded-For": "1.1.1.1", "X-Real-IP": "2.2.2.2"}, "1.1.1.1"},
		{"first hop of forwarded chain", map[string]string{"X-Forwarded-For": "1.1.1.1, 9.9.9.9"}, "1.1.1.1"},
		{"real-ip fallback", map[string]string{"X-Real-IP": "2.2.2.2"}, "2.2.2.2"},
		{"no headers collapse to sentinel", nil, "unknown"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tc.headers {
				c.Request.Header.Set(k, v)
			}
			assert.Equal(t, tc.want, ClientKey(c))
		})
	}
}

func TestTicketRateLimitBody(t *testing.T) {
	router := gin.New()
	limiter := ratelimit.New(1, time.Minute)
	router.POST("/tickets", TicketRateLimitMiddleware(limiter), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})

	req := httptest.NewRequest(http.MethodPost, "/tickets", nil)
	req.Header.Set("X-Real-IP", "5.5.5.5")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.JSONEq(t, `{"error":"demasiados tickets enviados, intente nuevamente en un minuto"}`, w.Body.String())
}

func TestValidationMiddleware(t *testing.T) {
	router := gin.New()
	router.Use(ValidationMiddleware())
	router.POST("/x", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodPost, "/x", nil)
	req.Header.Set("Content-Type", "text/plain")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req = httptest.NewRequest(http.MethodPost, "/x", nil)
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	// GET requests are not content-type checked
	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

// Mirrors the global chain order in cmd/webserver: the limiter runs
// before content-type validation, so even requests that validation
// rejects are counted and carry the rate-limit headers.
func TestRateLimitRunsBeforeValidation(t *testing.T) {
	limiter := ratelimit.New(2, time.Minute)
	router := gin.New()
	router.Use(RateLimitMiddleware(limiter))
	router.Use(ValidationMiddleware())
	router.POST("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	post := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/x", nil)
		req.Header.Set("Content-Type", "text/plain")
		req.Header.Set("X-Real-IP", "6.6.6.6")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	// rejected by validation, but still counted and labelled
	first := post()
	assert.Equal(t, http.StatusBadRequest, first.Code)
	assert.Equal(t, "2", first.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Remaining"))

	second := post()
	assert.Equal(t, http.StatusBadRequest, second.Code)
	assert.Equal(t, "0", second.Header().Get("X-RateLimit-Remaining"))

	// budget is spent: the limiter answers before validation does
	third := post()
	assert.Equal(t, http.StatusTooManyRequests, third.Code)
	assert.Equal(t, "Too Many Requests", third.Body.String())
	assert.NotEmpty(t, third.Header().Get("X-RateLimit-Reset"))
}
