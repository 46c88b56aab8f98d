package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestLoginRateLimiter_Allow(t *testing.T) {
	limiter := NewLoginRateLimiter(2, time.Minute)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	ok, _ := limiter.allow("10.0.0.1", now)
	assert.True(t, ok)
	ok, _ = limiter.allow("10.0.0.1", now.Add(10*time.Second))
	assert.True(t, ok)

	ok, retryAfter := limiter.allow("10.0.0.1", now.Add(20*time.Second))
	assert.False(t, ok)
	assert.Equal(t, 40*time.Second, retryAfter)

	// Other clients have their own budget.
	ok, _ = limiter.allow("10.0.0.2", now.Add(20*time.Second))
	assert.True(t, ok)

	// The oldest hit leaves the window.
	ok, _ = limiter.allow("10.0.0.1", now.Add(61*time.Second))
	assert.True(t, ok)
}

func TestLoginRateLimiter_Defaults(t *testing.T) {
	limiter := NewLoginRateLimiter(0, 0)
	assert.Equal(t, 10, limiter.maxHits)
	assert.Equal(t, time.Minute, limiter.window)
}

func TestLoginRateLimiter_Middleware(t *testing.T) {
	limiter := NewLoginRateLimiter(1, time.Minute)
	fixed := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return fixed }

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/auth/token", limiter.Middleware(), func(c *gin.Context) { c.Status(http.StatusOK) })

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/auth/token", nil)
		req.RemoteAddr = "192.0.2.1:1234"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusOK, send().Code)

	w := send()
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"error":"Too many login attempts"}`, w.Body.String())
}
