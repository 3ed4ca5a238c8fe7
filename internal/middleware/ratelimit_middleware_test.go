package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func rateLimitedRouter(rps float64, burst int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/ping", RateLimit(rps, burst), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router
}

func ping(router *gin.Engine, ip string) int {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = ip + ":12345"
	router.ServeHTTP(w, req)
	return w.Code
}

func TestRateLimit_BurstThenThrottle(t *testing.T) {
	// Refill is negligible within the test, so only the burst passes.
	router := rateLimitedRouter(0.001, 3)

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, ping(router, "10.0.0.1"), "request %d within burst", i)
	}
	assert.Equal(t, http.StatusTooManyRequests, ping(router, "10.0.0.1"))
}

func TestRateLimit_BucketsArePerIP(t *testing.T) {
	router := rateLimitedRouter(0.001, 1)

	assert.Equal(t, http.StatusOK, ping(router, "10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, ping(router, "10.0.0.1"))
	assert.Equal(t, http.StatusOK, ping(router, "10.0.0.2"))
}
