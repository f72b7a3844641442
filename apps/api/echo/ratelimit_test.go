package echoapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func Test_rateLimiter(t *testing.T) {
	now := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	rl := newRateLimiter(1, 2)
	rl.now = func() time.Time { return now }

	e := echo.New()
	e.HTTPErrorHandler = newAppHTTPErrorHandler(nil, nil, func() {})
	e.POST("/login", func(ctx echo.Context) error { return ctx.NoContent(http.StatusOK) }, rl.middleware())

	hit := func(ip string) int {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = ip + ":1234"
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec.Code
	}

	// burst, then throttled
	assert.Equal(t, http.StatusOK, hit("10.0.0.1"))
	assert.Equal(t, http.StatusOK, hit("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, hit("10.0.0.1"))

	// other clients are not affected
	assert.Equal(t, http.StatusOK, hit("10.0.0.2"))

	// tokens refill over time
	now = now.Add(time.Second)
	assert.Equal(t, http.StatusOK, hit("10.0.0.1"))

	// stale clients are evicted
	now = now.Add(clientTTL + time.Second)
	hit("10.0.0.3")
	rl.mu.Lock()
	assert.Len(t, rl.clients, 1)
	assert.Equal(t, now, rl.lastSweep)
	rl.mu.Unlock()

	// no sweep until clientTTL has passed since the last one
	swept := now
	now = now.Add(time.Minute)
	hit("10.0.0.4")
	rl.mu.Lock()
	assert.Len(t, rl.clients, 2)
	assert.Equal(t, swept, rl.lastSweep)
	rl.mu.Unlock()

	now = swept.Add(clientTTL + 2*time.Second)
	hit("10.0.0.4")
	rl.mu.Lock()
	assert.Len(t, rl.clients, 1)
	assert.Contains(t, rl.clients, "10.0.0.4")
	assert.Equal(t, now, rl.lastSweep)
	rl.mu.Unlock()
}

func Test_rateLimiter_disabled(t *testing.T) {
	rl := newRateLimiter(0, 0)
	lim := rl.get("10.0.0.1")
	for range 100 {
		assert.True(t, lim.Allow())
	}
}
