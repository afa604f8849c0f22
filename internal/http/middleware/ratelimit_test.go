package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	echo "github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLimited(t *testing.T, rps int) echo.HandlerFunc {
	t.Helper()
	mr := miniredis.RunT(t)
	rds := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rds.Close() })

	mw := RateLimitMiddleware(RateLimitConfig{
		Redis:          rds,
		RPS:            rps,
		Window:         time.Second,
		RetryAfterHint: true,
	})
	return mw(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
}

func doReq(t *testing.T, h echo.HandlerFunc, ip string) int {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = ip + ":1234"
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	require.NoError(t, h(c))
	return rec.Code
}

func TestRateLimitAllowsUnderLimit(t *testing.T) {
	h := newLimited(t, 3)
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, doReq(t, h, "10.0.0.1"))
	}
}

func TestRateLimitBlocksOverLimit(t *testing.T) {
	h := newLimited(t, 2)
	doReq(t, h, "10.0.0.1")
	doReq(t, h, "10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, doReq(t, h, "10.0.0.1"))
}

func TestRateLimitIsPerIP(t *testing.T) {
	h := newLimited(t, 1)
	assert.Equal(t, http.StatusOK, doReq(t, h, "10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, doReq(t, h, "10.0.0.1"))
	// A different caller is unaffected.
	assert.Equal(t, http.StatusOK, doReq(t, h, "10.0.0.2"))
}

func TestRateLimitDisabledWithoutRPS(t *testing.T) {
	h := newLimited(t, 0)
	for i := 0; i < 10; i++ {
		assert.Equal(t, http.StatusOK, doReq(t, h, "10.0.0.1"))
	}
}
