package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/unlockify/contentgen/pkg/models"
)

func TestTierRateLimiter_FreeTierBurst(t *testing.T) {
	trl := NewTierRateLimiter()
	e := echo.New()

	handler := trl.Middleware()(func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})

	// Free tier allows a burst of 5
	for i := 0; i < 7; i++ {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.Set(ContextUserID, "user-1")
		c.Set(ContextUserPlan, models.PlanFree)

		err := handler(c)
		assert.NoError(t, err)
		if i < 5 {
			assert.Equal(t, http.StatusOK, rec.Code)
		} else {
			assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		}
	}
}

func TestTierRateLimiter_PaidTierGetsLargerBurst(t *testing.T) {
	trl := NewTierRateLimiter()
	e := echo.New()

	handler := trl.Middleware()(func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})

	successCount := 0
	for i := 0; i < 25; i++ {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.Set(ContextUserID, "user-2")
		c.Set(ContextUserPlan, models.PlanPaid)

		if err := handler(c); err == nil && rec.Code == http.StatusOK {
			successCount++
		}
	}
	assert.Equal(t, 20, successCount)
}

func TestTierRateLimiter_UnauthenticatedUsesIP(t *testing.T) {
	trl := NewTierRateLimiter()
	e := echo.New()

	handler := trl.Middleware()(func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})

	blocked := false
	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.RemoteAddr = "203.0.113.7:1234"
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		assert.NoError(t, handler(c))
		if rec.Code == http.StatusTooManyRequests {
			blocked = true
		}
	}
	assert.True(t, blocked, "IP burst of 3 should block within 5 requests")
}

func TestTierRateLimiter_IsolatesUsers(t *testing.T) {
	trl := NewTierRateLimiter()
	e := echo.New()

	handler := trl.Middleware()(func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})

	// Exhaust user-a's burst
	for i := 0; i < 6; i++ {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.Set(ContextUserID, "user-a")
		c.Set(ContextUserPlan, models.PlanFree)
		_ = handler(c)
	}

	// user-b is unaffected
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(ContextUserID, "user-b")
	c.Set(ContextUserPlan, models.PlanFree)

	assert.NoError(t, handler(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}
