package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"github.com/unlockify/contentgen/pkg/models"
)

// TierLimits defines rate limits for each subscription tier
type TierLimits struct {
	RequestsPerMinute int
	Burst             int
}

// TierRateLimiter implements tier-based rate limiting. This is a per-instance
// burst guard against hammering; the daily generation quota is enforced
// separately and server-side.
type TierRateLimiter struct {
	// Limiters for authenticated users (by user ID)
	userLimiters map[string]*rate.Limiter
	// Limiters for unauthenticated users (by IP)
	ipLimiters map[string]*rate.Limiter
	mu         sync.RWMutex

	tierLimits map[models.PlanTier]TierLimits

	// Default limits for unauthenticated requests
	defaultLimits TierLimits
}

// NewTierRateLimiter creates a new tier-based rate limiter
func NewTierRateLimiter() *TierRateLimiter {
	trl := &TierRateLimiter{
		userLimiters: make(map[string]*rate.Limiter),
		ipLimiters:   make(map[string]*rate.Limiter),
		tierLimits: map[models.PlanTier]TierLimits{
			models.PlanFree: {
				RequestsPerMinute: 30,
				Burst:             5,
			},
			models.PlanPaid: {
				RequestsPerMinute: 120,
				Burst:             20,
			},
		},
		defaultLimits: TierLimits{
			RequestsPerMinute: 15,
			Burst:             3,
		},
	}

	go trl.cleanupLimiters()

	return trl
}

// getUserLimiter returns or creates a rate limiter for a user based on their tier
func (trl *TierRateLimiter) getUserLimiter(userID string, plan models.PlanTier) *rate.Limiter {
	trl.mu.Lock()
	defer trl.mu.Unlock()

	if limiter, exists := trl.userLimiters[userID]; exists {
		return limiter
	}

	limits, exists := trl.tierLimits[plan]
	if !exists {
		limits = trl.tierLimits[models.PlanFree]
	}

	rps := float64(limits.RequestsPerMinute) / 60.0
	limiter := rate.NewLimiter(rate.Limit(rps), limits.Burst)
	trl.userLimiters[userID] = limiter

	return limiter
}

// getIPLimiter returns or creates a rate limiter for an IP address
func (trl *TierRateLimiter) getIPLimiter(ip string) *rate.Limiter {
	trl.mu.Lock()
	defer trl.mu.Unlock()

	if limiter, exists := trl.ipLimiters[ip]; exists {
		return limiter
	}

	rps := float64(trl.defaultLimits.RequestsPerMinute) / 60.0
	limiter := rate.NewLimiter(rate.Limit(rps), trl.defaultLimits.Burst)
	trl.ipLimiters[ip] = limiter

	return limiter
}

// cleanupLimiters removes inactive limiters every 5 minutes
func (trl *TierRateLimiter) cleanupLimiters() {
	for {
		time.Sleep(5 * time.Minute)

		trl.mu.Lock()

		// A limiter with full burst tokens hasn't been used recently
		for userID, limiter := range trl.userLimiters {
			if limiter.Tokens() >= float64(limiter.Burst()) {
				delete(trl.userLimiters, userID)
			}
		}
		for ip, limiter := range trl.ipLimiters {
			if limiter.Tokens() >= float64(limiter.Burst()) {
				delete(trl.ipLimiters, ip)
			}
		}

		trl.mu.Unlock()
	}
}

// Middleware creates an Echo middleware for tier-based rate limiting
func (trl *TierRateLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			var limiter *rate.Limiter

			userID, hasUserID := c.Get(ContextUserID).(string)
			plan, hasPlan := c.Get(ContextUserPlan).(models.PlanTier)

			if hasUserID && userID != "" {
				if !hasPlan {
					plan = models.PlanFree
				}
				limiter = trl.getUserLimiter(userID, plan)
			} else {
				ip := c.RealIP()
				if ip == "" {
					ip = c.Request().RemoteAddr
				}
				limiter = trl.getIPLimiter(ip)
			}

			if !limiter.Allow() {
				tierInfo := "unauthenticated"
				if hasPlan {
					tierInfo = string(plan)
				}

				return c.JSON(http.StatusTooManyRequests, map[string]interface{}{
					"error":   "rate_limit_exceeded",
					"message": "Rate limit exceeded for " + tierInfo + " tier. Please try again later.",
					"tier":    tierInfo,
				})
			}

			return next(c)
		}
	}
}

// SetTierLimits allows customizing rate limits for a tier
func (trl *TierRateLimiter) SetTierLimits(plan models.PlanTier, requestsPerMinute, burst int) {
	trl.mu.Lock()
	defer trl.mu.Unlock()

	trl.tierLimits[plan] = TierLimits{
		RequestsPerMinute: requestsPerMinute,
		Burst:             burst,
	}
}
