// Package quota enforces the free-plan daily generation limit.
//
// The counter is server-authoritative: one Redis key per user per calendar
// day, incremented atomically only after a confirmed billable generation.
// The date-keyed scheme gives the implicit midnight rollover; keys expire on
// their own two days later.
package quota

import (
	"context"
	"fmt"
	"time"

	"github.com/unlockify/contentgen/pkg/cache"
)

const keyTTL = 48 * time.Hour

// Limiter tracks per-day generation counts for free-plan users.
type Limiter struct {
	cache *cache.Client
	limit int
	now   func() time.Time
}

// New creates a Limiter with the given daily limit.
func New(c *cache.Client, limit int) *Limiter {
	if limit <= 0 {
		limit = 5
	}
	return &Limiter{cache: c, limit: limit, now: time.Now}
}

// WithClock overrides the clock, for tests.
func (l *Limiter) WithClock(now func() time.Time) *Limiter {
	l.now = now
	return l
}

// Limit returns the configured daily limit.
func (l *Limiter) Limit() int {
	return l.limit
}

func (l *Limiter) key(userID string) string {
	return fmt.Sprintf("quota:%s:%s", userID, l.now().Format("2006-01-02"))
}

// Used returns the number of successful generations recorded today.
// Side-effect free: repeated calls never change the count.
func (l *Limiter) Used(ctx context.Context, userID string) (int, error) {
	return l.cache.GetInt(ctx, l.key(userID))
}

// Allow reports whether another generation is permitted today.
func (l *Limiter) Allow(ctx context.Context, userID string) (bool, error) {
	used, err := l.Used(ctx, userID)
	if err != nil {
		return false, err
	}
	return used < l.limit, nil
}

// RecordSuccess increments today's counter. Called only after the
// orchestrator confirms a successful, billable generation. Never decremented.
func (l *Limiter) RecordSuccess(ctx context.Context, userID string) error {
	_, err := l.cache.Incr(ctx, l.key(userID), keyTTL)
	return err
}
