package generation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unlockify/contentgen/pkg/logger"
	"github.com/unlockify/contentgen/pkg/models"
)

// stubTextGenerator returns scripted replies in order and counts calls.
type stubTextGenerator struct {
	replies []string
	errs    []error
	calls   int
}

func (s *stubTextGenerator) GenerateJSON(ctx context.Context, system, payload string) (string, error) {
	idx := s.calls
	s.calls++
	if idx < len(s.errs) && s.errs[idx] != nil {
		return "", s.errs[idx]
	}
	if idx < len(s.replies) {
		return s.replies[idx], nil
	}
	return "", errors.New("stub exhausted")
}

// stubLimiter tracks quota state in memory.
type stubLimiter struct {
	used      int
	limit     int
	allowErr  error
	successes int
}

func (s *stubLimiter) Allow(ctx context.Context, userID string) (bool, error) {
	if s.allowErr != nil {
		return false, s.allowErr
	}
	return s.used < s.limit, nil
}

func (s *stubLimiter) RecordSuccess(ctx context.Context, userID string) error {
	s.used++
	s.successes++
	return nil
}

func newTestOrchestrator(text TextGenerator, limiter UsageLimiter) *Orchestrator {
	return NewOrchestrator(text, limiter, logger.Nop(),
		WithBackoff(time.Millisecond),
		WithCallTimeout(time.Second),
	)
}

var glowSalonForm = models.FormInput{
	BusinessType: "Salon",
	BusinessName: "Glow Salon",
	City:         "Pune",
	Language:     "Hinglish",
	Tone:         "Friendly",
	OfferDetails: "50% off bridal makeup",
}

func TestGenerate_SuccessFirstAttempt(t *testing.T) {
	text := &stubTextGenerator{replies: []string{validReply}}
	limiter := &stubLimiter{limit: 5}
	o := newTestOrchestrator(text, limiter)

	env := o.Generate(context.Background(), "user-1", models.FeatureInstagram, glowSalonForm, models.PlanFree)

	require.True(t, env.Success)
	assert.Equal(t, 1, text.calls)
	assert.Equal(t, 1, limiter.successes)
	assert.NotEmpty(t, env.UpgradeNote)

	posts, ok := env.Data["posts"].([]any)
	require.True(t, ok)
	assert.Len(t, posts, 1)
}

func TestGenerate_LimitReachedWithoutCapabilityCall(t *testing.T) {
	text := &stubTextGenerator{replies: []string{validReply}}
	limiter := &stubLimiter{used: 5, limit: 5}
	o := newTestOrchestrator(text, limiter)

	env := o.Generate(context.Background(), "user-1", models.FeatureInstagram, glowSalonForm, models.PlanFree)

	assert.True(t, env.Error)
	assert.Equal(t, models.CodeLimitReached, env.Code)
	assert.Equal(t, 0, text.calls, "quota exhaustion must not reach the capability")
	assert.Equal(t, models.PlanFree, env.UserPlan)
	assert.Equal(t, "instagram", env.Type)
}

func TestGenerate_SixthCallBlocked(t *testing.T) {
	text := &stubTextGenerator{replies: []string{validReply, validReply, validReply, validReply, validReply, validReply}}
	limiter := &stubLimiter{limit: 5}
	o := newTestOrchestrator(text, limiter)

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		env := o.Generate(ctx, "user-1", models.FeatureInstagram, glowSalonForm, models.PlanFree)
		require.True(t, env.Success, "generation %d", i+1)
	}

	env := o.Generate(ctx, "user-1", models.FeatureInstagram, glowSalonForm, models.PlanFree)
	assert.Equal(t, models.CodeLimitReached, env.Code)
	assert.Equal(t, 5, text.calls)
}

func TestGenerate_PaidPlanSkipsQuota(t *testing.T) {
	text := &stubTextGenerator{replies: []string{`{"success":true,"type":"calendar","user_plan":"paid","data":{"calendar":[]}}`}}
	limiter := &stubLimiter{used: 99, limit: 5}
	o := newTestOrchestrator(text, limiter)

	env := o.Generate(context.Background(), "user-1", models.FeatureCalendar, glowSalonForm, models.PlanPaid)

	assert.True(t, env.Success)
	assert.Equal(t, 0, limiter.successes, "paid generations are not billed against the free quota")
}

func TestGenerate_RetriesOnceOnInvalidJSON(t *testing.T) {
	text := &stubTextGenerator{replies: []string{"not json at all", validReply}}
	limiter := &stubLimiter{limit: 5}
	o := newTestOrchestrator(text, limiter)

	env := o.Generate(context.Background(), "user-1", models.FeatureInstagram, glowSalonForm, models.PlanFree)

	require.True(t, env.Success)
	assert.Equal(t, 2, text.calls, "exactly two capability calls")
	assert.Equal(t, 1, limiter.successes)
}

func TestGenerate_APIErrorAfterTwoFailures(t *testing.T) {
	text := &stubTextGenerator{replies: []string{"garbage one", "garbage two", validReply}}
	limiter := &stubLimiter{limit: 5}
	o := newTestOrchestrator(text, limiter)

	env := o.Generate(context.Background(), "user-1", models.FeatureInstagram, glowSalonForm, models.PlanFree)

	assert.True(t, env.Error)
	assert.Equal(t, models.CodeAPIError, env.Code)
	assert.Equal(t, 2, text.calls, "no more than two capability calls")
	assert.Equal(t, 0, limiter.successes)
}

func TestGenerate_TransportErrorThenSuccess(t *testing.T) {
	text := &stubTextGenerator{
		errs:    []error{errors.New("connection reset")},
		replies: []string{"", validReply},
	}
	limiter := &stubLimiter{limit: 5}
	o := newTestOrchestrator(text, limiter)

	env := o.Generate(context.Background(), "user-1", models.FeatureInstagram, glowSalonForm, models.PlanFree)

	require.True(t, env.Success)
	assert.Equal(t, 2, text.calls)
}

func TestGenerate_ModelErrorEnvelopeNotRetried(t *testing.T) {
	text := &stubTextGenerator{replies: []string{
		`{"error":true,"code":"INVALID_INPUT","message":"Required fields are missing."}`,
		validReply,
	}}
	limiter := &stubLimiter{limit: 5}
	o := newTestOrchestrator(text, limiter)

	env := o.Generate(context.Background(), "user-1", models.FeatureInstagram, glowSalonForm, models.PlanFree)

	assert.True(t, env.Error)
	assert.Equal(t, models.CodeInvalidInput, env.Code)
	assert.Equal(t, "Required fields are missing.", env.Message)
	assert.Equal(t, 1, text.calls, "error-indicated responses are not retried")
	assert.Equal(t, 0, limiter.successes)
}

func TestGenerate_QuotaStoreFailureIsNonFatal(t *testing.T) {
	text := &stubTextGenerator{replies: []string{validReply}}
	limiter := &stubLimiter{limit: 5, allowErr: errors.New("redis down")}
	o := newTestOrchestrator(text, limiter)

	env := o.Generate(context.Background(), "user-1", models.FeatureInstagram, glowSalonForm, models.PlanFree)

	assert.True(t, env.Success, "an unreadable quota store must not block generation")
}

func TestGenerate_DeadlineExceeded(t *testing.T) {
	text := &stubTextGenerator{errs: []error{context.DeadlineExceeded, context.DeadlineExceeded}, replies: []string{"", ""}}
	limiter := &stubLimiter{limit: 5}
	o := newTestOrchestrator(text, limiter)

	env := o.Generate(context.Background(), "user-1", models.FeatureInstagram, glowSalonForm, models.PlanFree)

	assert.True(t, env.Error)
	assert.Equal(t, models.CodeDeadlineExceeded, env.Code)
}

func TestGenerate_CanceledCallerContext(t *testing.T) {
	text := &stubTextGenerator{errs: []error{context.Canceled}, replies: []string{""}}
	limiter := &stubLimiter{limit: 5}
	o := newTestOrchestrator(text, limiter)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	env := o.Generate(ctx, "user-1", models.FeatureInstagram, glowSalonForm, models.PlanFree)

	assert.Equal(t, models.CodeDeadlineExceeded, env.Code)
	assert.Equal(t, 1, text.calls)
}
