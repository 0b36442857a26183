// Package generation owns the text-generation pipeline: building the model
// request, calling the capability, normalizing its reply, and the
// quota/retry/error policy around it.
package generation

import (
	"context"
	"errors"
	"time"

	"github.com/unlockify/contentgen/pkg/logger"
	"github.com/unlockify/contentgen/pkg/models"
)

const maxAttempts = 2

// TextGenerator is the external text capability boundary. Implementations
// return the raw model output for a system instruction plus JSON payload.
type TextGenerator interface {
	GenerateJSON(ctx context.Context, systemInstruction, payload string) (string, error)
}

// UsageLimiter gates free-plan generations and records billable successes.
type UsageLimiter interface {
	Allow(ctx context.Context, userID string) (bool, error)
	RecordSuccess(ctx context.Context, userID string) error
}

// Recorder receives generation outcomes for metrics. Optional.
type Recorder interface {
	RecordGeneration(feature, plan, outcome string, duration time.Duration)
	RecordQuotaRejection()
}

// Orchestrator is the single entry point for every feature-producing
// generation action. It never returns a raw error to callers: every path
// resolves to a ResponseEnvelope.
type Orchestrator struct {
	text        TextGenerator
	limiter     UsageLimiter
	log         logger.Logger
	metrics     Recorder
	callTimeout time.Duration
	backoff     time.Duration
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithCallTimeout bounds each capability call.
func WithCallTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.callTimeout = d }
}

// WithBackoff sets the fixed delay between attempts.
func WithBackoff(d time.Duration) Option {
	return func(o *Orchestrator) { o.backoff = d }
}

// WithMetrics attaches a metrics recorder.
func WithMetrics(r Recorder) Option {
	return func(o *Orchestrator) { o.metrics = r }
}

// NewOrchestrator creates an Orchestrator around the given capability and limiter.
func NewOrchestrator(text TextGenerator, limiter UsageLimiter, log logger.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		text:        text,
		limiter:     limiter,
		log:         log,
		callTimeout: 60 * time.Second,
		backoff:     time.Second,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Generate runs one generation: quota gate, request build, up to two
// strictly sequential capability attempts with a fixed backoff, and
// normalization of the reply.
func (o *Orchestrator) Generate(ctx context.Context, userID string, feature models.FeatureType, form models.FormInput, plan models.PlanTier) models.ResponseEnvelope {
	start := time.Now()
	log := o.log.With("user_id", userID, "feature", feature, "plan", plan)

	if plan == models.PlanFree {
		allowed, err := o.limiter.Allow(ctx, userID)
		if err != nil {
			// Quota store trouble must not take generation down with it;
			// the counter is advisory when unreadable
			log.Error("quota check failed, allowing generation", "error", err)
		} else if !allowed {
			log.Info("daily limit reached")
			o.record(feature, plan, "limit_reached", start)
			if o.metrics != nil {
				o.metrics.RecordQuotaRejection()
			}
			return models.ErrorEnvelope(feature, plan, models.CodeLimitReached,
				"Your daily AI limit (5/5) is over. Upgrade to generate unlimited content.")
		}
	}

	req := BuildRequest(feature, form, plan)

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		env, retryable, err := o.attempt(ctx, req, feature)
		if err == nil {
			if env.Error {
				// Model-asserted errors (INVALID_INPUT) pass through unchanged
				log.Info("model returned error envelope", "code", env.Code)
				o.record(feature, plan, "model_error", start)
				env.UserPlan = plan
				return *env
			}

			if plan == models.PlanFree {
				if rerr := o.limiter.RecordSuccess(ctx, userID); rerr != nil {
					log.Error("failed to record quota usage", "error", rerr)
				}
			}
			log.Info("generation succeeded", "attempt", attempt)
			o.record(feature, plan, "success", start)
			return *env
		}

		if ctx.Err() != nil {
			// The caller's deadline is gone; no retry can help
			log.Error("generation deadline exceeded", "attempt", attempt, "error", err)
			o.record(feature, plan, "deadline", start)
			return models.ErrorEnvelope(feature, plan, models.CodeDeadlineExceeded,
				"Content generation took too long. Please try again.")
		}

		log.Warn("generation attempt failed", "attempt", attempt, "retryable", retryable, "error", err)

		if attempt < maxAttempts {
			select {
			case <-ctx.Done():
				o.record(feature, plan, "deadline", start)
				return models.ErrorEnvelope(feature, plan, models.CodeDeadlineExceeded,
					"Content generation took too long. Please try again.")
			case <-time.After(o.backoff):
			}
			continue
		}

		if isDeadlineErr(err) {
			// Both attempts timed out rather than failed
			o.record(feature, plan, "deadline", start)
			return models.ErrorEnvelope(feature, plan, models.CodeDeadlineExceeded,
				"Content generation took too long. Please try again.")
		}

		o.record(feature, plan, "api_error", start)
		return models.ErrorEnvelope(feature, plan, models.CodeAPIError,
			"Something went wrong generating your content. Please try again.")
	}

	// Unreachable if the loop above is correct; kept as a safety net
	o.record(feature, plan, "unknown", start)
	return models.ErrorEnvelope(feature, plan, models.CodeUnknownError, "An unknown error occurred.")
}

// attempt performs one capability call plus normalization.
func (o *Orchestrator) attempt(ctx context.Context, req Request, feature models.FeatureType) (*models.ResponseEnvelope, bool, error) {
	callCtx, cancel := context.WithTimeout(ctx, o.callTimeout)
	defer cancel()

	raw, err := o.text.GenerateJSON(callCtx, req.SystemInstruction, req.Payload)
	if err != nil {
		return nil, true, err
	}

	env, err := Normalize(raw, feature)
	if err != nil {
		var retryable *RetryableError
		return nil, errors.As(err, &retryable), err
	}
	return env, false, nil
}

func (o *Orchestrator) record(feature models.FeatureType, plan models.PlanTier, outcome string, start time.Time) {
	if o.metrics != nil {
		o.metrics.RecordGeneration(string(feature), string(plan), outcome, time.Since(start))
	}
}

// isDeadlineErr reports whether a capability failure was a timeout rather
// than a transport or parsing problem.
func isDeadlineErr(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}
