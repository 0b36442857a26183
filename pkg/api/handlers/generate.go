package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/unlockify/contentgen/pkg/generation"
	"github.com/unlockify/contentgen/pkg/history"
	"github.com/unlockify/contentgen/pkg/logger"
	"github.com/unlockify/contentgen/pkg/middleware"
	"github.com/unlockify/contentgen/pkg/models"
	"github.com/unlockify/contentgen/pkg/quota"
)

// GenerateHandler handles content generation endpoints
type GenerateHandler struct {
	orchestrator *generation.Orchestrator
	quota        *quota.Limiter
	history      *history.Service
	log          logger.Logger
	validator    *validator.Validate
}

// NewGenerateHandler creates a new generation handler
func NewGenerateHandler(orchestrator *generation.Orchestrator, quotaLimiter *quota.Limiter, historyService *history.Service, log logger.Logger) *GenerateHandler {
	return &GenerateHandler{
		orchestrator: orchestrator,
		quota:        quotaLimiter,
		history:      historyService,
		log:          log,
		validator:    validator.New(),
	}
}

// Generate runs one content generation and appends it to the user's history.
// POST /api/v1/generate
func (h *GenerateHandler) Generate(c echo.Context) error {
	var req models.GenerateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body",
		})
	}

	if !req.Feature.Valid() {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_feature",
			Message: "Unknown feature type",
		})
	}

	userID := middleware.UserID(c)
	plan := middleware.UserPlan(c)

	if req.Feature.PaidOnly() && plan != models.PlanPaid {
		envelope := models.ErrorEnvelope(req.Feature, plan, models.CodeInvalidInput,
			"This feature is available on the paid plan. Upgrade to unlock it.")
		envelope.UpgradeNote = "Upgrade to Unlockify Pro for calendars, GMB packs and unlimited daily generations."
		return c.JSON(http.StatusOK, envelope)
	}

	// The orchestrator carries its own per-call timeouts; this bounds the
	// whole request including the retry.
	ctx, cancel := context.WithTimeout(c.Request().Context(), 150*time.Second)
	defer cancel()

	envelope := h.orchestrator.Generate(ctx, userID, req.Feature, req.Form, plan)

	// A failed history write never takes down a successful generation
	if envelope.Success {
		item := models.HistoryItem{
			Feature: req.Feature,
			Input:   req.Form,
			Output:  envelope,
		}
		if _, err := h.history.Append(ctx, userID, item); err != nil {
			h.log.Error("history append failed", "user_id", userID, "feature", req.Feature, "error", err)
		}
	}

	return c.JSON(http.StatusOK, envelope)
}

// Quota reports today's usage for the signed-in user.
// GET /api/v1/quota
func (h *GenerateHandler) Quota(c echo.Context) error {
	userID := middleware.UserID(c)
	plan := middleware.UserPlan(c)

	status := models.QuotaStatus{
		Plan:      plan,
		Limit:     h.quota.Limit(),
		Unlimited: plan == models.PlanPaid,
	}
	if status.Unlimited {
		return c.JSON(http.StatusOK, status)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	used, err := h.quota.Used(ctx, userID)
	if err != nil {
		// Advisory endpoint; report a full allowance rather than fail
		h.log.Warn("quota read failed", "user_id", userID, "error", err)
	}
	status.Used = used
	status.Remaining = status.Limit - used
	if status.Remaining < 0 {
		status.Remaining = 0
	}

	return c.JSON(http.StatusOK, status)
}
