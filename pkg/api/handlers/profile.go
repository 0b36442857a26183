package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/unlockify/contentgen/pkg/api/errors"
	"github.com/unlockify/contentgen/pkg/logger"
	"github.com/unlockify/contentgen/pkg/metrics"
	"github.com/unlockify/contentgen/pkg/middleware"
	"github.com/unlockify/contentgen/pkg/models"
	"github.com/unlockify/contentgen/pkg/profile"
)

// ProfileHandler handles business profile endpoints
type ProfileHandler struct {
	profiles  *profile.Service
	metrics   *metrics.Metrics
	log       logger.Logger
	validator *validator.Validate
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(profileService *profile.Service, m *metrics.Metrics, log logger.Logger) *ProfileHandler {
	return &ProfileHandler{
		profiles:  profileService,
		metrics:   m,
		log:       log,
		validator: validator.New(),
	}
}

// Get returns the caller's profile, defaulting to a fresh free-tier one.
// GET /api/v1/profile
func (h *ProfileHandler) Get(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	p, err := h.profiles.GetOrDefault(ctx, middleware.UserID(c))
	if err != nil {
		return errors.DatabaseError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

// Update applies a partial profile update.
// PUT /api/v1/profile
func (h *ProfileHandler) Update(c echo.Context) error {
	var req models.ProfileUpdateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body",
		})
	}
	if err := h.validator.Struct(req); err != nil {
		return errors.ValidationError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	p, err := h.profiles.Update(ctx, middleware.UserID(c), req)
	if err != nil {
		if strings.Contains(err.Error(), "invalid phone") {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:   "invalid_phone",
				Message: "Phone number could not be validated.",
			})
		}
		return errors.DatabaseError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

// Upgrade switches the caller to the paid plan.
// POST /api/v1/profile/upgrade
func (h *ProfileHandler) Upgrade(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	userID := middleware.UserID(c)
	p, err := h.profiles.SetPlan(ctx, userID, models.PlanPaid)
	if err != nil {
		return errors.DatabaseError(c, err)
	}
	if h.metrics != nil {
		h.metrics.RecordPlanChange(string(models.PlanPaid))
	}
	h.log.Info("user upgraded to paid plan", "user_id", userID)
	return c.JSON(http.StatusOK, p)
}
