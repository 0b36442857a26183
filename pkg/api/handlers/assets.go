package handlers

import (
	"context"
	"encoding/base64"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/unlockify/contentgen/pkg/api/errors"
	"github.com/unlockify/contentgen/pkg/assets"
	"github.com/unlockify/contentgen/pkg/metrics"
	"github.com/unlockify/contentgen/pkg/models"
)

const retryMessage = "Generation is busy right now. Please try again in a moment."

// AssetsHandler handles media asset endpoints. Every endpoint answers 200:
// a capability failure is reported as available=false, not as an HTTP error.
type AssetsHandler struct {
	assets    *assets.Service
	metrics   *metrics.Metrics
	validator *validator.Validate
}

// NewAssetsHandler creates a new assets handler
func NewAssetsHandler(assetService *assets.Service, m *metrics.Metrics) *AssetsHandler {
	return &AssetsHandler{
		assets:    assetService,
		metrics:   m,
		validator: validator.New(),
	}
}

// Image generates one marketing image, compositing the logo when provided.
// POST /api/v1/assets/image
func (h *AssetsHandler) Image(c echo.Context) error {
	var req models.ImageAssetRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body",
		})
	}
	if err := h.validator.Struct(req); err != nil {
		return errors.ValidationError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 120*time.Second)
	defer cancel()

	img := h.assets.GenerateImage(ctx, req)
	h.recordAsset("image", img != nil)
	if img == nil {
		return c.JSON(http.StatusOK, models.AssetResponse{
			Available: false,
			Message:   retryMessage,
		})
	}

	return c.JSON(http.StatusOK, models.AssetResponse{
		Available: true,
		Image:     img.DataURL(),
		URL:       img.URL,
		MimeType:  img.MimeType,
	})
}

// Video generates one short marketing video and returns its URL.
// POST /api/v1/assets/video
func (h *AssetsHandler) Video(c echo.Context) error {
	var req models.VideoAssetRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body",
		})
	}
	if err := h.validator.Struct(req); err != nil {
		return errors.ValidationError(c, err)
	}

	// Video polling can legitimately take minutes
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Minute)
	defer cancel()

	uri := h.assets.GenerateVideo(ctx, req)
	h.recordAsset("video", uri != "")
	if uri == "" {
		return c.JSON(http.StatusOK, models.AssetResponse{
			Available: false,
			Message:   retryMessage,
		})
	}

	return c.JSON(http.StatusOK, models.AssetResponse{
		Available: true,
		URL:       uri,
	})
}

// Audio synthesizes speech for the given text.
// POST /api/v1/assets/audio
func (h *AssetsHandler) Audio(c echo.Context) error {
	var req models.AudioAssetRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body",
		})
	}
	if err := h.validator.Struct(req); err != nil {
		return errors.ValidationError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 120*time.Second)
	defer cancel()

	audio := h.assets.GenerateAudio(ctx, req.Text, req.VoiceGender)
	h.recordAsset("audio", audio != nil)
	if audio == nil {
		return c.JSON(http.StatusOK, models.AssetResponse{
			Available: false,
			Message:   retryMessage,
		})
	}

	return c.JSON(http.StatusOK, models.AssetResponse{
		Available: true,
		Audio:     base64.StdEncoding.EncodeToString(audio.Data),
		MimeType:  audio.MimeType,
	})
}

func (h *AssetsHandler) recordAsset(kind string, available bool) {
	if h.metrics != nil {
		h.metrics.RecordAsset(kind, available)
	}
}
