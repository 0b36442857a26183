package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/unlockify/contentgen/pkg/api/errors"
	"github.com/unlockify/contentgen/pkg/export"
	"github.com/unlockify/contentgen/pkg/history"
	"github.com/unlockify/contentgen/pkg/metrics"
	"github.com/unlockify/contentgen/pkg/middleware"
	"github.com/unlockify/contentgen/pkg/models"
)

// HistoryHandler handles generation history endpoints
type HistoryHandler struct {
	history *history.Service
	metrics *metrics.Metrics
}

// NewHistoryHandler creates a new history handler
func NewHistoryHandler(historyService *history.Service, m *metrics.Metrics) *HistoryHandler {
	return &HistoryHandler{
		history: historyService,
		metrics: m,
	}
}

// List returns the caller's history, newest first.
// GET /api/v1/history
func (h *HistoryHandler) List(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	items, err := h.history.List(ctx, middleware.UserID(c), limit)
	if err != nil {
		return errors.DatabaseError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"items": items,
		"count": len(items),
	})
}

// Delete removes one history item owned by the caller.
// DELETE /api/v1/history/:id
func (h *HistoryHandler) Delete(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "History item ID is required",
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	err := h.history.Delete(ctx, middleware.UserID(c), id)
	if err == history.ErrNotFound {
		return errors.NotFoundError(c, "history item")
	}
	if err != nil {
		return errors.DatabaseError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Export streams the caller's history as an Excel workbook.
// GET /api/v1/history/export
func (h *HistoryHandler) Export(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 30*time.Second)
	defer cancel()

	items, err := h.history.List(ctx, middleware.UserID(c), 1000)
	if err != nil {
		return errors.DatabaseError(c, err)
	}

	buf, err := export.HistoryWorkbook(items)
	if err != nil {
		return errors.InternalError(c, err)
	}

	if h.metrics != nil {
		h.metrics.RecordHistoryExport()
	}

	filename := "unlockify-history-" + time.Now().Format("2006-01-02") + ".xlsx"
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Blob(http.StatusOK, export.ExcelContentType, buf.Bytes())
}
