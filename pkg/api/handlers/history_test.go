package handlers

import (
	"database/sql/driver"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unlockify/contentgen/pkg/history"
	"github.com/unlockify/contentgen/pkg/logger"
	"github.com/unlockify/contentgen/pkg/middleware"
	"github.com/unlockify/contentgen/pkg/models"
)

func newHistoryFixture(t *testing.T) (*HistoryHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewHistoryHandler(history.NewService(db, logger.Nop()), nil), mock
}

func historyCtx(t *testing.T, method, path string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(middleware.ContextUserID, "user-1")
	c.Set(middleware.ContextUserPlan, models.PlanFree)
	return c, rec
}

func historyRow(id string, ts time.Time) []driverValue {
	input, _ := json.Marshal(models.FormInput{BusinessName: "Glow Salon"})
	output, _ := json.Marshal(models.ResponseEnvelope{Success: true, Type: "instagram"})
	return []driverValue{id, "instagram", input, output, ts}
}

type driverValue = driver.Value

func TestHistoryList(t *testing.T) {
	h, mock := newHistoryFixture(t)

	rows := sqlmock.NewRows([]string{"id", "feature", "input", "output", "created_at"})
	rows.AddRow(historyRow("id-1", time.Now().UTC())...)
	mock.ExpectQuery(`SELECT (.+) FROM history`).WillReturnRows(rows)

	c, rec := historyCtx(t, http.MethodGet, "/api/v1/history")
	require.NoError(t, h.List(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Items []models.HistoryItem `json:"items"`
		Count int                  `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Count)
	assert.Equal(t, "id-1", body.Items[0].ID)
}

func TestHistoryDelete(t *testing.T) {
	h, mock := newHistoryFixture(t)

	mock.ExpectExec(`DELETE FROM history`).
		WithArgs("id-1", "user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	c, rec := historyCtx(t, http.MethodDelete, "/api/v1/history/id-1")
	c.SetParamNames("id")
	c.SetParamValues("id-1")
	require.NoError(t, h.Delete(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestHistoryDelete_NotFound(t *testing.T) {
	h, mock := newHistoryFixture(t)

	mock.ExpectExec(`DELETE FROM history`).
		WithArgs("id-x", "user-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	c, rec := historyCtx(t, http.MethodDelete, "/api/v1/history/id-x")
	c.SetParamNames("id")
	c.SetParamValues("id-x")
	require.NoError(t, h.Delete(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHistoryExport_StreamsWorkbook(t *testing.T) {
	h, mock := newHistoryFixture(t)

	rows := sqlmock.NewRows([]string{"id", "feature", "input", "output", "created_at"})
	rows.AddRow(historyRow("id-1", time.Now().UTC())...)
	mock.ExpectQuery(`SELECT (.+) FROM history`).WillReturnRows(rows)

	c, rec := historyCtx(t, http.MethodGet, "/api/v1/history/export")
	require.NoError(t, h.Export(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), ".xlsx")
	assert.NotZero(t, rec.Body.Len())
}
