package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unlockify/contentgen/pkg/cache"
	"github.com/unlockify/contentgen/pkg/generation"
	"github.com/unlockify/contentgen/pkg/history"
	"github.com/unlockify/contentgen/pkg/logger"
	"github.com/unlockify/contentgen/pkg/middleware"
	"github.com/unlockify/contentgen/pkg/models"
	"github.com/unlockify/contentgen/pkg/quota"
)

const instagramReply = `{"success":true,"type":"instagram","user_plan":"free","data":{"posts":[{"caption":"Get the glow","hashtags":["#salon"]}]}}`

type scriptedText struct {
	reply string
	calls int
}

func (s *scriptedText) GenerateJSON(ctx context.Context, systemInstruction, payload string) (string, error) {
	s.calls++
	return s.reply, nil
}

type generateFixture struct {
	handler *GenerateHandler
	text    *scriptedText
	sqlMock sqlmock.Sqlmock
}

func newGenerateFixture(t *testing.T) *generateFixture {
	t.Helper()

	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { redisClient.Close() })
	limiter := quota.New(&cache.Client{Redis: redisClient}, 5)

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	text := &scriptedText{reply: instagramReply}
	orchestrator := generation.NewOrchestrator(text, limiter, logger.Nop())

	h := NewGenerateHandler(orchestrator, limiter, history.NewService(db, logger.Nop()), logger.Nop())
	return &generateFixture{handler: h, text: text, sqlMock: mock}
}

func doGenerate(t *testing.T, h *GenerateHandler, body string, plan models.PlanTier) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/generate", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(middleware.ContextUserID, "user-1")
	c.Set(middleware.ContextUserPlan, plan)
	require.NoError(t, h.Generate(c))
	return rec
}

func TestGenerate_SuccessAppendsHistory(t *testing.T) {
	f := newGenerateFixture(t)
	f.sqlMock.ExpectExec(`INSERT INTO history`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	rec := doGenerate(t, f.handler,
		`{"feature":"instagram","form":{"business_name":"Glow Salon","business_type":"Salon"}}`,
		models.PlanFree)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope models.ResponseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.True(t, envelope.Success)
	assert.Equal(t, "instagram", envelope.Type)
	assert.Equal(t, 1, f.text.calls)
	require.NoError(t, f.sqlMock.ExpectationsWereMet())
}

func TestGenerate_HistoryFailureDoesNotFailRequest(t *testing.T) {
	f := newGenerateFixture(t)
	f.sqlMock.ExpectExec(`INSERT INTO history`).
		WillReturnError(assert.AnError)

	rec := doGenerate(t, f.handler,
		`{"feature":"instagram","form":{"business_name":"Glow Salon"}}`,
		models.PlanFree)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope models.ResponseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.True(t, envelope.Success)
}

func TestGenerate_UnknownFeature(t *testing.T) {
	f := newGenerateFixture(t)

	rec := doGenerate(t, f.handler, `{"feature":"newsletter","form":{}}`, models.PlanFree)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, f.text.calls)
}

func TestGenerate_PaidOnlyFeatureBlockedForFree(t *testing.T) {
	f := newGenerateFixture(t)

	rec := doGenerate(t, f.handler, `{"feature":"calendar","form":{}}`, models.PlanFree)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope models.ResponseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.False(t, envelope.Success)
	assert.Equal(t, models.CodeInvalidInput, envelope.Code)
	assert.NotEmpty(t, envelope.UpgradeNote)
	assert.Zero(t, f.text.calls, "no capability call for a gated feature")
}

func TestGenerate_PaidPlanReachesCalendar(t *testing.T) {
	f := newGenerateFixture(t)
	f.text.reply = `{"success":true,"type":"calendar","user_plan":"paid","data":{"calendar":[]}}`
	f.sqlMock.ExpectExec(`INSERT INTO history`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	rec := doGenerate(t, f.handler, `{"feature":"calendar","form":{}}`, models.PlanPaid)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, f.text.calls)
}

func TestGenerate_FailedEnvelopeSkipsHistory(t *testing.T) {
	f := newGenerateFixture(t)
	f.text.reply = `{"error":true,"code":"INVALID_INPUT","message":"Topic is required"}`

	rec := doGenerate(t, f.handler, `{"feature":"instagram","form":{}}`, models.PlanFree)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope models.ResponseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.False(t, envelope.Success)
	assert.Equal(t, models.CodeInvalidInput, envelope.Code)
	// No ExpectExec registered: ExpectationsWereMet proves no insert ran
	require.NoError(t, f.sqlMock.ExpectationsWereMet())
}

func TestQuota_FreeTierCountsUsage(t *testing.T) {
	f := newGenerateFixture(t)
	f.sqlMock.ExpectExec(`INSERT INTO history`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	doGenerate(t, f.handler, `{"feature":"instagram","form":{}}`, models.PlanFree)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/quota", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(middleware.ContextUserID, "user-1")
	c.Set(middleware.ContextUserPlan, models.PlanFree)
	require.NoError(t, f.handler.Quota(c))

	var status models.QuotaStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, 1, status.Used)
	assert.Equal(t, 5, status.Limit)
	assert.Equal(t, 4, status.Remaining)
	assert.False(t, status.Unlimited)
}

func TestQuota_PaidTierUnlimited(t *testing.T) {
	f := newGenerateFixture(t)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/quota", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(middleware.ContextUserID, "user-1")
	c.Set(middleware.ContextUserPlan, models.PlanPaid)
	require.NoError(t, f.handler.Quota(c))

	var status models.QuotaStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.True(t, status.Unlimited)
}
