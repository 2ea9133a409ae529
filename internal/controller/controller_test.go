package controller

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	jwtmiddleware "github.com/auth0/go-jwt-middleware/v2"
	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Xuunu.homeostasis/internal/insight"
	"Xuunu.homeostasis/internal/models"
	"Xuunu.homeostasis/internal/repository"
	"Xuunu.homeostasis/internal/service"
)

type stubGenerator struct {
	calls atomic.Int32
	err   error
}

func (g *stubGenerator) Generate(context.Context, string, int) (string, error) {
	g.calls.Add(1)
	return "Keep it up.", g.err
}

type fixture struct {
	samples     *SampleController
	homeostasis *HomeostasisController
	gen         *stubGenerator
}

func newFixture(genErr error) fixture {
	repo := repository.NewMemoryRepository()
	gen := &stubGenerator{err: genErr}
	cache := insight.NewCache(repository.NewMemoryInsightStore(), gen)
	return fixture{
		samples:     NewSampleController(service.NewSampleService(repo), time.Second),
		homeostasis: NewHomeostasisController(service.NewHomeostasisService(repo, cache), time.Second),
		gen:         gen,
	}
}

func do(h http.HandlerFunc, method, target, body string) *httptest.ResponseRecorder {
	return doCtx(context.Background(), h, method, target, body)
}

func doCtx(ctx context.Context, h http.HandlerFunc, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body)).WithContext(ctx)
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestCreateAndListHealthEntries(t *testing.T) {
	fx := newFixture(nil)

	rec := do(fx.samples.HandleCreateHealthEntry, http.MethodPost, "/api/health-entries",
		`{"userId":"u1","glucose":100,"hrv":40,"sleepHours":8,"heartRate":70}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode(t, rec)
	assert.NotEmpty(t, created["id"])
	assert.NotEmpty(t, created["timestamp"])

	rec = do(fx.samples.HandleListHealthEntries, http.MethodGet, "/api/health-entries?userId=u1&limit=10", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []models.HealthSample
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, 40.0, *list[0].HRV)

	rec = do(fx.samples.HandleLatestHealthEntry, http.MethodGet, "/api/health-entries/latest?userId=nobody", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "null", strings.TrimSpace(rec.Body.String()))
}

func TestCreateHealthEntryErrors(t *testing.T) {
	fx := newFixture(nil)

	rec := do(fx.samples.HandleCreateHealthEntry, http.MethodPost, "/api/health-entries", `{"glucose":100}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "missing_parameter", decode(t, rec)["code"])

	rec = do(fx.samples.HandleCreateHealthEntry, http.MethodPost, "/api/health-entries", `{"userId":"u1","glucose":-4}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_failed", decode(t, rec)["code"])

	rec = do(fx.samples.HandleCreateHealthEntry, http.MethodPost, "/api/health-entries", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_format", decode(t, rec)["code"])

	rec = do(fx.samples.HandleListHealthEntries, http.MethodGet, "/api/health-entries?userId=u1&limit=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEnvironmentalReadings(t *testing.T) {
	fx := newFixture(nil)

	rec := do(fx.samples.HandleCreateEnvironmentalReading, http.MethodPost, "/api/environmental-readings", `{"userId":"u1","aqi":0,"temperature":70}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 0.0, decode(t, rec)["aqi"])

	rec = do(fx.samples.HandleLatestEnvironmentalReading, http.MethodGet, "/api/environmental-readings/latest?userId=u1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 70.0, decode(t, rec)["temperature"])

	rec = do(fx.samples.HandleListEnvironmentalReadings, http.MethodGet, "/api/environmental-readings", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCalculate(t *testing.T) {
	fx := newFixture(nil)
	do(fx.samples.HandleCreateHealthEntry, http.MethodPost, "/", `{"userId":"u1","glucose":100,"hrv":40,"sleepHours":8,"heartRate":70}`)
	do(fx.samples.HandleCreateEnvironmentalReading, http.MethodPost, "/", `{"userId":"u1","aqi":0,"temperature":70}`)

	rec := do(fx.homeostasis.HandleCalculate, http.MethodGet, "/api/homeostasis/calculate?userId=u1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, 93.0, body["homeostasisLevel"])
	assert.Equal(t, "Optimal Balance", body["label"])
	assert.NotNil(t, body["healthData"])

	rec = do(fx.homeostasis.HandleCalculate, http.MethodGet, "/api/homeostasis/calculate", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "missing_parameter", decode(t, rec)["code"])
}

func TestInsight(t *testing.T) {
	fx := newFixture(nil)
	body := `{"userId":"u1","homeostasisLevel":82,"healthData":{"glucose":104},"environmentalData":{"aqi":30}}`

	rec := do(fx.homeostasis.HandleInsight, http.MethodPost, "/api/homeostasis-insights", body)
	require.Equal(t, http.StatusOK, rec.Code)
	first := decode(t, rec)
	assert.Equal(t, "Keep it up.", first["insights"])
	assert.Equal(t, false, first["wasCached"])
	assert.NotContains(t, first, "fallback")

	rec = do(fx.homeostasis.HandleInsight, http.MethodPost, "/api/homeostasis-insights", body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode(t, rec)["wasCached"])
	assert.EqualValues(t, 1, fx.gen.calls.Load())

	rec = do(fx.homeostasis.HandleInsight, http.MethodPost, "/api/homeostasis-insights", `{"homeostasisLevel":82}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "missing_parameter", decode(t, rec)["code"])
}

func TestInsightQuotaFallback(t *testing.T) {
	fx := newFixture(insight.ErrQuotaExceeded)

	rec := do(fx.homeostasis.HandleInsight, http.MethodPost, "/api/homeostasis-insights", `{"userId":"u1","homeostasisLevel":60}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, insight.QuotaText, body["insights"])
	assert.Equal(t, "quota_exceeded", body["fallback"])
	assert.Equal(t, false, body["wasCached"])
}

func TestInsightGeneratorFailureIsGeneric(t *testing.T) {
	fx := newFixture(errors.New("upstream exploded with sk-secret"))

	rec := do(fx.homeostasis.HandleInsight, http.MethodPost, "/api/homeostasis-insights", `{"userId":"u1","homeostasisLevel":60}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal_server_error", decode(t, rec)["code"])
	assert.NotContains(t, rec.Body.String(), "sk-secret")
}

func TestUserMustMatchTokenSubject(t *testing.T) {
	fx := newFixture(nil)
	claims := &validator.ValidatedClaims{RegisteredClaims: validator.RegisteredClaims{Subject: "u1"}}
	ctx := context.WithValue(context.Background(), jwtmiddleware.ContextKey{}, claims)

	rec := doCtx(ctx, fx.homeostasis.HandleCalculate, http.MethodGet, "/api/homeostasis/calculate?userId=u2", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "forbidden", decode(t, rec)["code"])

	rec = doCtx(ctx, fx.samples.HandleCreateHealthEntry, http.MethodPost, "/api/health-entries", `{"glucose":99}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "u1", decode(t, rec)["userId"])
}
