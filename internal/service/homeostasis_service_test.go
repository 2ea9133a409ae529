package service

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Xuunu.homeostasis/internal/insight"
	"Xuunu.homeostasis/internal/models"
	"Xuunu.homeostasis/internal/repository"
)

type countingGenerator struct {
	calls  atomic.Int32
	prompt string
}

func (g *countingGenerator) Generate(_ context.Context, prompt string, _ int) (string, error) {
	g.calls.Add(1)
	g.prompt = prompt
	return "Balanced day.", nil
}

func seed(t *testing.T, repo *repository.MemoryRepository) {
	t.Helper()
	ctx := context.Background()
	ts := time.Date(2024, 7, 15, 8, 0, 0, 0, time.UTC)
	_, err := repo.WriteHealthSample(ctx, models.HealthSample{UserID: "u1", Glucose: f(100), HRV: f(40), SleepHours: f(8), HeartRate: f(70), Timestamp: ts})
	require.NoError(t, err)
	_, err = repo.WriteEnvironmentalSample(ctx, models.EnvironmentalSample{UserID: "u1", AQI: f(0), Temperature: f(70), Timestamp: ts})
	require.NoError(t, err)
	// older entry must not be picked
	_, err = repo.WriteHealthSample(ctx, models.HealthSample{UserID: "u1", Glucose: f(300), Timestamp: ts.Add(-time.Hour)})
	require.NoError(t, err)
}

func TestCalculateUsesLatestSamples(t *testing.T) {
	repo := repository.NewMemoryRepository()
	seed(t, repo)
	svc := NewHomeostasisService(repo, insight.NewCache(repository.NewMemoryInsightStore(), nil))

	res, err := svc.Calculate(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 93, res.HomeostasisLevel)
	assert.Equal(t, "Optimal Balance", res.Label)
	require.NotNil(t, res.HealthData)
	assert.Equal(t, 100.0, *res.HealthData.Glucose)
	assert.False(t, res.CalculatedAt.IsZero())
}

func TestCalculateWithoutSamples(t *testing.T) {
	svc := NewHomeostasisService(repository.NewMemoryRepository(), insight.NewCache(repository.NewMemoryInsightStore(), nil))

	res, err := svc.Calculate(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, res.HomeostasisLevel)
	assert.Nil(t, res.HealthData)
	assert.Nil(t, res.EnvironmentalData)

	_, err = svc.Calculate(context.Background(), "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestInsightCachedPerDay(t *testing.T) {
	gen := &countingGenerator{}
	svc := NewHomeostasisService(repository.NewMemoryRepository(), insight.NewCache(repository.NewMemoryInsightStore(), gen))
	req := models.InsightRequest{UserID: "u1", HomeostasisLevel: 82, HealthData: &models.HealthSample{Glucose: f(104)}}

	first, err := svc.Insight(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "Balanced day.", first.Insights)
	assert.False(t, first.WasCached)
	assert.Contains(t, gen.prompt, "82/100")

	second, err := svc.Insight(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, second.WasCached)
	assert.EqualValues(t, 1, gen.calls.Load())
}

func TestInsightLoadsLatestWhenNoSnapshots(t *testing.T) {
	repo := repository.NewMemoryRepository()
	seed(t, repo)
	gen := &countingGenerator{}
	svc := NewHomeostasisService(repo, insight.NewCache(repository.NewMemoryInsightStore(), gen))

	_, err := svc.Insight(context.Background(), models.InsightRequest{UserID: "u1"})
	require.NoError(t, err)
	assert.Contains(t, gen.prompt, "93/100")
}

func TestInsightFallbackAndValidation(t *testing.T) {
	svc := NewHomeostasisService(repository.NewMemoryRepository(), insight.NewCache(repository.NewMemoryInsightStore(), nil))

	res, err := svc.Insight(context.Background(), models.InsightRequest{UserID: "u1", HomeostasisLevel: 50})
	require.NoError(t, err)
	assert.Equal(t, insight.UnavailableText, res.Insights)
	assert.Equal(t, "unavailable", res.Fallback)

	_, err = svc.Insight(context.Background(), models.InsightRequest{HomeostasisLevel: 50})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Insight(context.Background(), models.InsightRequest{UserID: "u1", HomeostasisLevel: 101})
	assert.ErrorIs(t, err, ErrValidation)
}
