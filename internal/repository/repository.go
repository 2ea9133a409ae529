package repository

import (
	"context"

	"Xuunu.homeostasis/internal/models"
)

// Measurement and collection names shared by the sample stores.
const (
	HealthMeasurement        = "health_entries"
	EnvironmentalMeasurement = "environmental_readings"

	HealthCollection        = "healthEntries"
	EnvironmentalCollection = "environmentalReadings"
	InsightCollection       = "insightCache"
)

// SampleRepository stores health and environmental samples per user.
// List methods return samples most-recent-first.
type SampleRepository interface {
	WriteHealthSample(ctx context.Context, sample models.HealthSample) (models.HealthSample, error)
	WriteEnvironmentalSample(ctx context.Context, sample models.EnvironmentalSample) (models.EnvironmentalSample, error)
	ListHealthSamples(ctx context.Context, userID string, limit int) ([]models.HealthSample, error)
	ListEnvironmentalSamples(ctx context.Context, userID string, limit int) ([]models.EnvironmentalSample, error)
	LatestHealthSample(ctx context.Context, userID string) (*models.HealthSample, error)
	LatestEnvironmentalSample(ctx context.Context, userID string) (*models.EnvironmentalSample, error)
}

func firstHealth(samples []models.HealthSample) *models.HealthSample {
	if len(samples) == 0 {
		return nil
	}
	return &samples[0]
}

func firstEnvironmental(samples []models.EnvironmentalSample) *models.EnvironmentalSample {
	if len(samples) == 0 {
		return nil
	}
	return &samples[0]
}
