package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"Xuunu.homeostasis/internal/models"
	"Xuunu.homeostasis/internal/repository"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

// ErrValidation marks errors caused by bad caller input.
var ErrValidation = errors.New("validation failed")

func validationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// SampleService handles ingestion and retrieval of health and environmental samples.
type SampleService struct {
	repo repository.SampleRepository
	now  func() time.Time
}

// NewSampleService creates a new SampleService.
func NewSampleService(repo repository.SampleRepository) *SampleService {
	return &SampleService{repo: repo, now: time.Now}
}

// CreateHealthSample validates the sample, stamps it when no timestamp was sent, and stores it.
func (s *SampleService) CreateHealthSample(ctx context.Context, sample models.HealthSample) (models.HealthSample, error) {
	sample.UserID = strings.TrimSpace(sample.UserID)
	if sample.UserID == "" {
		return models.HealthSample{}, validationError("userId is required")
	}
	if !sample.HasReadings() {
		return models.HealthSample{}, validationError("at least one health metric is required")
	}
	for name, v := range map[string]*float64{
		"glucose":    sample.Glucose,
		"hrv":        sample.HRV,
		"sleepHours": sample.SleepHours,
		"heartRate":  sample.HeartRate,
	} {
		if err := checkMetric(name, v); err != nil {
			return models.HealthSample{}, err
		}
	}
	if sample.Steps != nil && *sample.Steps < 0 {
		return models.HealthSample{}, validationError("steps must not be negative")
	}
	sample.ID = ""
	sample.Timestamp = s.stamp(sample.Timestamp)

	saved, err := s.repo.WriteHealthSample(ctx, sample)
	if err != nil {
		return models.HealthSample{}, fmt.Errorf("error saving health entry: %w", err)
	}
	return saved, nil
}

// CreateEnvironmentalSample validates and stores an environmental reading.
func (s *SampleService) CreateEnvironmentalSample(ctx context.Context, sample models.EnvironmentalSample) (models.EnvironmentalSample, error) {
	sample.UserID = strings.TrimSpace(sample.UserID)
	if sample.UserID == "" {
		return models.EnvironmentalSample{}, validationError("userId is required")
	}
	if !sample.HasReadings() {
		return models.EnvironmentalSample{}, validationError("at least one environmental metric is required")
	}
	if err := checkMetric("aqi", sample.AQI); err != nil {
		return models.EnvironmentalSample{}, err
	}
	if err := checkMetric("humidity", sample.Humidity); err != nil {
		return models.EnvironmentalSample{}, err
	}
	// Temperatures below zero are real readings.
	if sample.Temperature != nil && (math.IsNaN(*sample.Temperature) || math.IsInf(*sample.Temperature, 0)) {
		return models.EnvironmentalSample{}, validationError("temperature must be a finite number")
	}
	sample.ID = ""
	sample.Timestamp = s.stamp(sample.Timestamp)

	saved, err := s.repo.WriteEnvironmentalSample(ctx, sample)
	if err != nil {
		return models.EnvironmentalSample{}, fmt.Errorf("error saving environmental reading: %w", err)
	}
	return saved, nil
}

func (s *SampleService) ListHealthSamples(ctx context.Context, userID string, limit int) ([]models.HealthSample, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, validationError("userId is required")
	}
	samples, err := s.repo.ListHealthSamples(ctx, userID, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("error querying health entries: %w", err)
	}
	if samples == nil {
		samples = []models.HealthSample{}
	}
	return samples, nil
}

func (s *SampleService) ListEnvironmentalSamples(ctx context.Context, userID string, limit int) ([]models.EnvironmentalSample, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, validationError("userId is required")
	}
	samples, err := s.repo.ListEnvironmentalSamples(ctx, userID, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("error querying environmental readings: %w", err)
	}
	if samples == nil {
		samples = []models.EnvironmentalSample{}
	}
	return samples, nil
}

// LatestHealthSample returns nil when the user has no entries.
func (s *SampleService) LatestHealthSample(ctx context.Context, userID string) (*models.HealthSample, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, validationError("userId is required")
	}
	sample, err := s.repo.LatestHealthSample(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error querying latest health entry: %w", err)
	}
	return sample, nil
}

func (s *SampleService) LatestEnvironmentalSample(ctx context.Context, userID string) (*models.EnvironmentalSample, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, validationError("userId is required")
	}
	sample, err := s.repo.LatestEnvironmentalSample(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error querying latest environmental reading: %w", err)
	}
	return sample, nil
}

func (s *SampleService) stamp(ts time.Time) time.Time {
	if ts.IsZero() {
		return s.now().UTC()
	}
	return ts.UTC()
}

func checkMetric(name string, v *float64) error {
	if v == nil {
		return nil
	}
	if math.IsNaN(*v) || math.IsInf(*v, 0) {
		return validationError("%s must be a finite number", name)
	}
	if *v < 0 {
		return validationError("%s must not be negative", name)
	}
	return nil
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultListLimit
	case limit > MaxListLimit:
		return MaxListLimit
	}
	return limit
}
