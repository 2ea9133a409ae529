package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"Xuunu.homeostasis/internal/homeostasis"
	"Xuunu.homeostasis/internal/insight"
	"Xuunu.homeostasis/internal/models"
	"Xuunu.homeostasis/internal/repository"
)

// HomeostasisService computes scores from the latest samples and serves daily insights.
type HomeostasisService struct {
	repo     repository.SampleRepository
	insights *insight.Cache
	now      func() time.Time
}

func NewHomeostasisService(repo repository.SampleRepository, insights *insight.Cache) *HomeostasisService {
	return &HomeostasisService{repo: repo, insights: insights, now: time.Now}
}

// Calculate scores the user's most recent health entry and environmental reading.
func (s *HomeostasisService) Calculate(ctx context.Context, userID string) (models.ScoreResponse, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return models.ScoreResponse{}, validationError("userId is required")
	}

	health, env, err := s.latest(ctx, userID)
	if err != nil {
		return models.ScoreResponse{}, err
	}

	result := homeostasis.Breakdown(health, env)
	return models.ScoreResponse{
		HomeostasisLevel:  result.Score,
		Label:             result.Label,
		SubScores:         result.SubScores,
		HealthData:        health,
		EnvironmentalData: env,
		CalculatedAt:      s.now().UTC(),
	}, nil
}

// Insight returns today's insight for the user. When the request carries no
// snapshots the latest stored samples are loaded and scored here instead.
func (s *HomeostasisService) Insight(ctx context.Context, req models.InsightRequest) (models.InsightResponse, error) {
	req.UserID = strings.TrimSpace(req.UserID)
	if req.UserID == "" {
		return models.InsightResponse{}, validationError("userId is required")
	}
	if req.HomeostasisLevel < 0 || req.HomeostasisLevel > 100 {
		return models.InsightResponse{}, validationError("homeostasisLevel must be between 0 and 100")
	}

	if req.HealthData == nil && req.EnvironmentalData == nil {
		health, env, err := s.latest(ctx, req.UserID)
		if err != nil {
			return models.InsightResponse{}, err
		}
		req.HealthData, req.EnvironmentalData = health, env
		req.HomeostasisLevel = homeostasis.Compute(health, env)
	}

	res, err := s.insights.GetOrCreate(ctx, insight.Request{
		UserID:      req.UserID,
		Score:       req.HomeostasisLevel,
		Health:      req.HealthData,
		Environment: req.EnvironmentalData,
	})
	if err != nil {
		return models.InsightResponse{}, err
	}
	return models.InsightResponse{
		Insights:  res.Text,
		WasCached: res.WasCached,
		Fallback:  string(res.Fallback),
	}, nil
}

func (s *HomeostasisService) latest(ctx context.Context, userID string) (*models.HealthSample, *models.EnvironmentalSample, error) {
	health, err := s.repo.LatestHealthSample(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("error loading latest health entry: %w", err)
	}
	env, err := s.repo.LatestEnvironmentalSample(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("error loading latest environmental reading: %w", err)
	}
	return health, env, nil
}
