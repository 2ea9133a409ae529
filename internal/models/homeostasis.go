package models

import "time"

// ScoreResponse is returned by the compute-score operation.
type ScoreResponse struct {
	HomeostasisLevel  int                  `json:"homeostasisLevel"`
	Label             string               `json:"label"`
	SubScores         map[string]float64   `json:"subScores"`
	HealthData        *HealthSample        `json:"healthData"`
	EnvironmentalData *EnvironmentalSample `json:"environmentalData"`
	CalculatedAt      time.Time            `json:"calculatedAt"`
}

// InsightRequest is the body of the get-insight operation.
type InsightRequest struct {
	UserID            string               `json:"userId"`
	HomeostasisLevel  int                  `json:"homeostasisLevel"`
	HealthData        *HealthSample        `json:"healthData"`
	EnvironmentalData *EnvironmentalSample `json:"environmentalData"`
}

// InsightResponse carries the narrative text. Fallback is set when the
// text is a degraded-mode message instead of a generated insight.
type InsightResponse struct {
	Insights  string `json:"insights"`
	WasCached bool   `json:"wasCached"`
	Fallback  string `json:"fallback,omitempty"`
}
