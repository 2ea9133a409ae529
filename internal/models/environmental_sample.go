package models

import "time"

// EnvironmentalSample represents one environmental reading taken around a user.
type EnvironmentalSample struct {
	ID          string    `json:"id,omitempty" firestore:"-"`
	UserID      string    `json:"userId,omitempty" firestore:"userId"`
	AQI         *float64  `json:"aqi,omitempty" firestore:"aqi,omitempty"`
	Temperature *float64  `json:"temperature,omitempty" firestore:"temperature,omitempty"` // °F
	Humidity    *float64  `json:"humidity,omitempty" firestore:"humidity,omitempty"`       // %
	Timestamp   time.Time `json:"timestamp" firestore:"timestamp"`
}

func (e EnvironmentalSample) HasReadings() bool {
	return e.AQI != nil || e.Temperature != nil || e.Humidity != nil
}
