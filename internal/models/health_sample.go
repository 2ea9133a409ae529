package models

import "time"

// HealthSample is one logged set of physiological readings for a user.
// Metric fields are pointers: nil means the reading was not recorded.
type HealthSample struct {
	ID         string    `json:"id,omitempty" firestore:"-"`
	UserID     string    `json:"userId,omitempty" firestore:"userId"`
	Glucose    *float64  `json:"glucose,omitempty" firestore:"glucose,omitempty"`       // mg/dL
	HRV        *float64  `json:"hrv,omitempty" firestore:"hrv,omitempty"`               // ms
	SleepHours *float64  `json:"sleepHours,omitempty" firestore:"sleepHours,omitempty"` // hours
	HeartRate  *float64  `json:"heartRate,omitempty" firestore:"heartRate,omitempty"`   // bpm
	Steps      *int64    `json:"steps,omitempty" firestore:"steps,omitempty"`
	Timestamp  time.Time `json:"timestamp" firestore:"timestamp"`
}

// HasReadings reports whether at least one metric is recorded.
func (h HealthSample) HasReadings() bool {
	return h.Glucose != nil || h.HRV != nil || h.SleepHours != nil || h.HeartRate != nil || h.Steps != nil
}
