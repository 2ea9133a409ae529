package models

import "time"

// InsightCacheEntry memoizes the generated insight for one user on one
// calendar day. Entries are written once and never updated.
type InsightCacheEntry struct {
	Key         string               `json:"key" firestore:"key"`
	UserID      string               `json:"userId" firestore:"userId"`
	Date        string               `json:"date" firestore:"date"` // YYYY-MM-DD
	Text        string               `json:"text" firestore:"text"`
	Score       int                  `json:"score" firestore:"score"`
	Health      *HealthSample        `json:"health,omitempty" firestore:"health,omitempty"`
	Environment *EnvironmentalSample `json:"environment,omitempty" firestore:"environment,omitempty"`
	CreatedAt   time.Time            `json:"createdAt" firestore:"createdAt"`
}
