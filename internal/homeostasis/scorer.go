// Package homeostasis computes the 0–100 homeostasis score from the latest
// health and environmental samples of a user.
//
// Each recorded metric contributes a sub-score in [0,100]; the score is the
// rounded mean of the sub-scores that are present, or 0 when none are.
//
//	glucose      max(0, 100 − |glucose − 100| × 0.8)
//	hrv          min(100, hrv × 1.5)
//	sleepHours   min(100, sleepHours × 12.5)
//	heartRate    100 − |heartRate − 70| within [60,100], else 50
//	aqi          max(0, 100 − aqi × 0.5)
//	temperature  100 within [65,75], else max(0, 100 − |temperature − 70| × 2)
//
// A nil metric is absent. A zero glucose, hrv or heart rate is also treated
// as absent: those readings cannot physically be zero, so a zero only ever
// comes from a sensor that reported nothing. Zero aqi, temperature and sleep
// are real readings and are scored.
//
// This package is the only implementation of the formula. Every caller that
// needs a score (HTTP handlers, CLI, insight prompts) goes through it.
package homeostasis

import (
	"math"

	"Xuunu.homeostasis/internal/models"
)

// Metric names used as sub-score keys.
const (
	MetricGlucose     = "glucose"
	MetricHRV         = "hrv"
	MetricSleepHours  = "sleepHours"
	MetricHeartRate   = "heartRate"
	MetricAQI         = "aqi"
	MetricTemperature = "temperature"
)

// Result is a score together with the sub-scores it was averaged from.
type Result struct {
	Score     int
	Label     string
	SubScores map[string]float64
}

// Compute returns the homeostasis score for the given samples. Either sample may be nil.
func Compute(health *models.HealthSample, env *models.EnvironmentalSample) int {
	return Breakdown(health, env).Score
}

// Breakdown computes the score and reports every sub-score that contributed.
func Breakdown(health *models.HealthSample, env *models.EnvironmentalSample) Result {
	subs := make(map[string]float64)

	if health != nil {
		if v, ok := nonZero(health.Glucose); ok {
			subs[MetricGlucose] = GlucoseScore(v)
		}
		if v, ok := nonZero(health.HRV); ok {
			subs[MetricHRV] = HRVScore(v)
		}
		if health.SleepHours != nil {
			subs[MetricSleepHours] = SleepScore(*health.SleepHours)
		}
		if v, ok := nonZero(health.HeartRate); ok {
			subs[MetricHeartRate] = HeartRateScore(v)
		}
	}

	if env != nil {
		if env.AQI != nil {
			subs[MetricAQI] = AQIScore(*env.AQI)
		}
		if env.Temperature != nil {
			subs[MetricTemperature] = TemperatureScore(*env.Temperature)
		}
	}

	score := 0
	if len(subs) > 0 {
		var sum float64
		for _, s := range subs {
			sum += s
		}
		score = int(math.Round(sum / float64(len(subs))))
	}

	return Result{Score: score, Label: Label(score), SubScores: subs}
}

// GlucoseScore peaks at 100 mg/dL and loses 0.8 points per mg/dL of distance.
func GlucoseScore(glucose float64) float64 {
	return math.Max(0, 100-math.Abs(glucose-100)*0.8)
}

// HRVScore grows 1.5 points per ms, capped at 100.
func HRVScore(hrv float64) float64 {
	return math.Min(100, hrv*1.5)
}

// SleepScore grows 12.5 points per hour, so 8 hours scores 100.
func SleepScore(hours float64) float64 {
	return math.Min(100, hours*12.5)
}

// HeartRateScore peaks at 70 bpm inside [60,100] and is a flat 50 outside it.
func HeartRateScore(bpm float64) float64 {
	if bpm >= 60 && bpm <= 100 {
		return 100 - math.Abs(bpm-70)
	}
	return 50
}

// AQIScore loses half a point per AQI unit.
func AQIScore(aqi float64) float64 {
	return math.Max(0, 100-aqi*0.5)
}

// TemperatureScore is 100 between 65 and 75 °F and drops 2 points per degree from 70 outside that.
func TemperatureScore(fahrenheit float64) float64 {
	if fahrenheit >= 65 && fahrenheit <= 75 {
		return 100
	}
	return math.Max(0, 100-math.Abs(fahrenheit-70)*2)
}

// Label names the balance band a score falls into.
func Label(score int) string {
	switch {
	case score >= 80:
		return "Optimal Balance"
	case score >= 60:
		return "High Balance"
	case score >= 40:
		return "Moderate Balance"
	default:
		return "Building Balance"
	}
}

func nonZero(v *float64) (float64, bool) {
	if v == nil || *v == 0 {
		return 0, false
	}
	return *v, true
}
