package insight

import (
	"encoding/json"
	"fmt"

	"Xuunu.homeostasis/internal/models"
)

const promptTemplate = `You are a health advisor for a diabetes and chronic illness tracking app called Xuunu.
Based on the following data, provide a brief, personalized insight (2-3 sentences) about the user's current homeostasis level.

Homeostasis Level: %d/100
Health Data: %s
Environmental Data: %s

Focus on:
- How their current metrics affect their body's balance
- One actionable suggestion to improve their homeostasis
- Be encouraging but realistic
- Keep the response concise and actionable`

// BuildPrompt renders the generator prompt. The same inputs always yield the
// same prompt. Identifiers are stripped from the snapshots before they leave
// the service.
func BuildPrompt(score int, health *models.HealthSample, env *models.EnvironmentalSample) string {
	healthJSON := "{}"
	if health != nil {
		h := *health
		h.ID, h.UserID = "", ""
		healthJSON = marshalSnapshot(h)
	}

	envJSON := "{}"
	if env != nil {
		e := *env
		e.ID, e.UserID = "", ""
		envJSON = marshalSnapshot(e)
	}

	return fmt.Sprintf(promptTemplate, score, healthJSON, envJSON)
}

func marshalSnapshot(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}
