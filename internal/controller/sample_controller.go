package controller

import (
	"net/http"
	"time"

	"Xuunu.homeostasis/internal/models"
	"Xuunu.homeostasis/internal/service"
	"Xuunu.homeostasis/internal/utils"
)

// SampleController handles HTTP requests for health entries and environmental readings.
type SampleController struct {
	service *service.SampleService
	timeout time.Duration
}

// NewSampleController creates a new SampleController.
func NewSampleController(service *service.SampleService, timeout time.Duration) *SampleController {
	return &SampleController{service: service, timeout: timeout}
}

// HandleCreateHealthEntry stores one health entry.
func (c *SampleController) HandleCreateHealthEntry(w http.ResponseWriter, r *http.Request) {
	var sample models.HealthSample
	if !decodeJSON(w, r, &sample) {
		return
	}
	userID, ok := resolveUser(w, r, sample.UserID)
	if !ok {
		return
	}
	sample.UserID = userID

	ctx, cancel := withTimeout(r, c.timeout)
	defer cancel()

	saved, err := c.service.CreateHealthSample(ctx, sample)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, saved)
}

// HandleListHealthEntries lists a user's entries, most recent first.
func (c *SampleController) HandleListHealthEntries(w http.ResponseWriter, r *http.Request) {
	userID, ok := resolveUser(w, r, r.URL.Query().Get("userId"))
	if !ok {
		return
	}
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}

	ctx, cancel := withTimeout(r, c.timeout)
	defer cancel()

	samples, err := c.service.ListHealthSamples(ctx, userID, limit)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, samples)
}

// HandleLatestHealthEntry answers null when the user has no entries.
func (c *SampleController) HandleLatestHealthEntry(w http.ResponseWriter, r *http.Request) {
	userID, ok := resolveUser(w, r, r.URL.Query().Get("userId"))
	if !ok {
		return
	}

	ctx, cancel := withTimeout(r, c.timeout)
	defer cancel()

	sample, err := c.service.LatestHealthSample(ctx, userID)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, sample)
}

func (c *SampleController) HandleCreateEnvironmentalReading(w http.ResponseWriter, r *http.Request) {
	var sample models.EnvironmentalSample
	if !decodeJSON(w, r, &sample) {
		return
	}
	userID, ok := resolveUser(w, r, sample.UserID)
	if !ok {
		return
	}
	sample.UserID = userID

	ctx, cancel := withTimeout(r, c.timeout)
	defer cancel()

	saved, err := c.service.CreateEnvironmentalSample(ctx, sample)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, saved)
}

func (c *SampleController) HandleListEnvironmentalReadings(w http.ResponseWriter, r *http.Request) {
	userID, ok := resolveUser(w, r, r.URL.Query().Get("userId"))
	if !ok {
		return
	}
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}

	ctx, cancel := withTimeout(r, c.timeout)
	defer cancel()

	samples, err := c.service.ListEnvironmentalSamples(ctx, userID, limit)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, samples)
}

func (c *SampleController) HandleLatestEnvironmentalReading(w http.ResponseWriter, r *http.Request) {
	userID, ok := resolveUser(w, r, r.URL.Query().Get("userId"))
	if !ok {
		return
	}

	ctx, cancel := withTimeout(r, c.timeout)
	defer cancel()

	sample, err := c.service.LatestEnvironmentalSample(ctx, userID)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, sample)
}
