package controller

import (
	"net/http"
	"time"

	"Xuunu.homeostasis/internal/models"
	"Xuunu.homeostasis/internal/service"
	"Xuunu.homeostasis/internal/utils"
)

// HomeostasisController serves the score and daily insight endpoints.
type HomeostasisController struct {
	service *service.HomeostasisService
	timeout time.Duration
}

func NewHomeostasisController(service *service.HomeostasisService, timeout time.Duration) *HomeostasisController {
	return &HomeostasisController{service: service, timeout: timeout}
}

// HandleCalculate computes the score from the user's latest samples.
func (c *HomeostasisController) HandleCalculate(w http.ResponseWriter, r *http.Request) {
	userID, ok := resolveUser(w, r, r.URL.Query().Get("userId"))
	if !ok {
		return
	}

	ctx, cancel := withTimeout(r, c.timeout)
	defer cancel()

	score, err := c.service.Calculate(ctx, userID)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, score)
}

// HandleInsight returns today's insight. Fallback texts are answered with 200.
func (c *HomeostasisController) HandleInsight(w http.ResponseWriter, r *http.Request) {
	var req models.InsightRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	userID, ok := resolveUser(w, r, req.UserID)
	if !ok {
		return
	}
	req.UserID = userID

	ctx, cancel := withTimeout(r, c.timeout)
	defer cancel()

	resp, err := c.service.Insight(ctx, req)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}
