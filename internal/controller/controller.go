package controller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"Xuunu.homeostasis/internal/insight"
	"Xuunu.homeostasis/internal/middleware"
	"Xuunu.homeostasis/internal/models"
	"Xuunu.homeostasis/internal/service"
	"Xuunu.homeostasis/internal/utils"
)

const maxBodyBytes = 1 << 20

// DefaultTimeout bounds each request when no timeout is configured.
const DefaultTimeout = 20 * time.Second

func withTimeout(r *http.Request, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return context.WithTimeout(r.Context(), timeout)
}

// resolveUser picks the acting user and writes the error response when there is none.
func resolveUser(w http.ResponseWriter, r *http.Request, requested string) (string, bool) {
	userID, err := middleware.ResolveUserID(r.Context(), requested)
	switch {
	case errors.Is(err, middleware.ErrMissingUserID):
		utils.RespondWithError(w, utils.MissingParameter("userId"))
		return "", false
	case errors.Is(err, middleware.ErrUserMismatch):
		utils.RespondWithError(w, models.NewAPIError(models.ErrorCodeForbidden, "Access denied for user", nil, http.StatusForbidden))
		return "", false
	}
	return userID, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst); err != nil {
		utils.RespondWithError(w, models.NewAPIError(models.ErrorCodeInvalidFormat, fmt.Sprintf("error decoding JSON: %v", err), nil, http.StatusBadRequest))
		return false
	}
	return true
}

func parseLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		utils.RespondWithError(w, models.NewAPIError(models.ErrorCodeInvalidFormat, "limit must be a non-negative integer", nil, http.StatusBadRequest))
		return 0, false
	}
	return limit, true
}

// respondWithServiceError maps service errors onto API errors. Unexpected
// failures are logged and answered with a generic 500.
func respondWithServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		utils.RespondWithError(w, models.NewAPIError(models.ErrorCodeValidationFailed, err.Error(), nil, http.StatusBadRequest))
	case errors.Is(err, insight.ErrMissingUserID):
		utils.RespondWithError(w, utils.MissingParameter("userId"))
	case errors.Is(err, context.DeadlineExceeded):
		log.Printf("%s %s timed out: %v", r.Method, r.URL.Path, err)
		utils.RespondWithError(w, models.NewAPIError(models.ErrorCodeInternalServerError, "Request timed out", nil, http.StatusGatewayTimeout))
	default:
		log.Printf("%s %s failed: %v", r.Method, r.URL.Path, err)
		utils.RespondWithError(w, utils.InternalError())
	}
}
