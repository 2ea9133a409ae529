package utils

import (
	"encoding/json"
	"log"
	"net/http"

	"Xuunu.homeostasis/internal/models"
)

// RespondWithError sends a JSON error response using the APIError model.
// The status code comes from the APIError; the whole struct is the body.
func RespondWithError(writer http.ResponseWriter, apiErr models.APIError) {
	if apiErr.StatusCode == 0 {
		apiErr.StatusCode = http.StatusInternalServerError
	}
	RespondWithJSON(writer, apiErr.StatusCode, apiErr)
}

// RespondWithJSON sends a JSON success response.
func RespondWithJSON(writer http.ResponseWriter, statusCode int, payload interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Failed to encode JSON response: %v", err)
		http.Error(writer, "Failed to send JSON response", http.StatusInternalServerError)
		return
	}

	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(statusCode)
	if _, err := writer.Write(append(body, '\n')); err != nil {
		log.Printf("Failed to write JSON response: %v", err)
	}
}

// MissingParameter builds the 400 returned when a required parameter is absent.
func MissingParameter(name string) models.APIError {
	return models.NewAPIError(models.ErrorCodeMissingParameter, name+" is required", nil, http.StatusBadRequest)
}

// InternalError builds the generic 500 response; details stay in the logs.
func InternalError() models.APIError {
	return models.NewAPIError(models.ErrorCodeInternalServerError, "An internal error occurred", nil, http.StatusInternalServerError)
}
