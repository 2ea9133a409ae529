package routes

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"Xuunu.homeostasis/internal/controller"
	"Xuunu.homeostasis/internal/models"
	"Xuunu.homeostasis/internal/utils"
)

const apiPrefix = "/api/"

// RegisterRoutes registers all application routes. When auth is non-nil every
// /api route requires a valid bearer token.
func RegisterRoutes(
	router *mux.Router,
	samples *controller.SampleController,
	homeostasis *controller.HomeostasisController,
	auth func(http.Handler) http.Handler,
) {
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "OK")
	}).Methods(http.MethodGet)

	// API routes sit on the root router with full paths so a method mismatch
	// reaches MethodNotAllowedHandler instead of being reported as not found.
	if auth != nil {
		router.Use(apiOnly(auth))
	}

	router.HandleFunc("/api/health-entries", samples.HandleCreateHealthEntry).Methods(http.MethodPost)
	router.HandleFunc("/api/health-entries", samples.HandleListHealthEntries).Methods(http.MethodGet)
	router.HandleFunc("/api/health-entries/latest", samples.HandleLatestHealthEntry).Methods(http.MethodGet)

	router.HandleFunc("/api/environmental-readings", samples.HandleCreateEnvironmentalReading).Methods(http.MethodPost)
	router.HandleFunc("/api/environmental-readings", samples.HandleListEnvironmentalReadings).Methods(http.MethodGet)
	router.HandleFunc("/api/environmental-readings/latest", samples.HandleLatestEnvironmentalReading).Methods(http.MethodGet)

	router.HandleFunc("/api/homeostasis/calculate", homeostasis.HandleCalculate).Methods(http.MethodGet)
	router.HandleFunc("/api/homeostasis-insights", homeostasis.HandleInsight).Methods(http.MethodPost)

	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		utils.RespondWithError(w, models.NewAPIError(models.ErrorCodeMethodNotAllowed, "Method not allowed", nil, http.StatusMethodNotAllowed))
	})
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		utils.RespondWithError(w, models.NewAPIError(models.ErrorCodeNotFound, "Route not found", nil, http.StatusNotFound))
	})
}

// apiOnly applies auth to /api paths and passes everything else through.
func apiOnly(auth func(http.Handler) http.Handler) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		protected := auth(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.URL.Path, apiPrefix) {
				protected.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
