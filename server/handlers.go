package server

import (
	"encoding/json"
	"net/http"

	"github.com/jrsteele09/go-xero-service/internal/config"
)

const contentTypeJSON = "application/json; charset=utf-8"

// IndexHandler serves the service welcome document
func (s *Server) IndexHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"message":     s.config.GetAppName(),
			"version":     s.config.GetAPIVersion(),
			"environment": s.config.GetEnv(),
		})
	}
}

// HealthHandler reports configuration validity
func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		missing := config.Validate(s.config)

		status := "healthy"
		configuration := "valid"
		if len(missing) > 0 {
			status = "unhealthy"
			configuration = "invalid"
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"status":        status,
			"environment":   s.config.GetEnv(),
			"version":       s.config.GetAPIVersion(),
			"configuration": configuration,
		})
	}
}

func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}

func writeJSONError(w http.ResponseWriter, errorCode, description string, statusCode int) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":             errorCode,
		"error_description": description,
	})
}
