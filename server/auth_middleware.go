package server

import (
	"crypto/subtle"
	"net/http"
)

// APIKeyMiddleware guards API routes with the shared X-API-Key header.
func (s *Server) APIKeyMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		apiKey := r.Header.Get("X-API-Key")
		if apiKey == "" {
			writeJSONError(w, "forbidden", "API Key required", http.StatusForbidden)
			return
		}

		expected := s.config.GetAPIKey()
		if expected == "" || subtle.ConstantTimeCompare([]byte(apiKey), []byte(expected)) != 1 {
			s.log.Warn().Str("path", r.URL.Path).Msg("invalid API key attempt")
			writeJSONError(w, "forbidden", "Invalid API Key", http.StatusForbidden)
			return
		}

		next(w, r)
	}
}
