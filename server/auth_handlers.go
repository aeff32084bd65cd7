package server

import (
	"fmt"
	"net/http"
	"time"

	apperrors "github.com/jrsteele09/go-xero-service/internal/errors"
	"github.com/jrsteele09/go-xero-service/server/flowstate"
)

const pendingAuthTimeout = 15 * time.Minute

// LoginHandler redirects the user to Xero's consent page, remembering the
// state value so the callback can validate it.
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authURL, state := s.deps.Flow.Begin()

		if err := s.flowStates.Upsert(state, &flowstate.PendingAuth{CreatedAt: time.Now()}); err != nil {
			writeJSONError(w, "server_error", "Failed to track authorization state", http.StatusInternalServerError)
			return
		}

		http.Redirect(w, r, authURL, http.StatusFound)
	}
}

// CallbackHandler receives Xero's redirect: it validates the state, turns
// the one-time code into a pending token, and resolves the real tenants.
func (s *Server) CallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state := r.FormValue("state")
		code := r.FormValue("code")
		errorParam := r.FormValue("error")
		errorDesc := r.FormValue("error_description")

		// Check for authorization errors
		if errorParam != "" {
			writeJSONError(w, errorParam, fmt.Sprintf("Authorization failed: %s", errorDesc), http.StatusBadRequest)
			return
		}

		pending, err := s.flowStates.Get(state)
		if err != nil || pending == nil {
			writeJSONError(w, "invalid_request", "Invalid state parameter", http.StatusBadRequest)
			return
		}

		// Clean up state after use
		if err := s.flowStates.Delete(state); err != nil {
			writeJSONError(w, "server_error", "Failed to clear authorization state", http.StatusInternalServerError)
			return
		}

		if time.Since(pending.CreatedAt) > pendingAuthTimeout {
			writeJSONError(w, "invalid_request", "Authorization attempt expired, restart the login flow", http.StatusBadRequest)
			return
		}

		if err := s.deps.Flow.Complete(r.Context(), code); err != nil {
			s.log.Error().Err(err).Msg("authorization callback failed")
			if apperrors.Is(err, apperrors.ErrCallback) {
				writeJSONError(w, "invalid_request", err.Error(), http.StatusBadRequest)
			} else {
				writeJSONError(w, "server_error", err.Error(), http.StatusInternalServerError)
			}
			return
		}

		connections, err := s.deps.Flow.ResolveTenants(r.Context())
		if err != nil {
			s.log.Error().Err(err).Msg("tenant resolution failed")
			writeJSONError(w, "resolution_failed",
				"Token stored but tenant lookup failed, retry via /auth/login callback", http.StatusBadGateway)
			return
		}

		tenants := make([]map[string]string, 0, len(connections))
		for _, connection := range connections {
			tenants = append(tenants, map[string]string{
				"tenant_id":   connection.TenantID,
				"tenant_name": connection.TenantName,
				"tenant_type": connection.TenantType,
			})
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"message": "Authorization successful",
			"tenants": tenants,
		})
	}
}

// LogoutHandler clears all stored tokens, forcing re-authorization.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.deps.Store.Clear(); err != nil {
			writeJSONError(w, "server_error", err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "All tokens cleared"})
	}
}
