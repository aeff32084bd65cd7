package server

import (
	"net/http"

	"github.com/jrsteele09/go-xero-service/authflow"
	apperrors "github.com/jrsteele09/go-xero-service/internal/errors"
)

// TenantsHandler lists the tenants with stored tokens.
func (s *Server) TenantsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantIDs, err := s.deps.Store.Tenants()
		if err != nil {
			writeJSONError(w, "server_error", err.Error(), http.StatusInternalServerError)
			return
		}

		pending := false
		connected := make([]string, 0, len(tenantIDs))
		for _, tenantID := range tenantIDs {
			if tenantID == authflow.TempTenantKey {
				pending = true
				continue
			}
			connected = append(connected, tenantID)
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"tenants":            connected,
			"pending_resolution": pending,
		})
	}
}

// OrganisationsHandler fetches the organisation record for every connected
// tenant, reporting per-tenant successes and failures side by side.
func (s *Server) OrganisationsHandler() http.HandlerFunc {
	type tenantOrganisations struct {
		TenantID      string `json:"tenant_id"`
		Organisations any    `json:"organisations,omitempty"`
		Error         string `json:"error,omitempty"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		tenantIDs, err := s.deps.Store.Tenants()
		if err != nil {
			writeJSONError(w, "server_error", err.Error(), http.StatusInternalServerError)
			return
		}

		targets := make([]string, 0, len(tenantIDs))
		for _, tenantID := range tenantIDs {
			if tenantID == authflow.TempTenantKey {
				continue
			}
			targets = append(targets, tenantID)
		}

		results := s.deps.Accounting.ListOrganisations(r.Context(), targets)

		response := make([]tenantOrganisations, 0, len(results))
		for _, result := range results {
			entry := tenantOrganisations{TenantID: result.TenantID}
			if result.Err != nil {
				entry.Error = result.Err.Error()
			} else {
				entry.Organisations = result.Organisations
			}
			response = append(response, entry)
		}

		writeJSON(w, http.StatusOK, map[string]any{"results": response})
	}
}

// InvoicesHandler passes one tenant's invoice listing through unmodified.
func (s *Server) InvoicesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID := r.URL.Query().Get("tenant")
		if tenantID == "" {
			writeJSONError(w, "invalid_request", "tenant query parameter is required", http.StatusBadRequest)
			return
		}

		body, err := s.deps.Accounting.Invoices(r.Context(), tenantID)
		if err != nil {
			switch {
			case apperrors.Is(err, apperrors.ErrNotAuthorized):
				writeJSONError(w, "tenant_not_authorized",
					"Tenant has no stored token, authorize via /auth/login", http.StatusUnauthorized)
			case apperrors.Is(err, apperrors.ErrRefreshFailed):
				writeJSONError(w, "refresh_failed", err.Error(), http.StatusBadGateway)
			default:
				writeJSONError(w, "server_error", err.Error(), http.StatusBadGateway)
			}
			return
		}

		w.Header().Set("Content-Type", contentTypeJSON)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
	}
}
