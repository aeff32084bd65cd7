package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// Service routes
	RouteIndex  = "/"
	RouteHealth = "/health"

	// Auth Routes - Xero consent flow
	RouteAuthLogin  = "/auth/login"
	RouteAuthLogout = "/auth/logout"
	RouteCallback   = "/callback"

	// API Routes (X-API-Key protected)
	RouteAPITenants       = "/api/tenants"
	RouteAPIOrganisations = "/api/organisations"
	RouteAPIInvoices      = "/api/invoices"
)
