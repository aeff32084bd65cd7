package server

func (s *Server) initRoutes() {
	s.RegisterRouteFunc("GET "+RouteIndex, s.IndexHandler())
	s.RegisterRouteFunc("GET "+RouteHealth, s.HealthHandler())

	// Xero consent flow
	s.RegisterRouteHandler("GET "+RouteAuthLogin, ChainMiddleware(s.LoginHandler(), s.FlowMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteCallback, ChainMiddleware(s.CallbackHandler(), s.FlowMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteAuthLogout, ChainMiddleware(s.LogoutHandler(), s.FlowMiddleware()...))

	// API routes
	s.RegisterRouteHandler("GET "+RouteAPITenants, ChainMiddleware(s.TenantsHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteAPIOrganisations, ChainMiddleware(s.OrganisationsHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteAPIInvoices, ChainMiddleware(s.InvoicesHandler(), s.APIMiddleware()...))
}
