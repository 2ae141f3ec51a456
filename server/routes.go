package server

func (s *Server) initRoutes() {
	// Browser facing
	s.RegisterRouteHandler("GET "+RouteAuth, ChainMiddleware(s.InitiateHandler(), s.BrowserMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAuthAuthorize, ChainMiddleware(s.AuthorizeHandler(), s.BrowserMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAuthLogout, ChainMiddleware(s.LogoutHandler(), s.BrowserMiddleware()...))

	// Client facing API
	s.RegisterRouteHandler("POST "+RouteAuth, ChainMiddleware(s.ProfileHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteToken, ChainMiddleware(s.TokenHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteToken, ChainMiddleware(s.VerifyTokenHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteTokenRevoke, ChainMiddleware(s.RevokeHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("OPTIONS /", ChainMiddleware(s.PreflightHandler(), s.APIMiddleware()...))

	s.RegisterRouteFunc("GET "+RouteHealth, s.HealthHandler())
}
