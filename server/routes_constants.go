package server

// Route path constants
const (
	// Authorization endpoint: initiation (GET) and profile exchange (POST)
	RouteAuth          = "/auth"
	RouteAuthAuthorize = "/auth/authorize"
	RouteAuthLogout    = "/auth/logout"

	// Token endpoint: exchange (POST) and verification (GET)
	RouteToken       = "/token"
	RouteTokenRevoke = "/token/revoke"

	RouteHealth = "/healthz"
)
