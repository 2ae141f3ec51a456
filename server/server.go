package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jrsteele09/go-indieauth-server/auth"
	"github.com/jrsteele09/go-indieauth-server/internal/config"
	"github.com/pkg/errors"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

// HealthCheck reports whether the storage backend is reachable.
type HealthCheck func(ctx context.Context) error

type Server struct {
	env              string // Environment (e.g., "DEV", "PROD")
	mux              *http.ServeMux
	routes           []string
	config           config.Config
	auth             *auth.AuthorizationService
	cors             *cors.Cors
	health           HealthCheck
	rememberLifetime time.Duration
	logger           zerolog.Logger
}

// ServerOption configures a Server.
type ServerOption func(*Server)

func WithLogger(logger zerolog.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithHealthCheck sets the check behind GET /healthz.
func WithHealthCheck(check HealthCheck) ServerOption {
	return func(s *Server) {
		s.health = check
	}
}

func New(config config.Config, authService *auth.AuthorizationService, options ...ServerOption) (*Server, error) {
	if authService == nil {
		return nil, errors.New("[Server New] authorization service is required")
	}

	s := &Server{
		env:              config.GetEnv(),
		mux:              http.NewServeMux(),
		config:           config,
		auth:             authService,
		rememberLifetime: config.GetLocalSessionLifetime(),
		logger:           zerolog.Nop(),
		health:           func(context.Context) error { return nil },
	}
	for _, opt := range options {
		opt(s)
	}

	s.cors = cors.New(cors.Options{
		AllowedOrigins:   config.GetAllowedOrigins().Slice(),
		AllowedMethods:   config.GetAllowedMethods(),
		AllowedHeaders:   config.GetAllowedHeaders(),
		AllowCredentials: false,
		MaxAge:           86400,
	})

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			s.logRoute(parts[0], parts[1])
		} else {
			s.logRoute("", parts[0])
		}
	}
}

func (s *Server) logRoute(method, path string) {
	var displayMethod string
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		displayMethod = color + paddedMethod + ResetColor
	} else {
		displayMethod = Gray + paddedMethod + ResetColor
	}
	s.logger.Debug().Msgf("[%-19s] %s", displayMethod, path)
}

// Helper function to determine the scheme (http/https)
func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
