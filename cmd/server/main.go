package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-indieauth-server/auth"
	"github.com/jrsteele09/go-indieauth-server/identity"
	"github.com/jrsteele09/go-indieauth-server/internal/config"
	"github.com/jrsteele09/go-indieauth-server/internal/logging"
	"github.com/jrsteele09/go-indieauth-server/requests"
	"github.com/jrsteele09/go-indieauth-server/scopes"
	"github.com/jrsteele09/go-indieauth-server/server"
	"github.com/jrsteele09/go-indieauth-server/sessions"
	"github.com/jrsteele09/go-indieauth-server/token"
	"github.com/rs/zerolog"
)

var configFile = flag.String("config", os.Getenv("INDIEAUTH_CONFIG_FILE"), "path to a yaml/json/toml config file")

func main() {
	flag.Parse()
	for {
		if err := run(); err != nil {
			log.Fatalf("Error running server: %s\n", err)
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Printf("Server stopped\n")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic: %v\n", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	var options []config.Option
	if *configFile != "" {
		options = append(options, config.WithConfigFile(*configFile))
	}
	c, err := config.New(options...)
	if err != nil {
		return fmt.Errorf("config.New: %w", err)
	}
	logger := logging.New(c)
	displayAppname(c.GetAppName())

	ctx := context.Background()
	store, err := openStorage(ctx, c)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.close(); err != nil {
			logger.Warn().Err(err).Msg("closing storage")
		}
	}()
	logger.Info().Str("driver", c.GetStorageDriver()).Msg("storage ready")

	authService, err := newAuthorizationService(ctx, c, store, logger)
	if err != nil {
		return err
	}

	handler, err := server.New(c, authService, server.WithLogger(logger), server.WithHealthCheck(store.ping))
	if err != nil {
		return fmt.Errorf("server.New: %w", err)
	}

	httpServer := &http.Server{
		Addr:              c.GetPort(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- listenAndServe(httpServer, logger)
	}()
	if err := waitForStop(serveErr, stopSignal()); err != nil {
		return err
	}
	returnError = shutdown(httpServer)
	return returnError
}

// newAuthorizationService seeds the operator identity and assembles the
// authorization engine on top of the selected storage.
func newAuthorizationService(ctx context.Context, c config.Config, store *storage, logger zerolog.Logger) (*auth.AuthorizationService, error) {
	identities := identity.NewInMemoryRepo()
	operator, generatedPassword, err := server.InitialiseOperator(ctx, c, identities)
	if err != nil {
		return nil, fmt.Errorf("server.InitialiseOperator: %w", err)
	}
	logger.Info().Str("me", operator.ProfileURL).Msg("operator identity ready")
	if generatedPassword != "" {
		displayOperatorPassword(operator.ProfileURL, generatedPassword)
	}

	requestStore, err := requests.NewStore(store.requests, requests.WithCodeLength(c.GetCodeGenerationLength()))
	if err != nil {
		return nil, fmt.Errorf("requests.NewStore: %w", err)
	}
	tokens, err := token.New(store.tokens, token.WithLifetime(c.GetAccessTokenExpiry()))
	if err != nil {
		return nil, fmt.Errorf("token.New: %w", err)
	}
	guard, err := sessions.NewGuard(store.sessions, identities, c.GetSessionSecret(),
		sessions.WithLogger(logger),
		sessions.WithLoginRate(c.GetLoginRate(), c.GetLoginBurst()),
	)
	if err != nil {
		return nil, fmt.Errorf("sessions.NewGuard: %w", err)
	}

	descriptions := scopes.DefaultDescriptions()
	for name, text := range c.GetScopeDescriptions() {
		descriptions[name] = text
	}

	authService, err := auth.NewAuthorizationService(auth.Components{
		Identities: identities,
		Requests:   requestStore,
		Tokens:     tokens,
		Guard:      guard,
	},
		auth.WithLogger(logger),
		auth.WithScopeDescriptions(scopes.NewDescriptions(descriptions)),
		auth.WithCodeTTL(c.GetAuthCodeTimeout()),
		auth.WithRequirePKCE(c.GetRequirePKCE()),
		auth.WithRememberLifetime(c.GetLocalSessionLifetime()),
	)
	if err != nil {
		return nil, fmt.Errorf("auth.NewAuthorizationService: %w", err)
	}
	return authService, nil
}

func listenAndServe(server *http.Server, logger zerolog.Logger) error {
	logger.Info().Str("addr", server.Addr).Msg("server listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe: %w", err)
	}
	return nil
}

func stopSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
}

// waitForStop blocks until a stop signal arrives or the listener exits.
// A listener that exits on its own, such as on a bind failure, is an error.
func waitForStop(serveErr <-chan error, stop <-chan os.Signal) error {
	select {
	case err := <-serveErr:
		if err == nil {
			return errors.New("server stopped unexpectedly")
		}
		return err
	case <-stop:
		return nil
	}
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}

// displayOperatorPassword prints a generated password once. It is kept out
// of the structured log.
func displayOperatorPassword(me, password string) {
	fmt.Println("Operator credentials (shown once):")
	fmt.Printf("  me:       %s\n", me)
	fmt.Printf("  password: %s\n", password)
	fmt.Println("Set identity.password_hash to keep a password across restarts.")
	fmt.Println()
}
