/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the weekly timesheet server, plus two operator
  commands for demos: issuing tokens and loading scenarios.
  Handles configuration, dependency injection, and graceful shutdown.

COMMANDS:
  serve    Run the HTTP API (default when no command is given)
  token    Print a signed bearer token for a user
  seed     Reset the database and load a demo scenario

STARTUP SEQUENCE (serve):
  1. Load configuration (defaults, timesheet.yaml, .env, TIMESHEET_* env)
  2. Initialize SQLite store
  3. Resolve the rules: stored document first, configured rules otherwise
  4. Connect the RabbitMQ publisher when a URL is configured
  5. Create the timesheet service, handler and router
  6. Start the idle session sweeper
  7. Start server with graceful shutdown

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the sweeper, close the publisher and the database
  4. Exit

EXAMPLES:
  # Run with the default file database
  timesheet serve

  # Run with in-memory database on a different port
  TIMESHEET_DATABASE_PATH=":memory:" TIMESHEET_SERVER_PORT=3000 timesheet serve

  # Demo data and a token to call the API with
  timesheet seed --scenario team-week
  timesheet token --user alice

SEE ALSO:
  - config/config.go: Configuration keys and defaults
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/warp/timesheet-engine/api"
	"github.com/warp/timesheet-engine/config"
	"github.com/warp/timesheet-engine/events"
	"github.com/warp/timesheet-engine/factory"
	"github.com/warp/timesheet-engine/logging"
	"github.com/warp/timesheet-engine/store/sqlite"
	"github.com/warp/timesheet-engine/timesheet"
)

const serviceName = "timesheet-api"

var rootCmd = &cobra.Command{
	Use:           "timesheet",
	Short:         "Weekly timesheet server",
	Long:          "Weekly timesheet server: employees fill a project-by-day hours grid, submit it, and admins review it.",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default ./config/timesheet.yaml)")
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// =============================================================================
// SERVE
// =============================================================================

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	app, err := openApp(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}
	defer app.Close()

	auth := api.NewAuth(cfg.Auth.Secret, cfg.Auth.Issuer, cfg.Auth.TokenExpiry)
	router := api.NewRouter(app.handler, auth, api.RouterOptions{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Logger:         log,
	})

	sweeper := api.NewSessionSweeper(app.service.Sessions(), log)
	sweeper.CheckInterval = cfg.Sessions.SweepInterval
	sweeper.IdleTimeout = cfg.Sessions.IdleTimeout
	sweeper.Start()
	defer sweeper.Stop()

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", server.Addr).Str("environment", cfg.Server.Environment).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("shutting down server")
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info().Msg("server stopped")
	return nil
}

// =============================================================================
// WIRING
// =============================================================================

// app is the set of long-lived dependencies shared by serve and seed.
type app struct {
	store     *sqlite.Store
	publisher *events.Publisher
	service   *timesheet.Service
	handler   *api.Handler
	log       zerolog.Logger
}

func loadConfig(cmd *cobra.Command) (*config.Config, zerolog.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("failed to load config: %w", err)
	}
	log := logging.New(serviceName, cfg.Server.Environment)
	if cfg.Auth.Secret == config.DevSecret {
		log.Warn().Msg("using the development signing secret; set TIMESHEET_AUTH_SECRET")
	}
	return cfg, log, nil
}

func openApp(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*app, error) {
	if cfg.Database.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	a := &app{store: store, log: log}

	policy, err := resolvePolicy(ctx, store, cfg.Rules, log)
	if err != nil {
		a.Close()
		return nil, err
	}

	deps := timesheet.Deps{
		Projects:   store,
		Timesheets: store,
		Holidays:   store,
		Logger:     log,
	}
	if cfg.RabbitMQ.URL != "" {
		a.publisher, err = events.Dial(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange, serviceName, log)
		if err != nil {
			// Events are best effort; the API runs without them.
			log.Warn().Err(err).Msg("event publishing disabled")
		} else {
			deps.Notifier = a.publisher
		}
	}

	a.service, err = timesheet.NewService(deps, policy)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create timesheet service: %w", err)
	}
	a.handler = api.NewHandler(store, a.service)
	return a, nil
}

// resolvePolicy prefers the rules an admin stored over the configured ones.
func resolvePolicy(ctx context.Context, store *sqlite.Store, configured factory.RulesJSON, log zerolog.Logger) (timesheet.Policy, error) {
	f := factory.NewPolicyFactory()

	doc, err := store.LoadRules(ctx)
	if err != nil {
		return timesheet.Policy{}, fmt.Errorf("failed to load stored rules: %w", err)
	}
	if doc != "" {
		policy, err := f.ParseRules(doc)
		if err == nil {
			log.Info().Msg("using stored timesheet rules")
			return policy, nil
		}
		log.Warn().Err(err).Msg("stored timesheet rules are invalid, falling back to configuration")
	}

	policy, err := f.FromJSON(configured)
	if err != nil {
		return timesheet.Policy{}, fmt.Errorf("invalid configured rules: %w", err)
	}
	return policy, nil
}

func (a *app) Close() {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close event publisher")
		}
	}
	if err := a.store.Close(); err != nil {
		a.log.Warn().Err(err).Msg("failed to close database")
	}
}
