package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"golang.org/x/sync/errgroup"

	"licport/internal/config"
	"licport/internal/infrastructure"
	customMiddleware "licport/internal/middleware"
	"licport/internal/services"
	"licport/internal/store"
	"licport/internal/store/postgres"
	handlers "licport/internal/transport/http"
)

// VERSION is the reported service version. Overridden at build time via
// -ldflags "-X licport/internal/app.VERSION=...".
var VERSION = "dev"

// Application represents the main application container
type Application struct {
	Config         *config.Config
	Router         *chi.Mux
	Server         *http.Server
	Store          store.Store
	LicenseService services.LicenseService
	HealthService  *services.HealthService
	Logger         *slog.Logger
	OTelProviders  *infrastructure.OTelProviders

	otelMiddleware *customMiddleware.OTelMiddleware
}

// NewApplication creates a new application instance with dependency injection
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("application starting",
		slog.String("name", config.AppName),
		slog.String("version", VERSION),
		slog.String("storage_driver", cfg.Storage.Driver))

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.DefaultOTelConfig(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
	}

	if err := app.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.setupRouter()
	app.createServer()

	return app, nil
}

// initializeServices wires the store and the business services.
func (a *Application) initializeServices() error {
	st, err := a.openStore()
	if err != nil {
		return err
	}
	a.Store = st

	// The OTel middleware is created here rather than in setupRouter so
	// the service layer records business metrics on the same instruments
	// the HTTP layer uses.
	otelMiddleware, err := customMiddleware.NewOTelMiddleware(a.OTelProviders)
	if err != nil {
		return fmt.Errorf("failed to create OpenTelemetry middleware: %w", err)
	}
	a.otelMiddleware = otelMiddleware

	a.LicenseService = services.NewLicenseService(st, a.Logger, otelMiddleware.Metrics())
	a.HealthService = services.NewHealthService(VERSION, st, a.Logger)

	return nil
}

// openStore selects the store backend from configuration.
func (a *Application) openStore() (store.Store, error) {
	switch a.Config.Storage.Driver {
	case config.StorageDriverPostgres:
		ctx, cancel := context.WithTimeout(context.Background(), config.StorePingTimeout)
		defer cancel()

		db, err := postgres.Connect(ctx, a.Config.Storage.DSN, a.Config.Storage.MaxConns)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		if err := postgres.RunMigrations(ctx, db, a.Logger); err != nil {
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		return postgres.NewStore(db), nil
	default:
		a.Logger.Warn("using in-memory store, data will not survive restarts")
		return store.NewMemoryStore(), nil
	}
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	// Applied to everything, including /metrics.
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	// Route group with the full middleware chain.
	// Ordering: RequestID → RealIP → OTel → Logger → Recoverer → the rest.
	r.Group(func(r chi.Router) {
		r.Use(a.otelMiddleware.Handler)
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(customMiddleware.Recoverer(a.Logger))
		r.Use(customMiddleware.SecurityHeaders)

		if a.Config.Security.EnableCORS {
			r.Use(customMiddleware.CORS(customMiddleware.CORSConfig{
				AllowedOrigins: a.Config.Security.AllowedOrigins,
				Logger:         a.Logger,
			}))
		}

		if a.Config.Security.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
			).Handler)
		}

		a.setupAPIRoutes(r)
	})

	// Prometheus metrics endpoint outside the middleware group.
	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle(config.MetricsEndpoint, a.OTelProviders.PrometheusHTTP)
	}

	a.Router = r
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router) {
	licenseHandler := handlers.NewLicenseHandler(a.LicenseService, a.Logger)
	verifyHandler := handlers.NewVerifyHandler(a.LicenseService, a.Logger)
	healthHandler := handlers.NewHealthHandler(a.HealthService, a.Logger)

	r.Route(config.APIBasePath, func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		// Verification is the one business route clients call without a token.
		r.Mount("/verify", verifyHandler.Routes())

		r.Group(func(r chi.Router) {
			r.Use(customMiddleware.Authenticator(a.Config.Auth.JWTSecret, a.Logger))
			r.Mount("/licenses", licenseHandler.Routes())
		})
	})

	r.Mount(config.HealthEndpoint, healthHandler.Routes())
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Run runs the application until interrupted or the server fails.
func (a *Application) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Logger.InfoContext(gctx, "server listening",
			slog.String("address", a.Server.Addr),
			slog.String("version", VERSION))
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		return a.Stop(context.Background())
	})

	return g.Wait()
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "error shutting down OpenTelemetry",
				slog.String("error", err.Error()))
		}
	}

	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			a.Logger.ErrorContext(ctx, "error closing store",
				slog.String("error", err.Error()))
		}
	}

	if err := infrastructure.CloseLogFile(); err != nil {
		a.Logger.ErrorContext(ctx, "error closing log file",
			slog.String("error", err.Error()))
	}

	a.Logger.InfoContext(ctx, "application shutdown complete")
	return nil
}
