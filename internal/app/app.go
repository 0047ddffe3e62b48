package app

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"datalens/internal/config"
	"datalens/internal/dataset"
	"datalens/internal/errors"
	"datalens/internal/infrastructure"
	customMiddleware "datalens/internal/middleware"
	"datalens/internal/services"
	handlers "datalens/internal/transport/http"
	ws "datalens/internal/websocket"
)

const (
	Version = "1.0.0"
	AppName = "DataLens - CSV Exploration Service"
)

// BuildTime is set at compile time via -ldflags.
var BuildTime = ""

// janitorInterval is how often expired datasets are pruned.
const janitorInterval = 5 * time.Minute

// Application is the composition root: configuration, services, router and
// HTTP server.
type Application struct {
	Config *config.Config
	Router *chi.Mux
	Server *http.Server

	Store          *dataset.Store
	WebSocketHub   *ws.Hub
	DatasetService *services.DatasetService
	ProfileService *services.ProfileService
	HealthService  *services.HealthService

	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.ExplorerMetrics
	FrontendFS    fs.FS

	janitorCancel context.CancelFunc
}

// NewApplication wires the whole service. frontendFS, when non-nil, is the
// embedded browser UI served at the root.
func NewApplication(frontendFS fs.FS) (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := cfg.EnsureLogDir(); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("application starting",
		slog.String("name", AppName),
		slog.String("version", Version))

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.DefaultOTelConfig(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	metrics, err := infrastructure.CreateExplorerMetrics(otelProviders.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
		Metrics:       metrics,
		FrontendFS:    frontendFS,
	}

	app.initializeServices()
	app.setupRouter()
	app.createServer()

	return app, nil
}

// initializeServices builds the store, hub and service layer.
func (a *Application) initializeServices() {
	a.Store = dataset.NewStore(a.Config.Datasets.MaxDatasets, a.Config.Datasets.TTL, a.Logger)

	a.WebSocketHub = ws.NewHub(a.Logger)
	a.WebSocketHub.Start()

	a.DatasetService = services.NewDatasetService(a.Store, a.Config.Datasets, a.WebSocketHub, a.Metrics, a.Logger)
	a.ProfileService = services.NewProfileService(a.Store, a.Config.Datasets, a.WebSocketHub, a.Metrics, a.Logger)
	a.HealthService = services.NewHealthService(Version, BuildTime, a.Store, a.WebSocketHub, a.Logger)
}

// setupRouter configures the HTTP router. Middleware ordering:
// RequestID → RealIP → Metrics → Logger → Recoverer → SecurityHeaders →
// CORS → RateLimit, with per-group timeouts inside /api.
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	// Minimal middleware only, these do not wrap the ResponseWriter and so
	// stay websocket-safe.
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	// WebSocket route before the full middleware group: timeout and
	// compression middleware break the upgrade.
	wsHandler := handlers.NewWebSocketHandler(a.WebSocketHub, a.checkWSOrigin, a.Logger)
	r.HandleFunc("/ws", wsHandler.ServeHTTP)

	r.Group(func(r chi.Router) {
		r.Use(customMiddleware.Metrics(a.Metrics))
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(customMiddleware.Recoverer(a.Logger))
		r.Use(customMiddleware.SecurityHeaders)

		if a.Config.Security.EnableCORS {
			r.Use(customMiddleware.CORS(customMiddleware.CORSConfig{
				AllowedOrigins: a.Config.Security.AllowedOrigins,
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

		if a.FrontendFS != nil {
			a.setupStaticRoutes(r)
		}
	})

	// Prometheus endpoint outside the middleware group.
	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	a.Router = r
}

// setupAPIRoutes mounts the JSON API.
func (a *Application) setupAPIRoutes(r chi.Router) {
	errorHandler := errors.NewErrorHandler(a.Logger, a.Config.Logging.Development)

	healthHandler := handlers.NewHealthHandler(a.HealthService, a.Logger, errorHandler)
	profileHandler := handlers.NewProfileHandler(a.ProfileService, a.Logger, errorHandler)
	datasetHandler := handlers.NewDatasetHandler(
		a.DatasetService, a.Config.Datasets.MaxUploadBytes, a.Logger, errorHandler)

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.NotFound(errorHandler.NotFound)
		r.MethodNotAllowed(errorHandler.MethodNotAllowed)

		r.Group(func(r chi.Router) {
			r.Use(customMiddleware.Timeout(a.Config.Server.ReadTimeout, a.Logger))
			r.Mount("/health", healthHandler.Routes())
		})

		// Uploads and profiling get the longer budget.
		r.Group(func(r chi.Router) {
			r.Use(customMiddleware.Timeout(a.Config.Server.UploadTimeout, a.Logger))
			r.Mount("/datasets", datasetHandler.Routes(profileHandler))
		})
	})
}

// setupStaticRoutes serves the embedded single-page UI.
func (a *Application) setupStaticRoutes(r chi.Router) {
	fileServer := http.FileServer(http.FS(a.FrontendFS))

	r.Get("/*", func(w http.ResponseWriter, req *http.Request) {
		if _, err := fs.Stat(a.FrontendFS, req.URL.Path[1:]); err != nil && req.URL.Path != "/" {
			// SPA fallback, unknown paths get the shell.
			req.URL.Path = "/"
		}
		fileServer.ServeHTTP(w, req)
	})
}

// checkWSOrigin applies the CORS origin list to websocket upgrades.
func (a *Application) checkWSOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range a.Config.Security.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

// createServer builds the http.Server with the configured timeouts.
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
	// Uploads can outlive ReadTimeout, stretch the read budget to cover them.
	if a.Config.Server.UploadTimeout > a.Server.ReadTimeout {
		a.Server.ReadTimeout = a.Config.Server.UploadTimeout
	}
}

// Run starts the server and blocks until shutdown.
func (a *Application) Run() error {
	janitorCtx, cancel := context.WithCancel(context.Background())
	a.janitorCancel = cancel
	a.Store.StartJanitor(janitorCtx, janitorInterval)

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info("server listening",
			slog.String("addr", a.Server.Addr),
			slog.Int("port", a.Config.Server.Port))
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		cancel()
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		a.Logger.Info("shutdown signal received", slog.String("signal", sig.String()))
	}

	return a.Shutdown()
}

// Shutdown stops the server, hub and background workers gracefully.
func (a *Application) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
	defer cancel()

	if a.janitorCancel != nil {
		a.janitorCancel()
	}

	if err := a.Server.Shutdown(ctx); err != nil {
		a.Logger.Error("server shutdown failed", slog.String("error", err.Error()))
		return err
	}

	a.WebSocketHub.Stop()

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(ctx); err != nil {
			a.Logger.Warn("telemetry shutdown failed", slog.String("error", err.Error()))
		}
	}

	infrastructure.CloseLogFile()
	a.Logger.Info("shutdown complete")
	return nil
}
