package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/igorsal/iam-dashboard/api/handlers"
	"github.com/igorsal/iam-dashboard/api/middleware"
	"github.com/igorsal/iam-dashboard/internal/catalog"
	"github.com/igorsal/iam-dashboard/internal/config"
	"github.com/igorsal/iam-dashboard/internal/interfaces"
	"github.com/igorsal/iam-dashboard/internal/services"
	"github.com/igorsal/iam-dashboard/internal/session"
	"github.com/igorsal/iam-dashboard/internal/tester"
	"github.com/igorsal/iam-dashboard/internal/web"
	"github.com/igorsal/iam-dashboard/io/iam"
	"github.com/igorsal/iam-dashboard/pkg/logger"
	"github.com/igorsal/iam-dashboard/pkg/metrics"
)

const (
	DefaultVersion  = "1.0.0"
	ShutdownTimeout = 30 * time.Second
	IdleTimeout     = 120 * time.Second
)

// Application holds all dependencies
type Application struct {
	config     *config.Config
	logger     interfaces.Logger
	metrics    interfaces.MetricsCollector
	iamClient  interfaces.IAMClient
	catalog    *catalog.Catalog
	tester     interfaces.RequestTester
	sessions   *session.Store
	workspaces *services.WorkspaceRegistry
	renderer   *web.Renderer
	server     *http.Server
}

func main() {
	app, err := initializeApplication()
	if err != nil {
		fmt.Printf("Failed to initialize application: %v\n", err)
		os.Exit(1)
	}

	app.logger.Info("Starting IAM dashboard",
		"version", DefaultVersion,
		"backend", app.config.IAM.BaseURL,
		"tester_cors_mode", app.config.Tester.CORSMode,
	)

	if err := app.run(); err != nil {
		app.logger.Fatal("Application failed to run", err)
	}
}

// initializeApplication sets up all dependencies using dependency injection pattern
func initializeApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := logger.NewAdapter(cfg.Logging.Level, cfg.Logging.Format)
	metrics := metrics.NewPrometheusCollector(prometheus.DefaultRegisterer)

	endpoints, err := catalog.Default(cfg.IAM.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to load endpoint catalog: %w", err)
	}

	renderer, err := web.New(logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}

	app := &Application{
		config:    cfg,
		logger:    logger,
		metrics:   metrics,
		iamClient: iam.NewClient(cfg.IAM, logger, metrics),
		catalog:   endpoints,
		tester: tester.New(tester.Options{
			BaseURL:  cfg.IAM.BaseURL,
			Origin:   cfg.Tester.Origin,
			CORSMode: cfg.Tester.CORSMode,
		}, logger, metrics),
		sessions:   session.NewStore(cfg.Session.CookieSecure, logger),
		workspaces: services.NewWorkspaceRegistry(cfg.Session.WorkspaceTTL, logger, metrics),
		renderer:   renderer,
	}

	app.setupServer()

	return app, nil
}

// setupServer configures the HTTP server with all routes and middleware
func (app *Application) setupServer() {
	domainService := services.NewDomainService(app.iamClient, app.logger)
	roleService := services.NewRoleService(app.iamClient, app.logger)
	userService := services.NewUserService(app.iamClient, app.logger)

	healthHandler := handlers.NewHealthHandler(app.logger, app.config.IAM.BaseURL, app.workspaces.Len)
	authHandler := handlers.NewAuthHandler(app.iamClient, app.sessions, app.renderer, app.logger, app.metrics)
	dashboardHandler := handlers.NewDashboardHandler(app.catalog, app.renderer)
	domainHandler := handlers.NewDomainHandler(domainService, app.renderer, app.logger)
	roleHandler := handlers.NewRoleHandler(roleService, domainService, app.renderer, app.logger)
	userHandler := handlers.NewUserHandler(userService, roleService, domainService, app.renderer, app.logger)
	apiDocsHandler := handlers.NewAPIDocsHandler(
		app.catalog,
		app.tester,
		app.catalog.OpenAPI("Nusarithm IAM API", DefaultVersion),
		app.renderer,
		app.logger,
		app.config.Tester.Origin,
		app.config.Tester.CORSMode,
	)

	router := mux.NewRouter()

	// Apply global middleware in order
	router.Use(middleware.PanicRecoveryMiddleware(app.logger))
	router.Use(middleware.MetricsMiddleware(app.metrics))
	router.Use(middleware.LoggingMiddleware(app.logger))

	// Public endpoints
	router.HandleFunc("/health", healthHandler.Handle).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")
	router.HandleFunc("/login", authHandler.LoginPage).Methods("GET")
	router.HandleFunc("/login", authHandler.Login).Methods("POST")

	guard := middleware.SessionGuard(app.sessions, app.logger)
	workspace := middleware.Workspace(app.workspaces, app.config.Session.CookieSecure)
	release := middleware.ReleaseWorkspace(app.workspaces, app.config.Session.CookieSecure)

	// Explorer JSON endpoints answer CORS preflights before the session check
	explorerAPI := router.PathPrefix("/api-docs").Subrouter()
	explorerAPI.Use(middleware.CORS([]string{app.config.Tester.Origin}))
	explorerAPI.Use(guard)
	explorerAPI.Use(workspace)
	explorerAPI.HandleFunc("/run", apiDocsHandler.Run).Methods("POST", "OPTIONS")
	explorerAPI.HandleFunc("/openapi.json", apiDocsHandler.OpenAPI).Methods("GET", "OPTIONS")

	// Signed-in pages
	pages := router.PathPrefix("/").Subrouter()
	pages.Use(guard)
	pages.HandleFunc("/", dashboardHandler.Handle).Methods("GET")
	pages.Handle("/logout", release(http.HandlerFunc(authHandler.Logout))).Methods("POST")
	pages.HandleFunc("/domain", domainHandler.List).Methods("GET")
	pages.HandleFunc("/domain", domainHandler.Create).Methods("POST")
	pages.HandleFunc("/domain/{id}", domainHandler.Update).Methods("POST")
	pages.HandleFunc("/domain/{id}/delete", domainHandler.Delete).Methods("POST")
	pages.HandleFunc("/role", roleHandler.List).Methods("GET")
	pages.HandleFunc("/role", roleHandler.Create).Methods("POST")
	pages.HandleFunc("/user", userHandler.List).Methods("GET")
	pages.HandleFunc("/user", userHandler.Create).Methods("POST")
	pages.HandleFunc("/user/{id}/reset-password", userHandler.ResetPassword).Methods("POST")

	// API explorer pages, bound to the browser's workspace
	explorer := pages.PathPrefix("/api-docs").Subrouter()
	explorer.Use(workspace)
	explorer.HandleFunc("", apiDocsHandler.Page).Methods("GET")
	explorer.HandleFunc("/test", apiDocsHandler.Test).Methods("POST")

	app.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%s", app.config.Server.Host, app.config.Server.Port),
		Handler:      router,
		ReadTimeout:  app.config.Server.ReadTimeout,
		WriteTimeout: app.config.Server.WriteTimeout,
		IdleTimeout:  IdleTimeout,
	}
}

// run starts the application and handles graceful shutdown
func (app *Application) run() error {
	serverErrors := make(chan error, 1)

	go func() {
		cfg := app.config.Server
		app.logger.Info("Starting HTTP server",
			"host", cfg.Host,
			"port", cfg.Port,
			"tls", cfg.TLSEnabled(),
		)

		var err error
		if cfg.TLSEnabled() {
			err = app.server.ListenAndServeTLS(cfg.TLSCertFile, cfg.TLSKeyFile)
		} else {
			err = app.server.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	// Wait for interrupt signal or server error
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-serverErrors:
		app.workspaces.Stop()
		return fmt.Errorf("server failed to start: %w", err)

	case <-ctx.Done():
		app.logger.Info("Shutdown signal received")
		return app.gracefulShutdown()
	}
}

// gracefulShutdown performs graceful shutdown with timeout
func (app *Application) gracefulShutdown() error {
	app.logger.Info("Starting graceful shutdown")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	shutdownComplete := make(chan error, 1)

	go func() {
		if err := app.server.Shutdown(shutdownCtx); err != nil {
			shutdownComplete <- fmt.Errorf("server shutdown failed: %w", err)
			return
		}

		app.workspaces.Stop()
		app.logger.Info("All services shutdown successfully")
		shutdownComplete <- nil
	}()

	select {
	case err := <-shutdownComplete:
		if err != nil {
			app.logger.Error("Graceful shutdown failed", err)
			if closeErr := app.server.Close(); closeErr != nil {
				app.logger.Error("Force shutdown also failed", closeErr)
			}
			return err
		}
		app.logger.Info("Graceful shutdown completed successfully")
		return nil

	case <-shutdownCtx.Done():
		app.logger.Error("Shutdown timeout exceeded, forcing close", nil)
		if err := app.server.Close(); err != nil {
			app.logger.Error("Force shutdown failed", err)
		}
		return fmt.Errorf("shutdown timeout exceeded")
	}
}
