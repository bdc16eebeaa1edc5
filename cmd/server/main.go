// Package main provides the entry point for the agent HTTP service.
// It initializes all dependencies, sets up HTTP routes with middleware,
// and starts the server with graceful shutdown support.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/NirelNemirovsky/open-deep-research/internal/config"
	"github.com/NirelNemirovsky/open-deep-research/internal/handlers"
	"github.com/NirelNemirovsky/open-deep-research/internal/identity"
	"github.com/NirelNemirovsky/open-deep-research/internal/middleware"
	"github.com/NirelNemirovsky/open-deep-research/pkg/logger"
)

func main() {
	// Load .env file only in development (when GO_ENV is not set or set to "development")
	goEnv := os.Getenv("GO_ENV")
	if goEnv == "" || goEnv == "development" {
		if err := godotenv.Load(".env"); err != nil {
			// Only log if the error is not "file not found"
			if !os.IsNotExist(err) {
				fmt.Fprintf(os.Stderr, "Warning: Error loading .env file: %v\n", err)
			}
		}
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewWithConfig(&cfg.Logging)
	log.Info("Starting agent service")
	log.WithFields(logrus.Fields{
		"version":  "1.0.0",
		"port":     cfg.Server.Port,
		"host":     cfg.Server.Host,
		"provider": cfg.Identity.Provider,
		"tls":      cfg.IsTLSEnabled(),
	}).Info("Service configuration loaded")

	// Initialize the identity provider
	provider, err := identity.NewProvider(&cfg.Identity, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize identity provider")
	}

	// Set up HTTP server
	server := setupServer(cfg, provider, log)

	// Start and run server with graceful shutdown
	runServer(server, cfg, log)
}

func setupServer(cfg *config.Config, provider identity.Provider, log *logrus.Logger) *http.Server {
	// Initialize metrics and handlers
	metrics := handlers.NewMetrics(prometheus.DefaultRegisterer)
	healthHandler := handlers.NewHealthHandler(cfg, provider, metrics, log)
	docsHandler := handlers.NewDocsHandler(log)
	identityHandler := handlers.NewIdentityHandler(log)

	// Initialize middleware
	middlewareStack := middleware.NewStack(cfg, provider, metrics, log)

	// Set up routes
	router := mux.NewRouter()

	// Probe and documentation endpoints stay outside identity resolution so
	// the container smoke test can reach them without credentials.
	router.HandleFunc("/health", healthHandler.Health).Methods("GET")
	router.HandleFunc("/health/live", healthHandler.Liveness).Methods("GET")
	router.HandleFunc("/health/ready", healthHandler.Readiness).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")
	router.HandleFunc("/docs", docsHandler.Docs).Methods("GET")
	router.HandleFunc("/openapi.json", docsHandler.OpenAPI).Methods("GET")

	// API v1 router with /api/v1/agent prefix, identity resolved per request
	apiV1Router := router.PathPrefix("/api/v1/agent").Subrouter()
	apiV1Router.Use(middlewareStack.Identity)
	apiV1Router.HandleFunc("/whoami", identityHandler.WhoAmI).Methods("GET")

	// Apply middleware to the entire router
	finalHandler := middlewareStack.Chain(
		router,
		middlewareStack.Recovery,
		middlewareStack.RequestLogger,
		middlewareStack.SecurityHeaders,
	)

	// Create HTTP server
	return &http.Server{
		Addr:         cfg.ServerAddr(),
		Handler:      finalHandler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
}

func runServer(server *http.Server, cfg *config.Config, log *logrus.Logger) {
	// Start server in a goroutine
	go startServer(server, cfg, log)

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Create context with timeout for graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// Attempt graceful shutdown
	if shutdownErr := server.Shutdown(shutdownCtx); shutdownErr != nil {
		log.WithError(shutdownErr).Error("Server forced to shutdown")
	} else {
		log.Info("Server exited gracefully")
	}
}

func startServer(server *http.Server, cfg *config.Config, log *logrus.Logger) {
	log.WithFields(logrus.Fields{
		"addr": server.Addr,
		"tls":  cfg.IsTLSEnabled(),
	}).Info("Starting HTTP server")

	var startErr error
	if cfg.IsTLSEnabled() {
		startErr = server.ListenAndServeTLS(cfg.Server.TLSCert, cfg.Server.TLSKey)
	} else {
		startErr = server.ListenAndServe()
	}

	if startErr != nil && startErr != http.ErrServerClosed {
		log.WithError(startErr).Fatal("Failed to start server")
	}
}
