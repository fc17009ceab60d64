package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mcp-gateway/internal/auth"
	"mcp-gateway/internal/cache"
	"mcp-gateway/internal/config"
	"mcp-gateway/internal/dispatch"
	"mcp-gateway/internal/logger"
	"mcp-gateway/internal/registry"
	"mcp-gateway/internal/server"
)

const (
	ExitCodeOK    = 0
	ExitCodeError = 1
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(ExitCodeError)
	}

	log, err := setupLogging(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(ExitCodeError)
	}

	srv, err := setupServer(cfg, log)
	if err != nil {
		log.Error("Failed to setup server", "error", err)
		os.Exit(ExitCodeError)
	}

	if err := runServer(srv, cfg, log); err != nil {
		log.Error("Server startup failed", "error", err)
		os.Exit(ExitCodeError)
	}

	gracefulShutdown(srv, log)

	os.Exit(ExitCodeOK)
}

// setupLogging initializes the logger with the given configuration
func setupLogging(cfg *config.Config) (*logger.Logger, error) {
	return logger.New(logger.Config{
		Level:       cfg.Logger.Level,
		Format:      cfg.Logger.Format,
		Service:     cfg.Logger.Service,
		Version:     cfg.Logger.Version,
		Environment: cfg.Environment,
	})
}

// setupServer wires the registry, resolver, dispatcher and HTTP server, then
// runs the capability registration pass.
func setupServer(cfg *config.Config, log *logger.Logger) (*server.Server, error) {
	log.Info("Setting up server",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"version", cfg.Logger.Version,
		"auth_mode", cfg.Auth.Mode)

	reg := registry.New(log)
	store := cache.New()

	if err := registerAllCapabilities(reg, cfg, store, log); err != nil {
		return nil, fmt.Errorf("failed to register capabilities: %w", err)
	}

	tools, resources, templates, prompts := reg.Counts()
	log.Info("Capability registration complete",
		"tools", tools,
		"resources", resources,
		"resource_templates", templates,
		"prompts", prompts)

	resolver := auth.NewResolver(cfg.Auth, log)
	dispatcher := dispatch.New(reg, log, cfg.Logger.Service, cfg.Logger.Version)

	return server.New(cfg, log, resolver, dispatcher), nil
}

// runServer starts the HTTP server and waits for a shutdown signal.
func runServer(srv *server.Server, cfg *config.Config, log *logger.Logger) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server failed", "error", err)
			serverErrChan <- err
		}
	}()

	log.Info("Gateway is running",
		"streamable_endpoint", fmt.Sprintf("http://%s:%d/mcp", cfg.Server.Host, cfg.Server.Port),
		"sse_endpoint", fmt.Sprintf("http://%s:%d/sse", cfg.Server.Host, cfg.Server.Port))

	select {
	case sig := <-sigChan:
		log.Info("Received shutdown signal", "signal", sig.String())
		return nil
	case err := <-serverErrChan:
		return err
	}
}

func gracefulShutdown(srv *server.Server, log *logger.Logger) {
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	log.Info("Shutting down HTTP server...")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Error during HTTP server shutdown", "error", err)
	} else {
		log.Info("HTTP server stopped gracefully")
	}
}
