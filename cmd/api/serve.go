package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"

	"github.com/swethakommuri/GEN-AI-DEMO/internal/infra/httpserver"
	"github.com/swethakommuri/GEN-AI-DEMO/internal/middleware"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := context.Background()
	a, err := buildApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	checks := map[string]middleware.HealthChecker{
		"generation": a.generation,
	}
	if a.db != nil {
		checks["audit_db"] = &middleware.DatabaseHealthChecker{DB: a.db}
	}

	// init router
	mux := chi.NewRouter()
	mux.Mount("/", httpserver.NewRouter(httpserver.Deps{
		Sessions:           a.sessions,
		Roles:              a.roles,
		Clients:            a.clients,
		Documents:          a.documents,
		Insights:           a.insights,
		Models:             a.generation,
		Exporter:           a.exporter,
		Audit:              a.audit,
		Metrics:            a.metrics,
		Logger:             logger,
		JWTSecret:          []byte(cfg.Auth.JWTSecret),
		AllowedOrigins:     cfg.Server.AllowedOrigins,
		ReadyChecks:        checks,
		DefaultModel:       cfg.Generation.DefaultModel,
		Workers:            cfg.Insights.Workers,
		MaxRetries:         cfg.Generation.MaxRetries,
		Timeout:            cfg.Generation.Timeout,
		RateLimitPerMinute: cfg.Insights.RateLimitPerMinute,
	}))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", addr, "provider", cfg.Generation.Provider,
			"audit", cfg.Audit.Driver != "", "archive", a.exporter != nil)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	select {
	case <-stop:
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}
	logger.Info("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	return nil
}
