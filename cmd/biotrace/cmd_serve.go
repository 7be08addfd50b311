// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/BioTrace/services/agent/server"
)

// serveCmd starts the HTTP API server.
func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long: `Start the BioTrace HTTP API server.

Endpoints:
  POST /v1/ask       - Answer a free-form question
  POST /v1/cq/:id    - Answer one competency question
  GET  /v1/cqs       - List competency questions
  POST /v1/cqs/run   - Evaluate all competency questions
  GET  /healthz      - Health check
  GET  /metrics      - Prometheus metrics`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}
}

// runServer assembles the router and serves until SIGINT/SIGTERM.
func runServer(ctx context.Context) error {
	shutdown, err := initTelemetry(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = shutdown(context.Background()) }()

	factory, err := buildSessionFactory()
	if err != nil {
		return err
	}

	router := server.NewRouter(server.NewHandlers(factory))
	httpServer := &http.Server{
		Addr:         cfg.Server.ListenAddr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening",
			slog.String("addr", cfg.Server.ListenAddr),
			slog.String("provider", cfg.Provider),
			slog.Bool("sparql_configured", cfg.SPARQLEndpoint != ""),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-sigCh:
		slog.Info("Shutting down", slog.String("signal", sig.String()))
	case <-ctx.Done():
		slog.Info("Shutting down", slog.String("reason", "context canceled"))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	slog.Info("Server stopped")
	return nil
}
