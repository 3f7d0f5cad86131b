package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"credit-risk-console/internal/server"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 30 * time.Second

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr != "" {
				app.cfg.Server.Address = addr
			}
			return runServe(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.address)")
	return cmd
}

func runServe(ctx context.Context) error {
	d, err := buildDeps(ctx, app.cfg, app.log, depsOptions{observability: true})
	if err != nil {
		return err
	}
	defer d.Close()

	if app.cfg.Server.Mode != "" {
		gin.SetMode(app.cfg.Server.Mode)
	}
	router := server.NewServer(d.service, d.store, d.client, app.log).SetupRouter()

	srv := &http.Server{
		Addr:              app.cfg.Server.Address,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		app.log.Info("HTTP server listening", map[string]interface{}{"address": srv.Addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	app.log.Info("Shutdown signal received, stopping server...", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		app.log.WithError(err).Error("Error shutting down server", nil)
		return err
	}
	app.log.Info("Server stopped", nil)
	return nil
}
