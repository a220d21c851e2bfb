package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/aretw0/stepwise"
	httpAdapter "github.com/aretw0/stepwise/pkg/adapters/http"
	"github.com/aretw0/stepwise/pkg/domain"
	"github.com/aretw0/stepwise/pkg/observability"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Starts the engine behind an HTTP API. Chat surfaces post triggers to
/sessions/{id}/... and receive views, thread messages and state changes from
the /sessions/{id}/events stream.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		b, err := openStore(ctx, cfg, storeMemory)
		if err != nil {
			return err
		}
		defer b.Close()

		streams := httpAdapter.NewStreamManager(logger)
		hooks := []domain.LifecycleHooks{streams.Hooks(), observability.LoggingHooks(logger)}
		handlerOpts := []httpAdapter.Option{httpAdapter.WithStreams(streams), httpAdapter.WithLogger(logger)}

		if cfg.Metrics.Enabled {
			metrics := observability.NewMetrics()
			hooks = append(hooks, metrics.Hooks())
			handlerOpts = append(handlerOpts, httpAdapter.WithMetrics(metrics.Handler()))
		}

		engine, err := newEngine(ctx, cfg, streams, b, stepwise.WithLifecycleHooks(observability.Chain(hooks...)))
		if err != nil {
			return err
		}
		defer engine.Close()

		srv := &http.Server{
			Addr:              cfg.HTTP.Addr,
			Handler:           httpAdapter.NewHandler(engine, handlerOpts...),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("starting stepwise server", "addr", srv.Addr, "catalog", engine.Catalog().Info().Title)
			serverErrors <- srv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server error: %w", err)

		case <-ctx.Done():
			logger.Info("shutting down")

			// Give outstanding requests a deadline for completion.
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("graceful shutdown did not complete", "err", err)
				_ = srv.Close()
			}
			logger.Info("stepwise server stopped")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", ":8080", "Address to listen on")
	serveCmd.Flags().Bool("metrics", true, "Expose Prometheus metrics on /metrics")
	serveCmd.Flags().Int("chunk-size", 5, "Words revealed per frame")
	serveCmd.Flags().Duration("frame-delay", 40*time.Millisecond, "Delay between reveal frames")
	serveCmd.Flags().Duration("auto-advance", 2*time.Second, "Delay before steps without approval advance")
}
