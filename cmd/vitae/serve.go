package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aretw0/vitae"
	"github.com/aretw0/vitae/internal/presentation/tui"
	httpAdapter "github.com/aretw0/vitae/pkg/adapters/http"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP editing server",
	Long: `Starts the session server, exposing a JSON API over HTTP.
Sessions live in the store selected by the config (memory, file or redis).
Prometheus metrics are served on /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("port") {
			cfg.Server.Port, _ = cmd.Flags().GetInt("port")
		}
		logger := newLogger(cfg)

		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

		eng, cleanup, err := newEngine(cmd.Context(), cfg, logger, reg)
		if err != nil {
			return fmt.Errorf("error initializing vitae: %w", err)
		}
		defer cleanup()

		rewriters, err := newRewriters(cfg)
		if err != nil {
			return err
		}
		logger.Debug("Rewriters registered", "names", rewriters.Names())

		handler := httpAdapter.NewHandler(eng.Sessions(),
			httpAdapter.WithVersion(vitae.Version),
			httpAdapter.WithLogger(logger),
			httpAdapter.WithGatherer(reg),
			httpAdapter.WithRewriters(rewriters),
		)

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		serverErrors := make(chan error, 1)
		go func() {
			tui.PrintBanner(os.Stderr)
			logger.Info("Starting Vitae Server", "address", srv.Addr, "content", cfg.Content.Dir, "store", cfg.Store.Driver)
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server error: %w", err)

		case sig := <-shutdown:
			logger.Info("Start shutdown", "signal", sig.String())

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				logger.Error("Graceful shutdown did not complete", "timeout", 5*time.Second, "error", err)
				if err := srv.Close(); err != nil {
					return fmt.Errorf("error killing server: %w", err)
				}
			}
			logger.Info("Vitae Server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntP("port", "p", 8080, "Port to listen on (overrides config)")
}
