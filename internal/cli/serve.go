package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/vietddude/storefront/internal/health"
	"github.com/vietddude/storefront/internal/infra/api/apitest"
)

func newServeCmd(opts *options) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Probe API connectivity and serve /health and /metrics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("port") {
				port = opts.cfg.Server.Port
			}

			prober := health.NewProber(opts.client, opts.cfg.Server.ProbeInterval)
			prober.OnChange(func(online bool) {
				slog.Info("Connectivity changed", "online", online)
			})
			monitor := health.NewMonitor(opts.client.BaseURL(), prober, opts.client.Monitor())
			server := health.NewServer(monitor, port)

			ctx := cmd.Context()
			go prober.Run(ctx)

			errCh := make(chan error, 1)
			go func() {
				errCh <- server.Start()
			}()

			slog.Info("Storefront health server started", "address", server.Addr(), "api", opts.client.BaseURL())

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("health server: %w", err)
				}
				return nil
			case <-ctx.Done():
				slog.Info("Received signal, shutting down...")
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := server.Stop(shutdownCtx); err != nil {
				slog.Error("Error during shutdown", "error", err)
				return err
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&port, "port", 8080, "port for the health server")
	return cmd
}

func newMockAPICmd(opts *options) *cobra.Command {
	var port int
	var latency time.Duration

	cmd := &cobra.Command{
		Use:   "mock-api",
		Short: "Run an in-process fake marketplace API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			handler := apitest.NewHandler(nil)
			if latency > 0 {
				handler.SetDelay(func(*http.Request) time.Duration { return latency })
			}

			server := &http.Server{
				Addr:              fmt.Sprintf(":%d", port),
				Handler:           handler,
				ReadHeaderTimeout: 5 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				errCh <- server.ListenAndServe()
			}()
			slog.Info("Mock API started", "base_url", fmt.Sprintf("http://localhost:%d%s", port, apitest.Prefix))

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("mock api: %w", err)
				}
				return nil
			case <-cmd.Context().Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().IntVar(&port, "port", 8081, "listen port")
	cmd.Flags().DurationVar(&latency, "latency", 0, "artificial latency added to every response")
	return cmd
}
