package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/lehigh-university-libraries/photobooth/internal/booth"
	"github.com/lehigh-university-libraries/photobooth/internal/handlers"
	"github.com/lehigh-university-libraries/photobooth/internal/source"
	"github.com/spf13/cobra"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start web server for the booth page and API",
		Long: `Starts the photo booth web interface on the specified port.

The page shows a filtered live preview, runs countdown sessions and offers
the finished strip as photo-strip.png. If the image source cannot be opened
the server still starts, with capture disabled.`,
		Example: `  # Start server on default port 8888 with the test pattern
  photobooth serve

  # Use a network camera snapshot endpoint on port 3000
  photobooth serve --port 3000 --source http://camera.local/snapshot.jpg`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.cfg
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}
			if err := applySourceFlags(cmd, &cfg); err != nil {
				return err
			}

			src, err := source.Open(cfg.Source)
			b := booth.New(src, err, booth.Options{
				Settings:   cfg.SequencerSettings(),
				Filter:     cfg.SelectedFilter(),
				DateLayout: cfg.DateLayout,
			})
			defer b.Close()
			if err := b.SourceError(); err != nil {
				slog.Error("Unable to open image source, capture disabled", "source", cfg.Source, "err", err)
			}

			runCtx, cancelRuns := context.WithCancel(cmd.Context())
			defer cancelRuns()
			handler := handlers.New(runCtx, b, cfg.DateLayout)

			addr := ":" + cfg.Port
			server := &http.Server{
				Addr:              addr,
				Handler:           handler.Routes(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Photo booth available", "addr", addr, "url", "http://localhost"+addr, "source", cfg.Source)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
				cancelRuns()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "8888", "Port to listen on")
	addSourceFlags(cmd)

	return cmd
}
