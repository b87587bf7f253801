package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ha1tch/qaflow/pkg/api"
)

func (a *app) serveCmd() *cobra.Command {
	var (
		addr   string
		sample bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a flow session over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = a.cfg.Server.Addr
			}

			log, err := newLogger(a.cfg.Log, false)
			if err != nil {
				return err
			}
			defer log.Sync()

			sess := a.newSession(log)
			if sample {
				if err := buildSample(sess, pixelLayout); err != nil {
					return err
				}
			}

			srv := api.NewServer(sess,
				api.WithLogger(log),
				api.WithCORSOrigins(a.cfg.Server.CORSOrigins...),
			)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, log, addr, srv.Routes())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	cmd.Flags().BoolVar(&sample, "sample", false, "start with the sample flow")
	return cmd
}

// serve runs an HTTP server until ctx is done, then shuts it down
// gracefully.
func serve(ctx context.Context, log *zap.Logger, addr string, h http.Handler) error {
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", zap.String("addr", addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
		return err
	}
	log.Info("Server exited")
	return nil
}
