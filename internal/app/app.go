package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"mdgate/internal/api"
	"mdgate/internal/config"
	"mdgate/internal/convert"
	"mdgate/internal/metrics"
)

// Run bootstraps the gateway and serves until ctx is canceled. The converter
// handle is built here, before the listener opens, so plugin problems show up
// in the startup log instead of on a request path.
func Run(ctx context.Context, addr string, settings config.Settings, logger *zap.Logger) error {
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return fmt.Errorf("invalid addr %q (expected host:port): %w", addr, err)
	}

	m := metrics.New()
	handle := convert.Bootstrap(settings, logger)
	logger.Info("converter ready",
		zap.Strings("converters", handle.Names()),
		zap.Bool("plugins", settings.EnablePlugins),
		zap.Int64("maxUploadBytes", settings.MaxUploadBytes))

	handler := api.New(api.Dependencies{
		Config:    settings,
		Converter: handle,
		Metrics:   m,
		Logger:    logger,
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
