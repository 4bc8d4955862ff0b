package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"cookiestatus/internal/api"
	"cookiestatus/internal/api/handler/v1handler"
	"cookiestatus/internal/checker"
	"cookiestatus/internal/config"
	"cookiestatus/pkg/logger"
	"cookiestatus/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func setupServer(ctx context.Context, cfg *config.Config, chk checker.Checker) func(ctx context.Context) {
	server, err := api.NewServer(api.Deps{
		Deps: v1handler.Deps{
			Checker:    chk,
			CookiesDir: cfg.Cookies.Dir,
			Version:    version,
		},
	}, api.NewOptions(cfg))
	if err != nil {
		logger.Fatal(ctx, "could not create webserver", zap.Error(err))
	}

	go func() {
		logger.Info(ctx, "starting webserver...", zap.String("addr", cfg.HTTP.Addr), zap.String("cookies_dir", cfg.Cookies.Dir))
		if err := server.ListenAndServe(); err != nil {
			if !errors.Is(err, http.ErrServerClosed) {
				logger.Error(ctx, "could not start webserver", zap.Error(err))
			}
		}
	}()

	return func(ctx context.Context) {
		logger.Info(ctx, "stopping webserver...")
		if err := server.Shutdown(ctx); err != nil {
			logger.Error(ctx, "could not stop webserver", zap.Error(err))
		}
	}
}

func serveCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Starts the cookie status API server",
		Run: func(cmd *cobra.Command, args []string) {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			mp, err := metrics.NewMeterProvider(prometheus.DefaultRegisterer)
			if err != nil {
				logger.Fatal(ctx, "could not create meter provider", zap.Error(err))
			}
			defer func() {
				if err := mp.Shutdown(context.Background()); err != nil {
					logger.Warn(ctx, "could not shut down meter provider", zap.Error(err))
				}
			}()

			chk := newChecker(ctx, cfg, mp.Meter(metrics.MeterName))

			// report the state once at startup so misconfigured directories show up in the logs
			status := chk.Check(ctx, cfg.Cookies.Dir)
			logger.Info(ctx, "initial cookie check",
				zap.Bool("valid", status.Valid),
				zap.String("reason", string(status.Reason)),
				zap.String("message", status.Message))

			stopWebserver := setupServer(ctx, cfg, chk)

			// wait for interrupt
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.GracefulShutdownTimeout)
			defer cancel()

			stopWebserver(shutdownCtx)
		},
	}

	return cmd
}
