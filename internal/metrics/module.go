package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"bebidas_pos/internal/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func Module() fx.Option {
	return fx.Module(
		"metrics",
		fx.Provide(func() *prometheus.Registry {
			return prometheus.NewRegistry()
		}),
		fx.Provide(func(reg *prometheus.Registry) *Metrics {
			return New(reg)
		}),
		fx.Invoke(serve),
	)
}

func serve(lc fx.Lifecycle, cfg config.Config, reg *prometheus.Registry, logger *zap.Logger) {
	if cfg.MetricsAddr == "" {
		return
	}
	logger = logger.Named("metrics")

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{
		Addr:              cfg.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("metrics server stopped", zap.Error(err))
				}
			}()
			logger.Info("metrics server listening", zap.String("addr", cfg.MetricsAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}
