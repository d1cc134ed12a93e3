package logging

import (
	"context"
	"os"

	"bebidas_pos/internal/config"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

func Module() fx.Option {
	return fx.Module(
		"logging",
		fx.Provide(openSink),
		fx.Decorate(func(base *zap.Logger, cfg config.Config, sink *os.File) *zap.Logger {
			return Tee(base, sink, cfg.Debug)
		}),
	)
}

// openSink opens the log file and closes it when the app stops.
func openSink(lc fx.Lifecycle, cfg config.Config) (*os.File, error) {
	sink, err := OpenLogFile(cfg.LogFile)
	if err != nil || sink == nil {
		return sink, err
	}
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			_ = sink.Sync()
			return sink.Close()
		},
	})
	return sink, nil
}
