package session

import (
	"context"

	"bebidas_pos/internal/config"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

func Module() fx.Option {
	return fx.Module(
		"session",
		fx.Provide(newStore),
		fx.Provide(func(store Store, cfg config.Config, logger *zap.Logger) *Session {
			return New(store, cfg.LocalID, logger)
		}),
		fx.Invoke(func(lc fx.Lifecycle, s *Session) {
			lc.Append(fx.Hook{
				OnStart: func(ctx context.Context) error {
					return s.Load(ctx)
				},
			})
		}),
	)
}

func newStore(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (Store, error) {
	switch {
	case cfg.RedisURL != "":
		store, err := NewRedisStore(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		lc.Append(fx.Hook{
			OnStop: func(_ context.Context) error {
				return store.Close()
			},
		})
		logger.Named("session").Debug("using redis state store")
		return store, nil
	case cfg.StateFile != "":
		return NewFileStore(cfg.StateFile), nil
	default:
		return NewMemoryStore(), nil
	}
}
