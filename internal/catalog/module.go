package catalog

import (
	"bebidas_pos/internal/config"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

func Module() fx.Option {
	return fx.Module(
		"catalog",
		fx.Provide(NewService),
		fx.Provide(func(svc *Service, cfg config.Config, logger *zap.Logger) *Resolver {
			return NewResolver(svc, cfg.SearchPageSize, logger)
		}),
	)
}
