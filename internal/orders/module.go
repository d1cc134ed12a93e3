package orders

import (
	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module(
		"orders",
		fx.Provide(
			NewGateway,
			func(g *Gateway) Backend { return g },
		),
	)
}
