package auth

import "go.uber.org/fx"

func Module() fx.Option {
	return fx.Module(
		"auth",
		fx.Provide(NewService),
	)
}
