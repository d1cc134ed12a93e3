package internal

import (
	"context"

	"bebidas_pos/internal/api"
	"bebidas_pos/internal/auth"
	"bebidas_pos/internal/catalog"
	"bebidas_pos/internal/cli"
	"bebidas_pos/internal/config"
	"bebidas_pos/internal/llm"
	"bebidas_pos/internal/logging"
	"bebidas_pos/internal/metrics"
	"bebidas_pos/internal/orders"
	"bebidas_pos/internal/reports"
	"bebidas_pos/internal/session"

	"github.com/go-core-fx/logger"
	"go.uber.org/fx"
)

func Run() error {
	var runner *cli.Runner

	app := fx.New(
		logger.Module(),
		logger.WithFxDefaultLogger(),
		config.Module(),
		logging.Module(),
		metrics.Module(),
		session.Module(),
		api.Module(),
		auth.Module(),
		catalog.Module(),
		orders.Module(),
		reports.Module(),
		llm.Module(),
		cli.Module(),
		fx.Populate(&runner),
	)

	ctx := context.Background()
	if err := app.Start(ctx); err != nil {
		return err
	}
	defer func() {
		_ = app.Stop(ctx)
	}()

	return runner.Execute()
}
