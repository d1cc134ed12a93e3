package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"bebidas_pos/internal/api"
	"bebidas_pos/internal/auth"
	"bebidas_pos/internal/cart"
	"bebidas_pos/internal/catalog"
	"bebidas_pos/internal/config"
	"bebidas_pos/internal/llm"
	"bebidas_pos/internal/metrics"
	"bebidas_pos/internal/orders"
	"bebidas_pos/internal/reports"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

func Module() fx.Option {
	return fx.Module(
		"cli",
		fx.Provide(NewRunner),
	)
}

// Params are the services the terminal front end drives.
type Params struct {
	fx.In

	Config    config.Config
	Logger    *zap.Logger
	Metrics   *metrics.Metrics
	Client    *api.Client
	Auth      *auth.Service
	Catalog   *catalog.Service
	Resolver  *catalog.Resolver
	Backend   orders.Backend
	Orders    *orders.Gateway
	Reports   *reports.Service
	Assistant *llm.Assistant
}

type Runner struct {
	params  Params
	options Options
	logger  *zap.Logger
	in      io.Reader
	out     io.Writer
	errOut  io.Writer
}

func NewRunner(p Params) *Runner {
	return &Runner{
		params: p,
		options: Options{
			Username: p.Config.Username,
			Password: p.Config.Password,
			LocalID:  p.Config.LocalID,
			Mode:     cart.VariantSale,
		},
		logger: p.Logger.Named("cli"),
		in:     os.Stdin,
		out:    os.Stdout,
		errOut: os.Stderr,
	}
}

func (r *Runner) Execute() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	return r.run(ctx, os.Args[1:])
}

func (r *Runner) run(ctx context.Context, args []string) error {
	opts := r.options
	var mode string

	fs := flag.NewFlagSet("bebidas-pos", flag.ContinueOnError)
	fs.SetOutput(r.errOut)
	fs.Usage = func() {
		fmt.Fprintf(r.errOut, "Usage: %s [flags]\n", fs.Name())
		fs.PrintDefaults()
	}

	fs.StringVar(&opts.Username, "user", opts.Username, "Username (USERNAME)")
	fs.StringVar(&opts.Password, "password", opts.Password, "Password (PASSWORD)")
	fs.StringVar(&opts.LocalID, "local", opts.LocalID, "Local (tenant) ID (LOCAL_ID)")
	fs.StringVar(&mode, "mode", modeLabel(opts.Mode), "Initial cart mode: venta or compra")
	fs.StringVar(&opts.Ask, "ask", "", "Ask the assistant one question and exit")
	fs.BoolVar(&opts.JSON, "json", false, "Output JSON format")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	variant, ok := parseMode(mode)
	if !ok {
		return fmt.Errorf("unknown mode %q", mode)
	}
	opts.Mode = variant

	sh := newShell(r.params, opts, r.in, r.out, r.logger)
	if err := sh.start(ctx); err != nil {
		return err
	}

	if opts.Ask != "" {
		return sh.askOnce(ctx, opts.Ask)
	}
	return sh.loop(ctx)
}
