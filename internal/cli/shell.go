package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"bebidas_pos/internal/api"
	"bebidas_pos/internal/cart"
	"bebidas_pos/internal/llm"
	"bebidas_pos/internal/orders"

	"go.uber.org/zap"
)

const expiredNotice = "Tu sesión expiró. Iniciá sesión nuevamente con 'login'."

type command struct {
	usage string
	help  string
	run   func(ctx context.Context, args []string) error
}

// shell is the interactive point of sale: one cart and one last-order panel
// per mode, sharing the session of the api client.
type shell struct {
	deps        Params
	opts        Options
	out         io.Writer
	scanner     *bufio.Scanner
	logger      *zap.Logger
	controllers map[cart.Variant]*orders.Controller
	mode        cart.Variant
	history     *llm.History
	commands    map[string]command
	expired     atomic.Bool
	now         func() time.Time
}

func newShell(p Params, opts Options, in io.Reader, out io.Writer, logger *zap.Logger) *shell {
	notifier := printNotifier{out: out, logger: logger}
	sh := &shell{
		deps:    p,
		opts:    opts,
		out:     out,
		scanner: bufio.NewScanner(in),
		logger:  logger,
		controllers: map[cart.Variant]*orders.Controller{
			cart.VariantSale:     orders.NewController(cart.New(cart.VariantSale), p.Backend, notifier, p.Metrics, p.Logger),
			cart.VariantPurchase: orders.NewController(cart.New(cart.VariantPurchase), p.Backend, notifier, p.Metrics, p.Logger),
		},
		mode: opts.Mode,
		now:  time.Now,
	}
	sh.history = p.Assistant.NewHistory()
	sh.commands = sh.commandTable()

	p.Client.OnSessionExpired(func(err error) {
		logger.Warn("session expired", zap.Error(err))
		if !sh.expired.Swap(true) {
			fmt.Fprintln(out, expiredNotice)
		}
	})
	return sh
}

func (s *shell) controller() *orders.Controller {
	return s.controllers[s.mode]
}

// start restores or opens the session, selects the local and warms the product cache.
func (s *shell) start(ctx context.Context) error {
	user, ok, err := s.deps.Auth.Restore(ctx)
	if err != nil {
		s.logger.Warn("session restore failed", zap.Error(err))
	}

	if !ok && s.opts.Username != "" && s.opts.Password != "" {
		user, err = s.deps.Auth.Login(ctx, s.opts.Username, s.opts.Password)
		if err != nil {
			return fmt.Errorf("login: %s", api.Message(err, "credenciales inválidas"))
		}
		ok = true
	}

	if s.opts.LocalID != "" && s.opts.LocalID != s.deps.Client.Session().Tenant() {
		if err := s.deps.Client.Session().SelectTenant(ctx, s.opts.LocalID); err != nil {
			return fmt.Errorf("select local: %w", err)
		}
	}

	if !ok {
		if s.opts.Ask == "" {
			fmt.Fprintln(s.out, "Sin sesión. Usá 'login' para ingresar.")
		}
		return nil
	}

	s.logger.Info("session ready",
		zap.String("user", user.Username),
		zap.String("local", s.deps.Client.Session().Tenant()),
	)
	if s.opts.Ask == "" {
		fmt.Fprintf(s.out, "Hola, %s. Local %s.\n", user.Username, s.deps.Client.Session().Tenant())
		s.loadProducts(ctx)
	}
	return nil
}

func (s *shell) loadProducts(ctx context.Context) {
	if err := s.deps.Resolver.Load(ctx, s.deps.Config.ProductCacheSize); err != nil {
		s.logger.Warn("product cache not loaded", zap.Error(err))
		return
	}
	s.logger.Debug("product cache loaded", zap.Int("products", len(s.deps.Resolver.Cached())))
}

func (s *shell) loop(ctx context.Context) error {
	fmt.Fprintln(s.out, "Bebidas POS (escribí 'help' para ver los comandos, 'exit' para salir)")

	for {
		if ctx.Err() != nil {
			return nil
		}
		fmt.Fprintf(s.out, "[%s] > ", modeLabel(s.mode))
		if !s.scanner.Scan() {
			return s.scanner.Err()
		}

		name, args := splitCommand(s.scanner.Text())
		switch name {
		case "":
			continue
		case "exit", "quit", "salir":
			return nil
		}
		s.exec(ctx, name, args)
	}
}

func (s *shell) exec(ctx context.Context, name string, args []string) {
	cmd, ok := s.commands[name]
	if !ok {
		fmt.Fprintf(s.out, "Comando desconocido %q. Escribí 'help'.\n", name)
		return
	}

	s.logger.Debug("command", zap.String("name", name), zap.Int("args", len(args)))
	if err := cmd.run(ctx, args); err != nil {
		s.report(err)
	}
}

// report prints errors that were not already shown by a controller notifier.
func (s *shell) report(err error) {
	var usage usageError
	var validation *orders.ValidationError
	var apiErr *api.APIError
	switch {
	case errors.As(err, &usage):
		fmt.Fprintf(s.out, "Uso: %s\n", usage.usage)
	case errors.As(err, &validation), errors.Is(err, errNotified):
	case errors.Is(err, context.Canceled):
		fmt.Fprintln(s.out, "Operación cancelada.")
	case errors.Is(err, api.ErrSessionExpired):
		if !s.expired.Load() {
			fmt.Fprintln(s.out, expiredNotice)
		}
	case errors.As(err, &apiErr):
		fmt.Fprintf(s.out, "✘ %s\n", api.Message(err, apiErr.Status))
	default:
		fmt.Fprintf(s.out, "✘ %s\n", localize(err))
	}
}

func (s *shell) askOnce(ctx context.Context, question string) error {
	answer, err := s.deps.Assistant.Ask(ctx, s.history, question)
	if err != nil {
		return err
	}
	s.writeAnswer(answer)
	return nil
}

func (s *shell) writeAnswer(answer llm.Answer) {
	if s.opts.JSON {
		_ = s.writeJSON(answer)
		return
	}
	text := strings.TrimSpace(answer.Text)
	if text == "" {
		text = "(sin respuesta)"
	}
	fmt.Fprintln(s.out, text)
	if len(answer.ToolCalls) > 0 {
		names := make([]string, 0, len(answer.ToolCalls))
		for _, c := range answer.ToolCalls {
			names = append(names, c.Name)
		}
		s.logger.Debug("assistant tools", zap.Strings("tools", names))
	}
}

func (s *shell) writeJSON(v any) error {
	enc := json.NewEncoder(s.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (s *shell) prompt(label string) (string, bool) {
	fmt.Fprint(s.out, label)
	if !s.scanner.Scan() {
		return "", false
	}
	return strings.TrimSpace(s.scanner.Text()), true
}

func (s *shell) writeHelp() {
	names := make([]string, 0, len(s.commands))
	for name := range s.commands {
		names = append(names, name)
	}
	sort.Strings(names)

	tw := newTable(s.out)
	for _, name := range names {
		cmd := s.commands[name]
		fmt.Fprintf(tw, "  %s\t%s\n", cmd.usage, cmd.help)
	}
	fmt.Fprintf(tw, "  exit\tSalir\n")
	_ = tw.Flush()
}

// splitCommand separates the command word from its arguments. Double quotes
// group words into one argument.
func splitCommand(line string) (string, []string) {
	var (
		fields  []string
		current strings.Builder
		quoted  bool
		pending bool
	)
	for _, r := range strings.TrimSpace(line) {
		switch {
		case r == '"':
			quoted = !quoted
			pending = true
		case (r == ' ' || r == '\t') && !quoted:
			if pending {
				fields = append(fields, current.String())
				current.Reset()
				pending = false
			}
		default:
			current.WriteRune(r)
			pending = true
		}
	}
	if pending {
		fields = append(fields, current.String())
	}
	if len(fields) == 0 {
		return "", nil
	}
	return strings.ToLower(fields[0]), fields[1:]
}
