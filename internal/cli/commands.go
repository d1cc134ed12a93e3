package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"bebidas_pos/internal/auth"
	"bebidas_pos/internal/cart"
	"bebidas_pos/internal/catalog"
	"bebidas_pos/internal/orders"
	"bebidas_pos/internal/reports"
	"bebidas_pos/internal/session"
)

// errNotified marks failures the controller notifier already printed.
var errNotified = errors.New("notified")

type usageError struct {
	usage string
}

func (e usageError) Error() string {
	return "usage: " + e.usage
}

func localize(err error) string {
	switch {
	case errors.Is(err, orders.ErrBusy):
		return "Hay una operación en curso, esperá a que termine."
	case errors.Is(err, orders.ErrNoLastOrder):
		return "No hay ninguna operación confirmada para anular."
	case errors.Is(err, orders.ErrAlreadyAnnulled):
		return "La última operación ya está ANULADA."
	case errors.Is(err, orders.ErrNotConfirmed):
		return "Sólo se puede anular una operación CONFIRMADA."
	case errors.Is(err, cart.ErrLineNotFound):
		return "Ese renglón no existe."
	case errors.Is(err, cart.ErrUnknownField):
		return "Campo desconocido: usá cantidad, precio, bonif o impuestos."
	case errors.Is(err, auth.ErrMissingCredentials):
		return "Ingresá usuario y contraseña."
	case errors.Is(err, reports.ErrInvalidRange):
		return "El rango de fechas es inválido."
	default:
		return err.Error()
	}
}

func (s *shell) commandTable() map[string]command {
	qty := s.setField(cart.FieldQuantity, "qty <renglón> <cantidad>")
	price := s.setField(cart.FieldUnitAmount, "price <renglón> <monto>")
	discount := s.setField(cart.FieldDiscount, "discount <renglón> <monto>")
	tax := s.setField(cart.FieldTax, "tax <renglón> <monto>")

	return map[string]command{
		"help":      {usage: "help", help: "Muestra esta ayuda", run: func(context.Context, []string) error { s.writeHelp(); return nil }},
		"login":     {usage: "login [usuario] [contraseña]", help: "Inicia sesión", run: s.login},
		"logout":    {usage: "logout", help: "Cierra la sesión", run: s.logout},
		"whoami":    {usage: "whoami", help: "Usuario, roles y local actual", run: s.whoami},
		"locales":   {usage: "locales", help: "Lista los locales", run: s.locales},
		"local":     {usage: "local <id>", help: "Selecciona el local de trabajo", run: s.selectLocal},
		"mode":      {usage: "mode [venta|compra]", help: "Cambia entre ventas y compras", run: s.switchMode},
		"suppliers": {usage: "suppliers", help: "Lista los proveedores", run: s.suppliers},
		"supplier":  {usage: "supplier <id>", help: "Proveedor de la compra", run: s.selectSupplier},
		"products":  {usage: "products [texto] [página]", help: "Busca en el catálogo", run: s.products},
		"add":       {usage: "add <código|nombre|barras>", help: "Agrega un producto al carrito", run: s.add},
		"set":       {usage: "set <renglón> <campo> <valor>", help: "Edita un renglón del carrito", run: s.set},
		"qty":       {usage: qty.usage, help: "Cambia la cantidad", run: qty.run},
		"price":     {usage: price.usage, help: "Cambia el precio o costo unitario", run: price.run},
		"discount":  {usage: discount.usage, help: "Cambia la bonificación", run: discount.run},
		"tax":       {usage: tax.usage, help: "Cambia los impuestos", run: tax.run},
		"rm":        {usage: "rm <renglón>", help: "Quita un renglón", run: s.remove},
		"cart":      {usage: "cart", help: "Muestra el carrito", run: s.showCart},
		"cancel":    {usage: "cancel", help: "Vacía el carrito", run: s.cancel},
		"confirm":   {usage: "confirm", help: "Crea y confirma la operación", run: s.confirm},
		"annul":     {usage: "annul [force]", help: "Anula la última operación confirmada", run: s.annul},
		"last":      {usage: "last", help: "Muestra la última operación", run: s.last},
		"history":   {usage: "history [período] [estado]", help: "Historial del modo actual", run: s.historyCmd},
		"order":     {usage: "order <id>", help: "Detalle de una operación", run: s.order},
		"report":    {usage: "report [período]", help: "Resumen financiero", run: s.financial},
		"top":       {usage: "top [período] [límite]", help: "Productos más vendidos", run: s.top},
		"today":     {usage: "today", help: "Resumen del día", run: s.today},
		"ask":       {usage: "ask <pregunta>", help: "Consulta al asistente", run: s.ask},
		"clear":     {usage: "clear", help: "Reinicia la conversación del asistente", run: s.clearHistory},
	}
}

func (s *shell) login(ctx context.Context, args []string) error {
	var username, password string
	if len(args) > 0 {
		username = args[0]
	}
	if len(args) > 1 {
		password = args[1]
	}
	if username == "" {
		var ok bool
		if username, ok = s.prompt("Usuario: "); !ok {
			return nil
		}
	}
	if password == "" {
		var ok bool
		if password, ok = s.prompt("Contraseña: "); !ok {
			return nil
		}
	}

	user, err := s.deps.Auth.Login(ctx, username, password)
	if err != nil {
		return err
	}
	s.expired.Store(false)
	fmt.Fprintf(s.out, "Hola, %s (%s). Local %s.\n", user.Username, roleLabel(user), s.deps.Client.Session().Tenant())
	s.loadProducts(ctx)
	return nil
}

func (s *shell) logout(ctx context.Context, _ []string) error {
	if err := s.deps.Auth.Logout(ctx); err != nil {
		return err
	}
	s.history = s.deps.Assistant.NewHistory()
	fmt.Fprintln(s.out, "Sesión cerrada.")
	return nil
}

func (s *shell) whoami(_ context.Context, _ []string) error {
	sess := s.deps.Client.Session()
	user, ok := sess.User()
	if !ok || !sess.Authenticated() {
		fmt.Fprintln(s.out, "Sin sesión.")
		return nil
	}
	fmt.Fprintf(s.out, "%s (%s), local %s\n", user.Username, roleLabel(user), sess.Tenant())
	return nil
}

func roleLabel(u session.User) string {
	switch {
	case u.IsAdmin():
		return session.GroupAdmin
	case u.IsCashier():
		return session.GroupCashier
	case len(u.Groups) > 0:
		return strings.Join(u.Groups, ", ")
	default:
		return "sin rol"
	}
}

func (s *shell) locales(ctx context.Context, _ []string) error {
	items, err := s.deps.Catalog.ListLocales(ctx)
	if err != nil {
		return err
	}
	if s.opts.JSON {
		return s.writeJSON(items)
	}
	current := s.deps.Client.Session().Tenant()
	tw := newTable(s.out)
	fmt.Fprintln(tw, "\tID\tNombre")
	for _, l := range items {
		marker := ""
		if strconv.FormatInt(l.ID, 10) == current {
			marker = "*"
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\n", marker, l.ID, l.Name)
	}
	return tw.Flush()
}

func (s *shell) selectLocal(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageError{usage: "local <id>"}
	}
	for _, c := range s.controllers {
		if c.Busy() {
			return orders.ErrBusy
		}
	}
	if err := s.deps.Client.Session().SelectTenant(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Local seleccionado: %s\n", s.deps.Client.Session().Tenant())
	s.history = s.deps.Assistant.NewHistory()
	s.loadProducts(ctx)
	return nil
}

func (s *shell) switchMode(_ context.Context, args []string) error {
	if len(args) == 0 {
		if s.mode == cart.VariantSale {
			s.mode = cart.VariantPurchase
		} else {
			s.mode = cart.VariantSale
		}
	} else {
		variant, ok := parseMode(args[0])
		if !ok {
			return usageError{usage: "mode [venta|compra]"}
		}
		s.mode = variant
	}
	fmt.Fprintf(s.out, "Modo %s.\n", modeLabel(s.mode))
	return nil
}

func (s *shell) suppliers(ctx context.Context, _ []string) error {
	items, err := s.deps.Catalog.ListSuppliers(ctx)
	if err != nil {
		return err
	}
	if s.opts.JSON {
		return s.writeJSON(items)
	}
	writeSuppliers(s.out, items)
	return nil
}

func (s *shell) selectSupplier(_ context.Context, args []string) error {
	if len(args) != 1 {
		return usageError{usage: "supplier <id>"}
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return usageError{usage: "supplier <id>"}
	}
	s.controllers[cart.VariantPurchase].SetSupplier(id)
	fmt.Fprintf(s.out, "Proveedor #%d seleccionado para la compra.\n", id)
	return nil
}

func (s *shell) products(ctx context.Context, args []string) error {
	query := catalog.ProductQuery{PageSize: s.deps.Config.SearchPageSize, Ordering: "nombre"}
	if n := len(args); n > 0 {
		if page, err := strconv.Atoi(args[n-1]); err == nil && page > 0 {
			query.Page = page
			args = args[:n-1]
		}
	}
	query.Search = strings.Join(args, " ")

	page, err := s.deps.Catalog.ListProducts(ctx, query)
	if err != nil {
		return err
	}
	if s.opts.JSON {
		return s.writeJSON(page.Results)
	}
	writeProducts(s.out, page.Results, page.Count)
	return nil
}

func (s *shell) add(ctx context.Context, args []string) error {
	term := strings.Join(args, " ")
	if strings.TrimSpace(term) == "" {
		return usageError{usage: "add <código|nombre|barras>"}
	}
	product, ok := s.deps.Resolver.Resolve(ctx, term)
	if !ok {
		fmt.Fprintln(s.out, "Producto no encontrado.")
		return nil
	}
	line := s.controller().Cart().AddLine(product)
	fmt.Fprintf(s.out, "+ %s x%d %s\n", line.Name, line.Quantity, formatMoney(line.UnitAmount))
	return nil
}

func (s *shell) set(ctx context.Context, args []string) error {
	const usage = "set <renglón> <campo> <valor>"
	if len(args) != 3 {
		return usageError{usage: usage}
	}
	field, err := cart.ParseField(args[1])
	if err != nil {
		return err
	}
	return s.updateLine(args[0], field, args[2], usage)
}

func (s *shell) setField(field cart.Field, usage string) command {
	return command{usage: usage, run: func(_ context.Context, args []string) error {
		if len(args) != 2 {
			return usageError{usage: usage}
		}
		return s.updateLine(args[0], field, args[1], usage)
	}}
}

func (s *shell) updateLine(rawIndex string, field cart.Field, value, usage string) error {
	line, err := s.lineAt(rawIndex, usage)
	if err != nil {
		return err
	}
	updated, err := s.controller().Cart().UpdateLine(line.ProductID, field, value)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "= %s x%d %s  subtotal %s\n",
		updated.Name, updated.Quantity, formatMoney(updated.UnitAmount), formatMoney(updated.Subtotal()))
	return nil
}

func (s *shell) lineAt(rawIndex, usage string) (cart.Line, error) {
	n, err := strconv.Atoi(rawIndex)
	if err != nil {
		return cart.Line{}, usageError{usage: usage}
	}
	lines := s.controller().Cart().Lines()
	if n < 1 || n > len(lines) {
		return cart.Line{}, cart.ErrLineNotFound
	}
	return lines[n-1], nil
}

func (s *shell) remove(_ context.Context, args []string) error {
	if len(args) != 1 {
		return usageError{usage: "rm <renglón>"}
	}
	line, err := s.lineAt(args[0], "rm <renglón>")
	if err != nil {
		return err
	}
	s.controller().Cart().RemoveLine(line.ProductID)
	fmt.Fprintf(s.out, "- %s\n", line.Name)
	return nil
}

func (s *shell) showCart(_ context.Context, _ []string) error {
	c := s.controller()
	if s.opts.JSON {
		return s.writeJSON(struct {
			Mode   string      `json:"mode"`
			Lines  []cart.Line `json:"lines"`
			Totals cart.Totals `json:"totals"`
		}{modeLabel(s.mode), c.Cart().Lines(), c.Cart().Totals()})
	}
	writeCart(s.out, c.Cart(), c.Supplier())
	return nil
}

func (s *shell) cancel(_ context.Context, _ []string) error {
	if err := s.controller().Cancel(); err != nil {
		return err
	}
	fmt.Fprintln(s.out, "Carrito vacío.")
	return nil
}

func (s *shell) confirm(ctx context.Context, _ []string) error {
	c := s.controller()
	summary, err := c.Confirm(ctx)
	switch {
	case err == nil:
		writeLastOrder(s.out, c.Kind(), summary, c.CanAnnul())
		return nil
	case errors.Is(err, orders.ErrBusy), errors.Is(err, context.Canceled):
		return err
	default:
		return errNotified
	}
}

func (s *shell) annul(ctx context.Context, args []string) error {
	c := s.controller()
	var (
		summary orders.Summary
		err     error
	)
	if len(args) > 0 && strings.EqualFold(args[0], "force") {
		summary, err = c.ForceAnnulLast(ctx)
	} else {
		summary, err = c.AnnulLast(ctx)
	}
	switch {
	case err == nil:
		writeLastOrder(s.out, c.Kind(), summary, c.CanAnnul())
		return nil
	case errors.Is(err, orders.ErrBusy), errors.Is(err, orders.ErrNoLastOrder),
		errors.Is(err, orders.ErrAlreadyAnnulled), errors.Is(err, orders.ErrNotConfirmed),
		errors.Is(err, context.Canceled):
		return err
	default:
		return errNotified
	}
}

func (s *shell) last(_ context.Context, _ []string) error {
	c := s.controller()
	summary, ok := c.LastOrder()
	if !ok {
		fmt.Fprintln(s.out, "Todavía no hay operaciones confirmadas.")
		return nil
	}
	if s.opts.JSON {
		return s.writeJSON(summary)
	}
	writeLastOrder(s.out, c.Kind(), summary, c.CanAnnul())
	if msg := c.LastError(); msg != "" {
		fmt.Fprintf(s.out, "Último error: %s\n", msg)
	}
	return nil
}

func (s *shell) historyCmd(ctx context.Context, args []string) error {
	var filter orders.HistoryFilter
	for _, arg := range args {
		if looksLikePeriod(arg) {
			r, err := resolvePeriod(arg, s.now())
			if err != nil {
				return err
			}
			filter.From, filter.To = r.From, r.To
			continue
		}
		status, err := orders.ParseStatusFilter(arg)
		if err != nil {
			return usageError{usage: "history [período] [todos|borrador|confirmada|anulada]"}
		}
		filter.Status = status
	}

	kind := orders.KindOf(s.mode)
	items, err := s.deps.Orders.History(ctx, kind, filter)
	if err != nil {
		return err
	}
	if s.opts.JSON {
		return s.writeJSON(items)
	}
	writeSummaries(s.out, items)
	return nil
}

func (s *shell) order(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageError{usage: "order <id>"}
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(args[0], "#"), 10, 64)
	if err != nil || id <= 0 {
		return usageError{usage: "order <id>"}
	}
	o, err := s.deps.Orders.Get(ctx, orders.KindOf(s.mode), id)
	if err != nil {
		return err
	}
	if s.opts.JSON {
		return s.writeJSON(o)
	}
	writeOrder(s.out, o)
	return nil
}

func (s *shell) financial(ctx context.Context, args []string) error {
	r, err := resolvePeriod(strings.Join(args, ""), s.now())
	if err != nil {
		return err
	}
	f, err := s.deps.Reports.Financial(ctx, r)
	if err != nil {
		return err
	}
	if s.opts.JSON {
		return s.writeJSON(f)
	}
	if f.From == "" {
		f.From, f.To = r.From.Format(dateLayout), r.To.Format(dateLayout)
	}
	writeFinancial(s.out, f)
	return nil
}

func (s *shell) top(ctx context.Context, args []string) error {
	var (
		period string
		limit  int
	)
	for _, arg := range args {
		if n, err := strconv.Atoi(arg); err == nil {
			limit = n
			continue
		}
		period = arg
	}
	r, err := resolvePeriod(period, s.now())
	if err != nil {
		return err
	}
	items, err := s.deps.Reports.TopProducts(ctx, r, limit)
	if err != nil {
		return err
	}
	if s.opts.JSON {
		return s.writeJSON(items)
	}
	fmt.Fprintf(s.out, "Más vendidos (%s)\n", formatRange(r))
	writeTopProducts(s.out, items)
	return nil
}

func (s *shell) today(ctx context.Context, _ []string) error {
	summary, err := s.deps.Reports.DaySummary(ctx)
	if err != nil {
		return err
	}
	if s.opts.JSON {
		return s.writeJSON(summary)
	}
	writeDaySummary(s.out, summary)
	return nil
}

func (s *shell) ask(ctx context.Context, args []string) error {
	question := strings.TrimSpace(strings.Join(args, " "))
	if question == "" {
		return usageError{usage: "ask <pregunta>"}
	}
	if !s.deps.Assistant.Enabled() {
		fmt.Fprintln(s.out, "El asistente no está configurado (LLM_MODEL, LLM_API_KEY).")
		return nil
	}
	answer, err := s.deps.Assistant.Ask(ctx, s.history, question)
	if err != nil {
		return err
	}
	s.writeAnswer(answer)
	return nil
}

func (s *shell) clearHistory(_ context.Context, _ []string) error {
	s.history = s.deps.Assistant.NewHistory()
	fmt.Fprintln(s.out, "Conversación reiniciada.")
	return nil
}
