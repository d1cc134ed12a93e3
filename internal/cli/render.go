package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"bebidas_pos/internal/cart"
	"bebidas_pos/internal/catalog"
	"bebidas_pos/internal/orders"
	"bebidas_pos/internal/reports"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var printer = message.NewPrinter(language.MustParse("es-AR"))

func formatMoney(d decimal.Decimal) string {
	return printer.Sprintf("$ %v", number.Decimal(d.InexactFloat64(), number.Scale(2)))
}

func formatQuantity(d decimal.Decimal) string {
	return printer.Sprintf("%v", number.Decimal(d.InexactFloat64(), number.MaxFractionDigits(3)))
}

func statusLabel(s orders.Status) string {
	switch s {
	case orders.StatusDraft:
		return "BORRADOR"
	case orders.StatusConfirmed:
		return "CONFIRMADA"
	case orders.StatusAnnulled:
		return "ANULADA"
	default:
		return "DESCONOCIDO"
	}
}

func newTable(out io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
}

func writeCart(out io.Writer, c *cart.Cart, supplierID int64) {
	lines := c.Lines()
	header := fmt.Sprintf("Carrito de %s", modeLabel(c.Variant()))
	if c.Variant() == cart.VariantPurchase {
		if supplierID > 0 {
			header += fmt.Sprintf(" (proveedor #%d)", supplierID)
		} else {
			header += " (sin proveedor)"
		}
	}
	fmt.Fprintln(out, header)
	if len(lines) == 0 {
		fmt.Fprintln(out, "- (vacío)")
		return
	}

	unit := "Precio"
	if c.Variant() == cart.VariantPurchase {
		unit = "Costo"
	}
	tw := newTable(out)
	fmt.Fprintf(tw, "#\tCódigo\tProducto\tCant.\t%s\tBonif.\tImp.\tSubtotal\n", unit)
	for i, l := range lines {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\t%s\t%s\t%s\n",
			i+1, l.Code, l.Name, l.Quantity,
			formatMoney(l.UnitAmount), formatMoney(l.Discount), formatMoney(l.Tax), formatMoney(l.Subtotal()))
	}
	_ = tw.Flush()

	t := c.Totals()
	fmt.Fprintf(out, "Subtotal: %s  Bonificaciones: %s  Impuestos: %s\n",
		formatMoney(t.Subtotal), formatMoney(t.Discount), formatMoney(t.Tax))
	fmt.Fprintf(out, "TOTAL: %s\n", formatMoney(t.GrandTotal))
}

func writeLastOrder(out io.Writer, kind orders.Kind, s orders.Summary, canAnnul bool) {
	label := "Última venta"
	if kind == orders.KindPurchase {
		label = "Última compra"
	}
	fmt.Fprintf(out, "%s: #%d  estado %s  total %s\n", label, s.ID, statusLabel(s.Status), formatMoney(s.Total))
	if !canAnnul && s.Status == orders.StatusAnnulled {
		fmt.Fprintln(out, "- Ya anulada")
	}
}

func writeProducts(out io.Writer, products []catalog.Product, count int) {
	if len(products) == 0 {
		fmt.Fprintln(out, "- (sin resultados)")
		return
	}
	tw := newTable(out)
	fmt.Fprintln(tw, "ID\tCódigo\tProducto\tMarca\tPrecio\tStock")
	for _, p := range products {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			p.ID, p.Code, p.Name, p.Brand, formatMoney(p.ResolvePrice(catalog.SalePriceOrder)), formatQuantity(p.Stock))
	}
	_ = tw.Flush()
	if count > len(products) {
		fmt.Fprintf(out, "(%d de %d)\n", len(products), count)
	}
}

func writeSummaries(out io.Writer, items []orders.Summary) {
	if len(items) == 0 {
		fmt.Fprintln(out, "- (sin resultados)")
		return
	}
	tw := newTable(out)
	fmt.Fprintln(tw, "ID\tFecha\tEstado\tTotal")
	total := decimal.Zero
	for _, s := range items {
		date := "-"
		if !s.Date.IsZero() {
			date = s.Date.Format("02/01/2006 15:04")
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", s.ID, date, statusLabel(s.Status), formatMoney(s.Total))
		if s.Status == orders.StatusConfirmed {
			total = total.Add(s.Total)
		}
	}
	_ = tw.Flush()
	fmt.Fprintf(out, "%d registros, confirmado: %s\n", len(items), formatMoney(total))
}

func writeOrder(out io.Writer, o orders.Order) {
	fmt.Fprintf(out, "#%d  %s  estado %s\n", o.ID, o.Date.Format("02/01/2006 15:04"), statusLabel(o.Status()))
	if o.SupplierID != nil {
		fmt.Fprintf(out, "Proveedor #%d\n", *o.SupplierID)
	}
	tw := newTable(out)
	fmt.Fprintln(tw, "#\tProducto\tCant.\tUnitario\tBonif.\tImp.\tTotal")
	for _, l := range o.Lines {
		name := l.ProductName
		if name == "" {
			name = fmt.Sprintf("#%d", l.ProductID)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			l.Seq, name, formatQuantity(l.Quantity), formatMoney(l.UnitAmount()),
			formatMoney(l.Discount), formatMoney(l.Tax), formatMoney(l.Total))
	}
	_ = tw.Flush()
	fmt.Fprintf(out, "Subtotal: %s  Bonificaciones: %s  Impuestos: %s  TOTAL: %s\n",
		formatMoney(o.Subtotal), formatMoney(o.Discount), formatMoney(o.Tax), formatMoney(o.Total))
}

func writeFinancial(out io.Writer, f reports.Financial) {
	fmt.Fprintf(out, "Resumen financiero del %s al %s\n", f.From, f.To)
	fmt.Fprintf(out, "- Ventas:  %s (%d)\n", formatMoney(f.SalesTotal), f.SalesCount)
	fmt.Fprintf(out, "- Compras: %s (%d)\n", formatMoney(f.PurchaseTotal), f.PurchaseCount)
	fmt.Fprintf(out, "- Margen bruto: %s\n", formatMoney(f.GrossMargin))
}

func writeTopProducts(out io.Writer, items []reports.TopProduct) {
	if len(items) == 0 {
		fmt.Fprintln(out, "- (sin ventas en el período)")
		return
	}
	tw := newTable(out)
	fmt.Fprintln(tw, "#\tProducto\tCantidad\tFacturación")
	for i, p := range items {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", i+1, p.ProductName, formatQuantity(p.Quantity), formatMoney(p.Revenue))
	}
	_ = tw.Flush()
}

func writeDaySummary(out io.Writer, s reports.DaySummary) {
	if len(s) == 0 {
		fmt.Fprintln(out, "- (sin datos)")
		return
	}
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(out, "- %s: %v\n", strings.ReplaceAll(k, "_", " "), s[k])
	}
}

func writeSuppliers(out io.Writer, suppliers []catalog.Supplier) {
	if len(suppliers) == 0 {
		fmt.Fprintln(out, "- (sin proveedores)")
		return
	}
	tw := newTable(out)
	fmt.Fprintln(tw, "ID\tNombre\tCUIT\tTeléfono")
	for _, s := range suppliers {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", s.ID, s.Name, s.TaxID, s.Phone)
	}
	_ = tw.Flush()
}
