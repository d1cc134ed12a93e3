package orders

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"bebidas_pos/internal/cart"

	"github.com/shopspring/decimal"
)

// Kind tells sales from purchases; both share one lifecycle.
type Kind string

const (
	KindSale     Kind = "sale"
	KindPurchase Kind = "purchase"
)

func KindOf(v cart.Variant) Kind {
	if v == cart.VariantPurchase {
		return KindPurchase
	}
	return KindSale
}

func (k Kind) basePath() string {
	if k == KindPurchase {
		return "/compras/"
	}
	return "/ventas/"
}

func (k Kind) orderPath(id int64) string {
	return fmt.Sprintf("%s%d/", k.basePath(), id)
}

type Status string

const (
	StatusDraft     Status = "draft"
	StatusConfirmed Status = "confirmed"
	StatusAnnulled  Status = "annulled"
	StatusUnknown   Status = "unknown"
)

// ParseStatus normalises backend states. Sales report them upper case
// (BORRADOR), purchases lower case (borrador).
func ParseStatus(raw string) Status {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "borrador", "draft":
		return StatusDraft
	case "confirmada", "confirmed":
		return StatusConfirmed
	case "anulada", "annulled":
		return StatusAnnulled
	default:
		return StatusUnknown
	}
}

// ParseStatusFilter maps operator input to the history filter value the
// backend expects; "" and "todos" mean no filter.
func ParseStatusFilter(raw string) (string, error) {
	switch s := strings.ToLower(strings.TrimSpace(raw)); s {
	case "", "todos", "all":
		return "", nil
	default:
		switch ParseStatus(s) {
		case StatusDraft:
			return "borrador", nil
		case StatusConfirmed:
			return "confirmada", nil
		case StatusAnnulled:
			return "anulada", nil
		}
		return "", fmt.Errorf("unknown order status %q", raw)
	}
}

type Order struct {
	ID         int64           `json:"id"`
	Date       time.Time       `json:"fecha"`
	RawStatus  string          `json:"estado"`
	SupplierID *int64          `json:"proveedor,omitempty"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	Tax        decimal.Decimal `json:"impuestos"`
	Discount   decimal.Decimal `json:"bonificaciones"`
	Total      decimal.Decimal `json:"total"`
	Lines      []OrderLine     `json:"detalles"`
}

func (o Order) Status() Status {
	return ParseStatus(o.RawStatus)
}

func (o Order) Summary() Summary {
	return Summary{ID: o.ID, Status: o.Status(), RawStatus: o.RawStatus, Total: o.Total}
}

type OrderLine struct {
	Seq         int                 `json:"renglon"`
	ProductID   int64               `json:"producto"`
	ProductName string              `json:"producto_nombre,omitempty"`
	Quantity    decimal.Decimal     `json:"cantidad"`
	UnitPrice   decimal.NullDecimal `json:"precio_unitario"`
	UnitCost    decimal.NullDecimal `json:"costo_unitario"`
	Discount    decimal.Decimal     `json:"bonif"`
	Tax         decimal.Decimal     `json:"impuestos"`
	Total       decimal.Decimal     `json:"total_renglon"`
}

// UnitAmount is the sale price or purchase cost of the line.
func (l OrderLine) UnitAmount() decimal.Decimal {
	if l.UnitPrice.Valid {
		return l.UnitPrice.Decimal
	}
	return l.UnitCost.Decimal
}

// Summary is what the last-order panel and the history list show.
type Summary struct {
	ID        int64           `json:"id"`
	Date      time.Time       `json:"fecha"`
	RawStatus string          `json:"estado"`
	Status    Status          `json:"-"`
	Total     decimal.Decimal `json:"total"`
}

// Draft is the create payload. Amounts go out as JSON numbers.
type Draft struct {
	SupplierID *int64      `json:"proveedor,omitempty"`
	Date       string      `json:"fecha"`
	Lines      []DraftLine `json:"detalles"`
}

type DraftLine struct {
	ProductID int64       `json:"producto"`
	Quantity  int         `json:"cantidad"`
	UnitPrice json.Number `json:"precio_unitario,omitempty"`
	UnitCost  json.Number `json:"costo_unitario,omitempty"`
	Discount  json.Number `json:"bonif,omitempty"`
	Tax       json.Number `json:"impuestos,omitempty"`
	Seq       int         `json:"renglon"`
}

// BuildDraft maps cart lines to the create payload, numbering lines from 1.
func BuildDraft(kind Kind, supplierID int64, lines []cart.Line, now time.Time) Draft {
	d := Draft{
		Date:  now.Format(time.RFC3339),
		Lines: make([]DraftLine, 0, len(lines)),
	}
	if kind == KindPurchase && supplierID > 0 {
		d.SupplierID = &supplierID
	}
	for i, l := range lines {
		dl := DraftLine{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			Seq:       i + 1,
		}
		unit := json.Number(l.UnitAmount.String())
		if kind == KindPurchase {
			dl.UnitCost = unit
		} else {
			dl.UnitPrice = unit
		}
		if l.Discount.IsPositive() {
			dl.Discount = json.Number(l.Discount.String())
		}
		if l.Tax.IsPositive() {
			dl.Tax = json.Number(l.Tax.String())
		}
		d.Lines = append(d.Lines, dl)
	}
	return d
}

type HistoryFilter struct {
	From   time.Time
	To     time.Time
	Status string
}

const dateLayout = "2006-01-02"

func (f HistoryFilter) query() map[string]string {
	q := map[string]string{}
	if !f.From.IsZero() {
		q["desde"] = f.From.Format(dateLayout)
	}
	if !f.To.IsZero() {
		q["hasta"] = f.To.Format(dateLayout)
	}
	if f.Status != "" {
		q["estado"] = f.Status
	}
	return q
}
