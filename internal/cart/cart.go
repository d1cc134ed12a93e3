package cart

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"bebidas_pos/internal/catalog"

	"github.com/shopspring/decimal"
)

var (
	ErrLineNotFound = errors.New("line not found")
	ErrUnknownField = errors.New("unknown line field")
)

// Variant selects which product price seeds a new line.
type Variant string

const (
	VariantSale     Variant = "sale"
	VariantPurchase Variant = "purchase"
)

// PriceOrder is the ordered list of product price fields tried for a new line.
func (v Variant) PriceOrder() []catalog.PriceField {
	if v == VariantPurchase {
		return catalog.CostPriceOrder
	}
	return catalog.SalePriceOrder
}

type Field string

const (
	FieldQuantity   Field = "quantity"
	FieldUnitAmount Field = "unit_amount"
	FieldDiscount   Field = "discount"
	FieldTax        Field = "tax"
)

var fieldAliases = map[string]Field{
	"quantity":    FieldQuantity,
	"qty":         FieldQuantity,
	"cantidad":    FieldQuantity,
	"unit_amount": FieldUnitAmount,
	"price":       FieldUnitAmount,
	"cost":        FieldUnitAmount,
	"precio":      FieldUnitAmount,
	"costo":       FieldUnitAmount,
	"discount":    FieldDiscount,
	"bonif":       FieldDiscount,
	"tax":         FieldTax,
	"impuestos":   FieldTax,
}

// ParseField maps an operator-facing field name to a Field.
func ParseField(name string) (Field, error) {
	f, ok := fieldAliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	return f, nil
}

type Line struct {
	ProductID  int64           `json:"product_id"`
	Name       string          `json:"name"`
	Code       string          `json:"code,omitempty"`
	Quantity   int             `json:"quantity"`
	UnitAmount decimal.Decimal `json:"unit_amount"`
	Discount   decimal.Decimal `json:"discount"`
	Tax        decimal.Decimal `json:"tax"`
}

// Subtotal is quantity × unit amount − discount + tax.
func (l Line) Subtotal() decimal.Decimal {
	return l.gross().Sub(l.Discount).Add(l.Tax)
}

func (l Line) gross() decimal.Decimal {
	return l.UnitAmount.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type Totals struct {
	Subtotal   decimal.Decimal `json:"subtotal"`
	Tax        decimal.Decimal `json:"tax"`
	Discount   decimal.Decimal `json:"discount"`
	GrandTotal decimal.Decimal `json:"grand_total"`
}

// Cart holds the lines of the order being entered, keyed by product id in
// insertion order. Totals are always derived from the current lines.
type Cart struct {
	variant Variant

	mu    sync.Mutex
	lines []Line
}

func New(variant Variant) *Cart {
	if variant != VariantPurchase {
		variant = VariantSale
	}
	return &Cart{variant: variant}
}

func (c *Cart) Variant() Variant {
	return c.variant
}

// AddLine bumps the quantity of the product's line, or appends a new line with
// quantity 1 priced from the variant's price order.
func (c *Cart) AddLine(p catalog.Product) Line {
	c.mu.Lock()
	defer c.mu.Unlock()

	if i := c.index(p.ID); i >= 0 {
		c.lines[i].Quantity++
		return c.lines[i]
	}

	line := Line{
		ProductID:  p.ID,
		Name:       p.Name,
		Code:       p.Code,
		Quantity:   1,
		UnitAmount: p.ResolvePrice(c.variant.PriceOrder()),
		Discount:   decimal.Zero,
		Tax:        decimal.Zero,
	}
	c.lines = append(c.lines, line)
	return line
}

// UpdateLine sets one field of a line from operator input. Input that does not
// parse, or is out of range, is coerced: quantity to 1, amounts to 0. Quantity
// never drops the line; use RemoveLine for that.
func (c *Cart) UpdateLine(productID int64, field Field, raw string) (Line, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.index(productID)
	if i < 0 {
		return Line{}, fmt.Errorf("%w: product %d", ErrLineNotFound, productID)
	}

	line := &c.lines[i]
	switch field {
	case FieldQuantity:
		line.Quantity = parseQuantity(raw)
	case FieldUnitAmount:
		line.UnitAmount = parseAmount(raw)
	case FieldDiscount:
		line.Discount = parseAmount(raw)
	case FieldTax:
		line.Tax = parseAmount(raw)
	default:
		return Line{}, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return *line, nil
}

func (c *Cart) RemoveLine(productID int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.index(productID)
	if i < 0 {
		return false
	}
	c.lines = slices.Delete(c.lines, i, i+1)
	return true
}

func (c *Cart) Clear() {
	c.mu.Lock()
	c.lines = nil
	c.mu.Unlock()
}

// Lines returns a copy of the lines in display order.
func (c *Cart) Lines() []Line {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.lines)
}

func (c *Cart) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lines)
}

func (c *Cart) IsEmpty() bool {
	return c.Len() == 0
}

func (c *Cart) Totals() Totals {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Compute(c.lines)
}

// Compute derives the aggregate totals of a set of lines.
func Compute(lines []Line) Totals {
	t := Totals{
		Subtotal: decimal.Zero,
		Tax:      decimal.Zero,
		Discount: decimal.Zero,
	}
	for _, l := range lines {
		t.Subtotal = t.Subtotal.Add(l.gross())
		t.Tax = t.Tax.Add(l.Tax)
		t.Discount = t.Discount.Add(l.Discount)
	}
	t.GrandTotal = t.Subtotal.Sub(t.Discount).Add(t.Tax)
	return t
}

func (c *Cart) index(productID int64) int {
	return slices.IndexFunc(c.lines, func(l Line) bool { return l.ProductID == productID })
}
