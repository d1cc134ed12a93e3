package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceField names a price attribute of a product as the backend spells it.
type PriceField string

const (
	FieldCostPrice PriceField = "precio_costo"
	FieldCost      PriceField = "costo"
	FieldSalePrice PriceField = "precio_venta"
	FieldPrice     PriceField = "precio"
)

// Resolution orders, first present field wins.
var (
	SalePriceOrder = []PriceField{FieldSalePrice, FieldPrice}
	CostPriceOrder = []PriceField{FieldCostPrice, FieldCost, FieldSalePrice, FieldPrice}
)

type Product struct {
	ID           int64               `json:"id"`
	Code         string              `json:"codigo"`
	Name         string              `json:"nombre"`
	Barcode      string              `json:"codigo_barras,omitempty"`
	Brand        string              `json:"marca,omitempty"`
	CategoryID   *int64              `json:"categoria,omitempty"`
	CategoryName string              `json:"categoria_nombre,omitempty"`
	SalePrice    decimal.NullDecimal `json:"precio_venta"`
	Price        decimal.NullDecimal `json:"precio"`
	CostPrice    decimal.NullDecimal `json:"precio_costo"`
	Cost         decimal.NullDecimal `json:"costo"`
	Stock        decimal.Decimal     `json:"stock_actual"`
	Active       bool                `json:"activo"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

func (p Product) priceField(field PriceField) decimal.NullDecimal {
	switch field {
	case FieldCostPrice:
		return p.CostPrice
	case FieldCost:
		return p.Cost
	case FieldSalePrice:
		return p.SalePrice
	case FieldPrice:
		return p.Price
	default:
		return decimal.NullDecimal{}
	}
}

// ResolvePrice walks order and returns the first price the product carries,
// or zero when none is present.
func (p Product) ResolvePrice(order []PriceField) decimal.Decimal {
	for _, field := range order {
		if v := p.priceField(field); v.Valid {
			return v.Decimal
		}
	}
	return decimal.Zero
}

// ProductInput is the writable part of a product.
type ProductInput struct {
	Code       string           `json:"codigo,omitempty"`
	Name       string           `json:"nombre,omitempty"`
	Brand      string           `json:"marca,omitempty"`
	CategoryID *int64           `json:"categoria,omitempty"`
	SalePrice  *decimal.Decimal `json:"precio_venta,omitempty"`
	Stock      *decimal.Decimal `json:"stock_actual,omitempty"`
	Active     *bool            `json:"activo,omitempty"`
}

type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"nombre"`
}

type Supplier struct {
	ID      int64  `json:"id"`
	Name    string `json:"nombre"`
	TaxID   string `json:"cuit,omitempty"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"telefono,omitempty"`
	Address string `json:"direccion,omitempty"`
	Active  bool   `json:"activo"`
}

// Local is a business location; its id is the tenant header value.
type Local struct {
	ID   int64  `json:"id"`
	Name string `json:"nombre"`
}

type ProductQuery struct {
	Search   string
	Page     int
	PageSize int
	Ordering string
}

type ProductPage struct {
	Count   int
	Results []Product
}
