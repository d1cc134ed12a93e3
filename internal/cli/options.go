package cli

import (
	"strings"

	"bebidas_pos/internal/cart"
)

type Options struct {
	Username string
	Password string
	LocalID  string
	Mode     cart.Variant
	Ask      string
	JSON     bool
}

// parseMode accepts the operator words for each variant.
func parseMode(raw string) (cart.Variant, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "venta", "ventas", "sale", "sales", "v":
		return cart.VariantSale, true
	case "compra", "compras", "purchase", "purchases", "c":
		return cart.VariantPurchase, true
	default:
		return "", false
	}
}

func modeLabel(v cart.Variant) string {
	if v == cart.VariantPurchase {
		return "compra"
	}
	return "venta"
}
