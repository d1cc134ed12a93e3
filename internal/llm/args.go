package llm

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"bebidas_pos/internal/orders"
	"bebidas_pos/internal/reports"
)

func getStringArg(args map[string]any, key string) (string, bool) {
	value, ok := args[key]
	if !ok || value == nil {
		return "", false
	}
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v), true
	default:
		return fmt.Sprintf("%v", v), true
	}
}

func getIntArg(args map[string]any, key string, fallback int) int {
	value, ok := args[key]
	if !ok {
		return fallback
	}
	switch v := value.(type) {
	case float64:
		return int(v)
	case int:
		return v
	case json.Number:
		if parsed, err := v.Int64(); err == nil {
			return int(parsed)
		}
	case string:
		if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return parsed
		}
	}
	return fallback
}

// rangeArgs reads optional "from" and "to" days. Models sometimes send full
// timestamps; only the date part is kept.
func rangeArgs(args map[string]any) (reports.Range, error) {
	from, _ := getStringArg(args, "from")
	to, _ := getStringArg(args, "to")
	return reports.ParseRange(datePart(from), datePart(to))
}

func datePart(value string) string {
	if len(value) > len("2006-01-02") {
		return value[:len("2006-01-02")]
	}
	return value
}

func kindArg(args map[string]any) orders.Kind {
	if kind, _ := getStringArg(args, "kind"); strings.EqualFold(kind, string(orders.KindPurchase)) {
		return orders.KindPurchase
	}
	return orders.KindSale
}
