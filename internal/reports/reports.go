package reports

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"bebidas_pos/internal/api"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	financialPath   = "/reportes/financieros/"
	topProductsPath = "/reportes/top-productos/"
	daySummaryPath  = "/reportes/resumen-dia/"

	dateLayout      = "2006-01-02"
	DefaultTopLimit = 5
)

var ErrInvalidRange = errors.New("range start is after its end")

type Financial struct {
	From          string          `json:"desde"`
	To            string          `json:"hasta"`
	SalesTotal    decimal.Decimal `json:"total_ventas"`
	PurchaseTotal decimal.Decimal `json:"total_compras"`
	GrossMargin   decimal.Decimal `json:"margen_bruto"`
	SalesCount    int             `json:"cantidad_ventas"`
	PurchaseCount int             `json:"cantidad_compras"`
}

type TopProduct struct {
	ProductID   int64           `json:"producto_id"`
	ProductName string          `json:"producto_nombre"`
	Quantity    decimal.Decimal `json:"cantidad_vendida"`
	Revenue     decimal.Decimal `json:"facturacion"`
}

// DaySummary is passed through as the backend shapes it.
type DaySummary map[string]any

// Range is an inclusive day range; zero bounds let the backend default to today.
type Range struct {
	From time.Time
	To   time.Time
}

func (r Range) validate() error {
	if !r.From.IsZero() && !r.To.IsZero() && r.From.After(r.To) {
		return fmt.Errorf("%w: %s > %s", ErrInvalidRange, r.From.Format(dateLayout), r.To.Format(dateLayout))
	}
	return nil
}

func (r Range) query() map[string]string {
	q := map[string]string{}
	if !r.From.IsZero() {
		q["desde"] = r.From.Format(dateLayout)
	}
	if !r.To.IsZero() {
		q["hasta"] = r.To.Format(dateLayout)
	}
	return q
}

// ParseRange reads YYYY-MM-DD bounds; empty strings stay unset.
func ParseRange(from, to string) (Range, error) {
	var r Range
	var err error
	if from != "" {
		if r.From, err = time.Parse(dateLayout, from); err != nil {
			return Range{}, fmt.Errorf("parse from date: %w", err)
		}
	}
	if to != "" {
		if r.To, err = time.Parse(dateLayout, to); err != nil {
			return Range{}, fmt.Errorf("parse to date: %w", err)
		}
	}
	return r, r.validate()
}

type Service struct {
	api    *api.Client
	logger *zap.Logger
}

func NewService(client *api.Client, logger *zap.Logger) *Service {
	return &Service{
		api:    client,
		logger: logger.Named("reports"),
	}
}

func (s *Service) Financial(ctx context.Context, r Range) (Financial, error) {
	if err := r.validate(); err != nil {
		return Financial{}, err
	}
	var out Financial
	if err := s.api.Get(ctx, financialPath, &out, api.WithQuery(r.query())); err != nil {
		return Financial{}, fmt.Errorf("financial report: %w", err)
	}
	return out, nil
}

func (s *Service) TopProducts(ctx context.Context, r Range, limit int) ([]TopProduct, error) {
	if err := r.validate(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultTopLimit
	}
	q := r.query()
	q["limit"] = strconv.Itoa(limit)

	var raw json.RawMessage
	if err := s.api.Get(ctx, topProductsPath, &raw, api.WithQuery(q)); err != nil {
		return nil, fmt.Errorf("top products: %w", err)
	}
	items, _, err := api.DecodeList[TopProduct](raw)
	if err != nil {
		return nil, fmt.Errorf("top products: %w", err)
	}
	return items, nil
}

func (s *Service) DaySummary(ctx context.Context) (DaySummary, error) {
	out := DaySummary{}
	if err := s.api.Get(ctx, daySummaryPath, &out); err != nil {
		return nil, fmt.Errorf("day summary: %w", err)
	}
	return out, nil
}
