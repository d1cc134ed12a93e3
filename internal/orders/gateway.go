package orders

import (
	"context"
	"encoding/json"
	"fmt"

	"bebidas_pos/internal/api"

	"go.uber.org/zap"
)

// Gateway issues the order lifecycle commands and reads against the backend.
type Gateway struct {
	api    *api.Client
	logger *zap.Logger
}

func NewGateway(client *api.Client, logger *zap.Logger) *Gateway {
	return &Gateway{
		api:    client,
		logger: logger.Named("orders"),
	}
}

func (g *Gateway) Create(ctx context.Context, kind Kind, draft Draft) (Order, error) {
	var out Order
	if err := g.api.Post(ctx, kind.basePath(), draft, &out); err != nil {
		return Order{}, fmt.Errorf("create %s: %w", kind, err)
	}
	g.logger.Info("draft created",
		zap.String("kind", string(kind)),
		zap.Int64("order_id", out.ID),
		zap.Int("lines", len(draft.Lines)),
	)
	return out, nil
}

func (g *Gateway) Confirm(ctx context.Context, kind Kind, id int64) (Order, error) {
	return g.transition(ctx, kind, id, "confirmar")
}

func (g *Gateway) Annul(ctx context.Context, kind Kind, id int64) (Order, error) {
	return g.transition(ctx, kind, id, "anular")
}

func (g *Gateway) transition(ctx context.Context, kind Kind, id int64, action string) (Order, error) {
	var out Order
	if err := g.api.Post(ctx, kind.orderPath(id)+action+"/", nil, &out); err != nil {
		return Order{}, fmt.Errorf("%s %s %d: %w", action, kind, id, err)
	}
	if out.ID == 0 {
		out.ID = id
	}
	g.logger.Info("order transition",
		zap.String("kind", string(kind)),
		zap.String("action", action),
		zap.Int64("order_id", id),
		zap.String("status", out.RawStatus),
	)
	return out, nil
}

func (g *Gateway) Get(ctx context.Context, kind Kind, id int64) (Order, error) {
	var out Order
	if err := g.api.Get(ctx, kind.orderPath(id), &out); err != nil {
		return Order{}, fmt.Errorf("get %s %d: %w", kind, id, err)
	}
	return out, nil
}

// History lists order summaries for a date range; zero dates let the backend
// default to today.
func (g *Gateway) History(ctx context.Context, kind Kind, filter HistoryFilter) ([]Summary, error) {
	var raw json.RawMessage
	if err := g.api.Get(ctx, kind.basePath()+"historial/", &raw, api.WithQuery(filter.query())); err != nil {
		return nil, fmt.Errorf("%s history: %w", kind, err)
	}
	items, _, err := api.DecodeList[Summary](raw)
	if err != nil {
		return nil, fmt.Errorf("%s history: %w", kind, err)
	}
	for i := range items {
		items[i].Status = ParseStatus(items[i].RawStatus)
	}
	return items, nil
}
