package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"bebidas_pos/internal/api"
	"bebidas_pos/internal/catalog"
	"bebidas_pos/internal/orders"
	"bebidas_pos/internal/reports"
	"bebidas_pos/internal/session"

	openrouter "github.com/revrost/go-openrouter"
	"go.uber.org/zap"
)

const (
	maxToolRounds      = 4
	defaultSearchLimit = 10
	maxListLimit       = 50
)

var ErrTooManyRounds = errors.New("assistant did not answer within the tool round limit")

type Reports interface {
	Financial(ctx context.Context, r reports.Range) (reports.Financial, error)
	TopProducts(ctx context.Context, r reports.Range, limit int) ([]reports.TopProduct, error)
	DaySummary(ctx context.Context) (reports.DaySummary, error)
}

type Catalog interface {
	Search(ctx context.Context, term string, pageSize int) ([]catalog.Product, error)
	ListLocales(ctx context.Context) ([]catalog.Local, error)
}

type Orders interface {
	History(ctx context.Context, kind orders.Kind, filter orders.HistoryFilter) ([]orders.Summary, error)
	Get(ctx context.Context, kind orders.Kind, id int64) (orders.Order, error)
}

// ToolCall records one tool invocation made while answering.
type ToolCall struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
	MS   int64          `json:"ms"`
	OK   bool           `json:"ok"`
	Err  string         `json:"err,omitempty"`
}

type Answer struct {
	Question  string     `json:"question"`
	Text      string     `json:"answer"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
}

// Assistant answers operator questions with a tool-calling loop over the
// reports, catalog and order history of the selected local.
type Assistant struct {
	chat    Chatter
	enabled bool
	reports Reports
	catalog Catalog
	orders  Orders
	session *session.Session
	logger  *zap.Logger
	now     func() time.Time
}

func NewAssistant(client *Client, r *reports.Service, c *catalog.Service, o *orders.Gateway, sess *session.Session, logger *zap.Logger) *Assistant {
	return newAssistant(client, client.Enabled(), r, c, o, sess, logger)
}

func newAssistant(chat Chatter, enabled bool, r Reports, c Catalog, o Orders, sess *session.Session, logger *zap.Logger) *Assistant {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assistant{
		chat:    chat,
		enabled: enabled,
		reports: r,
		catalog: c,
		orders:  o,
		session: sess,
		logger:  logger.Named("assistant"),
		now:     time.Now,
	}
}

func (a *Assistant) Enabled() bool {
	return a != nil && a.enabled
}

// NewHistory starts a conversation framed for the current local.
func (a *Assistant) NewHistory() *History {
	h := NewHistory(DefaultHistoryMessages, DefaultHistoryTokens, a.logger)
	h.Reset(SystemPrompt(a.now(), a.tenant()))
	return h
}

// Ask runs the question through the model, executing requested tools until the
// model answers in text. history may be nil for a one-off question.
func (a *Assistant) Ask(ctx context.Context, history *History, question string) (Answer, error) {
	if !a.Enabled() {
		return Answer{}, ErrNotConfigured
	}
	if history == nil {
		history = a.NewHistory()
	}
	if !history.Started() {
		history.Reset(SystemPrompt(a.now(), a.tenant()))
	}

	answer := Answer{Question: question}
	history.Append(openrouter.UserMessage(question))

	for round := 0; round < maxToolRounds; round++ {
		resp, err := a.chat.ChatWithMessages(ctx, history.Messages(), ToolSchemas())
		if err != nil {
			return answer, err
		}
		if len(resp.Choices) == 0 {
			return answer, errors.New("llm returned empty response")
		}

		msg := resp.Choices[0].Message
		history.Append(msg)
		if len(msg.ToolCalls) == 0 {
			answer.Text = strings.TrimSpace(msg.Content.Text)
			return answer, nil
		}

		replies, records, err := a.runTools(ctx, msg.ToolCalls)
		answer.ToolCalls = append(answer.ToolCalls, records...)
		history.Append(replies...)
		if err != nil {
			return answer, err
		}
	}
	return answer, ErrTooManyRounds
}

// runTools executes the calls and returns one tool reply per call. Tool
// failures go back to the model as error payloads; an expired session aborts.
func (a *Assistant) runTools(ctx context.Context, calls []openrouter.ToolCall) ([]openrouter.ChatCompletionMessage, []ToolCall, error) {
	replies := make([]openrouter.ChatCompletionMessage, 0, len(calls))
	records := make([]ToolCall, 0, len(calls))

	for _, call := range calls {
		args := map[string]any{}
		if call.Function.Arguments != "" {
			if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
				record := ToolCall{Name: call.Function.Name, Err: fmt.Sprintf("invalid tool args: %v", err)}
				records = append(records, record)
				replies = append(replies, openrouter.ToolMessage(call.ID, errorPayload(record.Err)))
				continue
			}
		}

		start := time.Now()
		result, err := a.dispatch(ctx, call.Function.Name, args)
		record := ToolCall{
			Name: call.Function.Name,
			Args: args,
			MS:   time.Since(start).Milliseconds(),
			OK:   err == nil,
		}
		if err != nil {
			record.Err = err.Error()
		}
		a.logger.Info("tool call",
			zap.String("name", record.Name),
			zap.Any("args", record.Args),
			zap.Int64("ms", record.MS),
			zap.Bool("ok", record.OK),
			zap.String("err", record.Err),
		)
		records = append(records, record)

		if err != nil {
			replies = append(replies, openrouter.ToolMessage(call.ID, errorPayload(api.Message(err, err.Error()))))
			if errors.Is(err, api.ErrSessionExpired) || errors.Is(err, session.ErrNoRefreshToken) {
				return replies, records, err
			}
			continue
		}

		payload, err := json.Marshal(result)
		if err != nil {
			replies = append(replies, openrouter.ToolMessage(call.ID, errorPayload(err.Error())))
			continue
		}
		replies = append(replies, openrouter.ToolMessage(call.ID, string(payload)))
	}
	return replies, records, nil
}

func (a *Assistant) dispatch(ctx context.Context, name string, args map[string]any) (any, error) {
	switch name {
	case toolFinancialSummary:
		r, err := rangeArgs(args)
		if err != nil {
			return nil, err
		}
		return a.reports.Financial(ctx, r)
	case toolTopProducts:
		r, err := rangeArgs(args)
		if err != nil {
			return nil, err
		}
		return a.reports.TopProducts(ctx, r, min(getIntArg(args, "limit", reports.DefaultTopLimit), maxListLimit))
	case toolDaySummary:
		return a.reports.DaySummary(ctx)
	case toolSearchProducts:
		query, _ := getStringArg(args, "query")
		if query == "" {
			return nil, errors.New("missing query")
		}
		products, err := a.catalog.Search(ctx, query, min(getIntArg(args, "limit", defaultSearchLimit), maxListLimit))
		if err != nil {
			return nil, err
		}
		return productResults(products), nil
	case toolListOrders:
		r, err := rangeArgs(args)
		if err != nil {
			return nil, err
		}
		raw, _ := getStringArg(args, "status")
		status, err := orders.ParseStatusFilter(raw)
		if err != nil {
			return nil, err
		}
		return a.orders.History(ctx, kindArg(args), orders.HistoryFilter{From: r.From, To: r.To, Status: status})
	case toolGetOrder:
		id := int64(getIntArg(args, "id", 0))
		if id <= 0 {
			return nil, errors.New("missing order id")
		}
		return a.orders.Get(ctx, kindArg(args), id)
	case toolListLocales:
		return a.catalog.ListLocales(ctx)
	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

func (a *Assistant) tenant() string {
	if a.session == nil {
		return "-"
	}
	return a.session.Tenant()
}

type productResult struct {
	ID    int64  `json:"id"`
	Code  string `json:"code"`
	Name  string `json:"name"`
	Brand string `json:"brand,omitempty"`
	Price string `json:"sale_price"`
	Stock string `json:"stock"`
}

func productResults(products []catalog.Product) []productResult {
	out := make([]productResult, 0, len(products))
	for _, p := range products {
		out = append(out, productResult{
			ID:    p.ID,
			Code:  p.Code,
			Name:  p.Name,
			Brand: p.Brand,
			Price: p.ResolvePrice(catalog.SalePriceOrder).String(),
			Stock: p.Stock.String(),
		})
	}
	return out
}

func errorPayload(message string) string {
	encoded, err := json.Marshal(map[string]string{"error": message})
	if err != nil {
		return `{"error":"tool failed"}`
	}
	return string(encoded)
}
