package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"bebidas_pos/internal/api"
	"bebidas_pos/internal/auth"
	"bebidas_pos/internal/cart"
	"bebidas_pos/internal/catalog"
	"bebidas_pos/internal/config"
	"bebidas_pos/internal/llm"
	"bebidas_pos/internal/orders"
	"bebidas_pos/internal/reports"
	"bebidas_pos/internal/session"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type backendLog struct {
	mu       sync.Mutex
	requests []string
	drafts   []map[string]any
	tenants  []string
}

func (l *backendLog) record(r *http.Request) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.requests = append(l.requests, r.Method+" "+r.URL.Path)
	l.tenants = append(l.tenants, r.Header.Get("X-Local-ID"))
}

func (l *backendLog) paths() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.requests...)
}

var testProducts = []map[string]any{
	{"id": 7, "codigo": "CC225", "nombre": "Coca Cola 2.25", "precio_venta": "1500.00", "precio_costo": "900.00", "stock_actual": "10.000"},
	{"id": 9, "codigo": "FER750", "nombre": "Fernet 750", "precio_venta": "9000.00", "stock_actual": "3.000"},
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func backendHandler(t *testing.T, log *backendLog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.record(r)
		switch r.Method + " " + r.URL.Path {
		case "GET /catalogo/productos/":
			search := strings.ToLower(r.URL.Query().Get("search"))
			results := []map[string]any{}
			for _, p := range testProducts {
				if strings.Contains(strings.ToLower(p["nombre"].(string)), search) {
					results = append(results, p)
				}
			}
			writeJSON(w, http.StatusOK, results)
		case "POST /ventas/":
			var body map[string]any
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			log.mu.Lock()
			log.drafts = append(log.drafts, body)
			log.mu.Unlock()
			writeJSON(w, http.StatusCreated, map[string]any{"id": 41, "estado": "borrador", "total": "3000.00"})
		case "POST /ventas/41/confirmar/":
			writeJSON(w, http.StatusOK, map[string]any{"id": 41, "estado": "confirmada", "total": "3000.00"})
		case "POST /ventas/41/anular/":
			writeJSON(w, http.StatusOK, map[string]any{"id": 41, "estado": "anulada", "total": "3000.00"})
		case "GET /ventas/historial/":
			assert.Equal(t, "confirmada", r.URL.Query().Get("estado"))
			writeJSON(w, http.StatusOK, []map[string]any{
				{"id": 41, "fecha": "2026-10-18T12:00:00-03:00", "estado": "confirmada", "total": "3000.00"},
			})
		case "GET /reportes/financieros/":
			writeJSON(w, http.StatusOK, map[string]any{
				"desde": r.URL.Query().Get("desde"), "hasta": r.URL.Query().Get("hasta"),
				"total_ventas": "3000.00", "total_compras": "0", "margen_bruto": "3000.00",
				"cantidad_ventas": 1, "cantidad_compras": 0,
			})
		default:
			writeJSON(w, http.StatusNotFound, map[string]any{"detail": "No encontrado."})
		}
	}
}

func mintToken(t *testing.T, username string, groups []string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"username": username,
		"groups":   groups,
		"exp":      time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func newTestRunner(t *testing.T, handler http.Handler, input string) (*Runner, *bytes.Buffer) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	logger := zap.NewNop()
	cfg := config.Default()
	cfg.APIBaseURL = srv.URL
	cfg.Timeout = 5 * time.Second
	cfg.LocalID = "2"

	sess := session.New(session.NewMemoryStore(), config.DefaultLocalID, logger)
	user := session.User{Username: "ana", Groups: []string{session.GroupCashier}}
	require.NoError(t, sess.Start(context.Background(), mintToken(t, "ana", user.Groups), "refresh", user))

	client := api.NewClient(cfg, sess, nil, logger)
	catalogSvc := catalog.NewService(client, logger)
	gateway := orders.NewGateway(client, logger)
	reportsSvc := reports.NewService(client, logger)

	r := NewRunner(Params{
		Config:    cfg,
		Logger:    logger,
		Client:    client,
		Auth:      auth.NewService(client, logger),
		Catalog:   catalogSvc,
		Resolver:  catalog.NewResolver(catalogSvc, cfg.SearchPageSize, logger),
		Backend:   gateway,
		Orders:    gateway,
		Reports:   reportsSvc,
		Assistant: llm.NewAssistant(llm.NewClient(cfg, logger), reportsSvc, catalogSvc, gateway, sess, logger),
	})
	out := &bytes.Buffer{}
	r.in = strings.NewReader(input)
	r.out = out
	r.errOut = io.Discard
	return r, out
}

func TestShellSaleLifecycle(t *testing.T) {
	log := &backendLog{}
	input := strings.Join([]string{
		"add cc225",
		"add coca",
		"cart",
		"confirm",
		"annul",
		"annul",
		"exit",
	}, "\n")
	r, out := newTestRunner(t, backendHandler(t, log), input)

	require.NoError(t, r.run(context.Background(), nil))

	text := out.String()
	assert.Contains(t, text, "Hola, ana. Local 2.")
	assert.Contains(t, text, "+ Coca Cola 2.25 x1")
	assert.Contains(t, text, "+ Coca Cola 2.25 x2")
	assert.Contains(t, text, "✔ ¡Venta confirmada con éxito!")
	assert.Contains(t, text, "Última venta: #41  estado CONFIRMADA")
	assert.Contains(t, text, "✔ Venta #41 anulada.")
	assert.Contains(t, text, "La última operación ya está ANULADA.")

	assert.Equal(t, []string{
		"GET /catalogo/productos/",
		"POST /ventas/",
		"POST /ventas/41/confirmar/",
		"POST /ventas/41/anular/",
	}, log.paths())
	for _, tenant := range log.tenants {
		assert.Equal(t, "2", tenant)
	}

	require.Len(t, log.drafts, 1)
	lines, ok := log.drafts[0]["detalles"].([]any)
	require.True(t, ok)
	require.Len(t, lines, 1)
	line := lines[0].(map[string]any)
	assert.EqualValues(t, 7, line["producto"])
	assert.EqualValues(t, 2, line["cantidad"])
}

func TestShellLineEditing(t *testing.T) {
	log := &backendLog{}
	input := strings.Join([]string{
		"add fernet",
		"add coca",
		"qty 2 3",
		"set 1 bonif 500",
		"price 9 1",
		"rm 1",
		"cart",
		"cancel",
		"cart",
	}, "\n")
	r, out := newTestRunner(t, backendHandler(t, log), input)

	require.NoError(t, r.run(context.Background(), nil))

	text := out.String()
	assert.Contains(t, text, "= Coca Cola 2.25 x3")
	assert.Contains(t, text, "= Fernet 750 x1")
	assert.Contains(t, text, "Ese renglón no existe.")
	assert.Contains(t, text, "- Fernet 750")
	assert.Contains(t, text, "Carrito vacío.")
	assert.Contains(t, text, "- (vacío)")
	assert.Equal(t, []string{"GET /catalogo/productos/"}, log.paths())
}

func TestShellPurchaseRequiresSupplier(t *testing.T) {
	log := &backendLog{}
	input := strings.Join([]string{
		"add coca",
		"confirm",
		"mode venta",
		"confirm",
	}, "\n")
	r, out := newTestRunner(t, backendHandler(t, log), input)

	require.NoError(t, r.run(context.Background(), []string{"-mode", "compra"}))

	text := out.String()
	assert.Contains(t, text, "+ Coca Cola 2.25 x1")
	assert.Contains(t, text, "✘ Debe seleccionar un proveedor y añadir al menos un producto.")
	assert.Contains(t, text, "Modo venta.")
	assert.Contains(t, text, "✘ Agregá productos antes de confirmar.")
	assert.Equal(t, []string{"GET /catalogo/productos/"}, log.paths())
}

func TestShellQueries(t *testing.T) {
	log := &backendLog{}
	input := strings.Join([]string{
		"history hoy confirmada",
		"report 2026-10-01..2026-10-18",
		"add agua mineral",
		"ask cuánto vendí",
		"bogus",
		"whoami",
	}, "\n")
	r, out := newTestRunner(t, backendHandler(t, log), input)

	require.NoError(t, r.run(context.Background(), nil))

	text := out.String()
	assert.Contains(t, text, "CONFIRMADA")
	assert.Contains(t, text, "1 registros")
	assert.Contains(t, text, "Resumen financiero del 2026-10-01 al 2026-10-18")
	assert.Contains(t, text, "Producto no encontrado.")
	assert.Contains(t, text, "El asistente no está configurado")
	assert.Contains(t, text, `Comando desconocido "bogus"`)
	assert.Contains(t, text, "ana (Cajero), local 2")
}

func TestShellJSONCart(t *testing.T) {
	log := &backendLog{}
	r, out := newTestRunner(t, backendHandler(t, log), "add coca\nqty 1 2\ncart\n")

	require.NoError(t, r.run(context.Background(), []string{"-json"}))

	text := out.String()
	start := strings.Index(text, "{")
	require.GreaterOrEqual(t, start, 0)
	end := strings.LastIndex(text, "}")
	var payload struct {
		Mode   string      `json:"mode"`
		Lines  []cart.Line `json:"lines"`
		Totals cart.Totals `json:"totals"`
	}
	require.NoError(t, json.Unmarshal([]byte(text[start:end+1]), &payload))
	assert.Equal(t, "venta", payload.Mode)
	require.Len(t, payload.Lines, 1)
	assert.Equal(t, "3000", payload.Totals.GrandTotal.String())
}

func TestShellSessionExpiredWithoutRefresh(t *testing.T) {
	log := &backendLog{}
	handler := func(w http.ResponseWriter, r *http.Request) {
		log.record(r)
		writeJSON(w, http.StatusUnauthorized, map[string]any{"detail": "El token dado no es valido para ningun tipo de token"})
	}
	r, out := newTestRunner(t, http.HandlerFunc(handler), "history\nwhoami\n")
	user := session.User{Username: "ana", Groups: []string{session.GroupCashier}}
	require.NoError(t, r.params.Client.Session().Start(context.Background(), mintToken(t, "ana", user.Groups), "", user))

	require.NoError(t, r.run(context.Background(), nil))

	text := out.String()
	assert.Equal(t, 1, strings.Count(text, expiredNotice))
	assert.NotContains(t, text, "El token dado no es valido")
	assert.Contains(t, text, "Sin sesión.")
	assert.False(t, r.params.Client.Session().Authenticated())
	for _, path := range log.paths() {
		assert.NotEqual(t, "POST "+api.RefreshPath, path)
	}
}

func TestRunRejectsUnknownMode(t *testing.T) {
	r, _ := newTestRunner(t, http.NotFoundHandler(), "")
	err := r.run(context.Background(), []string{"-mode", "stock"})
	assert.ErrorContains(t, err, "unknown mode")
}
