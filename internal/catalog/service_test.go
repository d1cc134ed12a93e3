package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bebidas_pos/internal/api"
	"bebidas_pos/internal/config"
	"bebidas_pos/internal/session"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newTestService(t *testing.T, handler http.HandlerFunc) *Service {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	sess := session.New(session.NewMemoryStore(), config.DefaultLocalID, zap.NewNop())
	require.NoError(t, sess.Start(context.Background(), "access", "refresh", session.User{Username: "ana"}))
	cfg := config.Default()
	cfg.APIBaseURL = srv.URL
	cfg.Timeout = 5 * time.Second
	return NewService(api.NewClient(cfg, sess, nil, zap.NewNop()), zap.NewNop())
}

func TestListProductsPaginated(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/catalogo/productos/", r.URL.Path)
		assert.Equal(t, "coca", r.URL.Query().Get("search"))
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "10", r.URL.Query().Get("page_size"))
		assert.Equal(t, "nombre", r.URL.Query().Get("ordering"))
		writeJSON(w, http.StatusOK, map[string]any{
			"count": 11,
			"results": []map[string]any{
				{"id": 12, "codigo": "CC225", "nombre": "Coca Cola 2.25", "precio_venta": "1500.0000"},
			},
		})
	})

	page, err := svc.ListProducts(context.Background(), ProductQuery{Search: "coca", Page: 2, PageSize: 10, Ordering: "nombre"})
	require.NoError(t, err)
	assert.Equal(t, 11, page.Count)
	require.Len(t, page.Results, 1)
	assert.Equal(t, "CC225", page.Results[0].Code)
}

func TestSearchAcceptsBareArray(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []map[string]any{
			{"id": 1, "codigo": "A", "nombre": "Agua"},
			{"id": 2, "codigo": "B", "nombre": "Agua con gas"},
		})
	})

	products, err := svc.Search(context.Background(), " agua ", 10)
	require.NoError(t, err)
	assert.Len(t, products, 2)
}

func TestProductCRUD(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/catalogo/productos/5/":
			writeJSON(w, http.StatusOK, map[string]any{"id": 5, "codigo": "F1", "nombre": "Fernet"})
		case r.Method == http.MethodPost && r.URL.Path == "/catalogo/productos/":
			var body map[string]any
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "F2", body["codigo"])
			assert.Equal(t, "2500", body["precio_venta"])
			writeJSON(w, http.StatusCreated, map[string]any{"id": 6, "codigo": "F2", "nombre": "Fernet 1L"})
		case r.Method == http.MethodPatch && r.URL.Path == "/catalogo/productos/6/":
			writeJSON(w, http.StatusOK, map[string]any{"id": 6, "codigo": "F2", "nombre": "Fernet 1 L"})
		case r.Method == http.MethodDelete && r.URL.Path == "/catalogo/productos/6/":
			w.WriteHeader(http.StatusNoContent)
		default:
			writeJSON(w, http.StatusNotFound, map[string]string{"detail": "No encontrado."})
		}
	})
	ctx := context.Background()

	p, err := svc.GetProduct(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, "Fernet", p.Name)

	price := decimal.NewFromInt(2500)
	created, err := svc.CreateProduct(ctx, ProductInput{Code: "F2", Name: "Fernet 1L", SalePrice: &price})
	require.NoError(t, err)
	assert.Equal(t, int64(6), created.ID)

	updated, err := svc.UpdateProduct(ctx, 6, ProductInput{Name: "Fernet 1 L"})
	require.NoError(t, err)
	assert.Equal(t, "Fernet 1 L", updated.Name)

	require.NoError(t, svc.DeleteProduct(ctx, 6))

	_, err = svc.GetProduct(ctx, 99)
	assert.Equal(t, "No encontrado.", api.Message(err, "fallback"))

	assert.ErrorIs(t, svc.DeleteProduct(ctx, 0), ErrInvalidProductID)
}

func TestSuppliersCategoriesLocales(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/catalogo/proveedores/":
			assert.Equal(t, "100", r.URL.Query().Get("page_size"))
			writeJSON(w, http.StatusOK, map[string]any{"count": 1, "results": []map[string]any{{"id": 3, "nombre": "Distribuidora Sur", "activo": true}}})
		case "/catalogo/categorias/":
			writeJSON(w, http.StatusOK, []map[string]any{{"id": 1, "nombre": "Cervezas"}})
		case "/core/locales/":
			writeJSON(w, http.StatusOK, []map[string]any{{"id": 1, "nombre": "Centro"}, {"id": 2, "nombre": "Norte"}})
		}
	})
	ctx := context.Background()

	suppliers, err := svc.ListSuppliers(ctx)
	require.NoError(t, err)
	require.Len(t, suppliers, 1)
	assert.Equal(t, "Distribuidora Sur", suppliers[0].Name)

	categories, err := svc.ListCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Category{{ID: 1, Name: "Cervezas"}}, categories)

	locales, err := svc.ListLocales(ctx)
	require.NoError(t, err)
	assert.Len(t, locales, 2)
}
