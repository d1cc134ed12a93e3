package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bebidas_pos/internal/config"
	"bebidas_pos/internal/metrics"
	"bebidas_pos/internal/session"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newTestClient(t *testing.T, srv *httptest.Server, access, refresh string) (*Client, *session.Session) {
	t.Helper()
	sess := session.New(session.NewMemoryStore(), config.DefaultLocalID, zap.NewNop())
	if access != "" || refresh != "" {
		require.NoError(t, sess.Start(context.Background(), access, refresh, session.User{Username: "ana"}))
	}
	cfg := config.Default()
	cfg.APIBaseURL = srv.URL
	cfg.Timeout = 5 * time.Second
	return NewClient(cfg, sess, metrics.New(prometheus.NewRegistry()), zap.NewNop()), sess
}
