package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"bebidas_pos/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echo struct {
	Auth      string `json:"auth"`
	Tenant    string `json:"tenant"`
	RequestID string `json:"request_id"`
}

func echoHeaders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, echo{
		Auth:      r.Header.Get("Authorization"),
		Tenant:    r.Header.Get(HeaderTenant),
		RequestID: r.Header.Get(HeaderRequestID),
	})
}

func TestDoAttachesCredentialAndTenant(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(echoHeaders))
	defer srv.Close()
	client, sess := newTestClient(t, srv, "access-1", "refresh-1")
	ctx := context.Background()

	var out echo
	require.NoError(t, client.Get(ctx, "/catalogo/productos/", &out))
	assert.Equal(t, "Bearer access-1", out.Auth)
	assert.Equal(t, "1", out.Tenant)
	assert.NotEmpty(t, out.RequestID)

	require.NoError(t, sess.SelectTenant(ctx, "4"))
	require.NoError(t, client.Get(ctx, "/catalogo/productos/", &out))
	assert.Equal(t, "4", out.Tenant)

	require.NoError(t, client.Get(ctx, "/catalogo/productos/", &out, WithTenant("9")))
	assert.Equal(t, "9", out.Tenant)
}

func TestDoSkipsCredentialOnTokenEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(echoHeaders))
	defer srv.Close()
	client, _ := newTestClient(t, srv, "access-1", "refresh-1")

	var out echo
	require.NoError(t, client.Post(context.Background(), TokenPath, map[string]string{"username": "ana"}, &out))
	assert.Empty(t, out.Auth)
	assert.Equal(t, "1", out.Tenant)
}

func TestDoPropagatesNonAuthErrorsUnchanged(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "boom"})
	}))
	defer srv.Close()
	client, _ := newTestClient(t, srv, "access-1", "refresh-1")

	err := client.Post(context.Background(), "/ventas/", map[string]int{"x": 1}, nil)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, "boom", apiErr.Detail)
	assert.Equal(t, int32(1), calls.Load(), "no retry on 5xx")
}

func TestDoUnauthorizedWithoutRefreshClearsSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == RefreshPath {
			t.Error("refresh endpoint must not be called")
		}
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "token expired"})
	}))
	defer srv.Close()
	client, sess := newTestClient(t, srv, "access-1", "")
	var expired []error
	client.OnSessionExpired(func(err error) { expired = append(expired, err) })

	err := client.Get(context.Background(), "/ventas/historial/", nil)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.ErrorIs(t, err, session.ErrNoRefreshToken)
	assert.ErrorIs(t, err, ErrSessionExpired)
	assert.False(t, sess.Authenticated())
	require.Len(t, expired, 1)
	assert.ErrorIs(t, expired[0], ErrSessionExpired)
}

func TestDoUnauthorizedAnonymousDoesNotExpire(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Authentication credentials were not provided."})
	}))
	defer srv.Close()
	client, _ := newTestClient(t, srv, "", "")
	called := false
	client.OnSessionExpired(func(error) { called = true })

	err := client.Get(context.Background(), "/ventas/historial/", nil)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.False(t, called)
}

func TestDoRefreshesAndReplays(t *testing.T) {
	var refreshCalls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case RefreshPath:
			refreshCalls.Add(1)
			assert.Empty(t, r.Header.Get("Authorization"))
			writeJSON(w, http.StatusOK, map[string]string{"access": "access-2"})
		default:
			if r.Header.Get("Authorization") != "Bearer access-2" {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "token expired"})
				return
			}
			echoHeaders(w, r)
		}
	}))
	defer srv.Close()
	client, sess := newTestClient(t, srv, "access-1", "refresh-1")

	var out echo
	require.NoError(t, client.Get(context.Background(), "/ventas/historial/", &out))
	assert.Equal(t, "Bearer access-2", out.Auth)
	assert.Equal(t, int32(1), refreshCalls.Load())
	assert.Equal(t, "access-2", sess.AccessToken())
}

func TestDoRetriesOnlyOnce(t *testing.T) {
	var refreshCalls, calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == RefreshPath {
			refreshCalls.Add(1)
			writeJSON(w, http.StatusOK, map[string]string{"access": "access-2"})
			return
		}
		calls.Add(1)
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "no permission"})
	}))
	defer srv.Close()
	client, _ := newTestClient(t, srv, "access-1", "refresh-1")

	err := client.Get(context.Background(), "/reportes/resumen-dia/", nil)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, int32(1), refreshCalls.Load())
	assert.Equal(t, int32(2), calls.Load())
}

func TestConcurrentUnauthorizedSharesOneRefresh(t *testing.T) {
	var refreshCalls, rejected atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == RefreshPath {
			refreshCalls.Add(1)
			deadline := time.Now().Add(2 * time.Second)
			for rejected.Load() < 2 && time.Now().Before(deadline) {
				time.Sleep(time.Millisecond)
			}
			writeJSON(w, http.StatusOK, map[string]string{"access": "access-2"})
			return
		}
		if r.Header.Get("Authorization") != "Bearer access-2" {
			rejected.Add(1)
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "token expired"})
			return
		}
		echoHeaders(w, r)
	}))
	defer srv.Close()
	client, _ := newTestClient(t, srv, "access-1", "refresh-1")

	var wg sync.WaitGroup
	results := make([]echo, 2)
	errs := make([]error, 2)
	for i, path := range []string{"/ventas/historial/", "/compras/historial/"} {
		wg.Add(1)
		go func(i int, path string) {
			defer wg.Done()
			errs[i] = client.Get(context.Background(), path, &results[i])
		}(i, path)
	}
	wg.Wait()

	assert.Equal(t, int32(1), refreshCalls.Load())
	for i := range results {
		require.NoError(t, errs[i])
		assert.Equal(t, "Bearer access-2", results[i].Auth)
	}
}

func TestConcurrentUnauthorizedRefreshFailure(t *testing.T) {
	var refreshCalls, rejected atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == RefreshPath {
			refreshCalls.Add(1)
			deadline := time.Now().Add(2 * time.Second)
			for rejected.Load() < 2 && time.Now().Before(deadline) {
				time.Sleep(time.Millisecond)
			}
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Token is invalid or expired"})
			return
		}
		rejected.Add(1)
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "token expired"})
	}))
	defer srv.Close()
	client, sess := newTestClient(t, srv, "access-1", "refresh-1")

	var expired atomic.Int32
	client.OnSessionExpired(func(err error) {
		expired.Add(1)
		assert.ErrorIs(t, err, ErrSessionExpired)
	})

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = client.Get(context.Background(), "/ventas/historial/", nil)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), refreshCalls.Load())
	assert.Equal(t, int32(1), expired.Load())
	assert.False(t, sess.Authenticated())
	for _, err := range errs {
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrSessionExpired) || errors.Is(err, session.ErrNoRefreshToken),
			"unexpected error: %v", err)
	}
}

func TestDoTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(echoHeaders))
	client, _ := newTestClient(t, srv, "access-1", "refresh-1")
	srv.Close()

	err := client.Get(context.Background(), "/catalogo/productos/", nil)
	require.Error(t, err)
	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr))
	assert.Equal(t, "No se pudo conectar.", Message(err, "No se pudo conectar."))
}
