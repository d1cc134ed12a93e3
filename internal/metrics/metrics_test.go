package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordRequestByStatusClass(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RecordRequest("POST", 201, 10*time.Millisecond)
	m.RecordRequest("POST", 401, 5*time.Millisecond)
	m.RecordRequest("POST", 0, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("POST", "2xx")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("POST", "4xx")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("POST", "transport_error")))
}

func TestRecordRefreshAndStep(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RecordRefresh(true)
	m.RecordRefresh(false)
	m.RecordRefresh(false)
	m.RecordStep("venta", "confirm", nil, time.Millisecond)
	m.RecordStep("venta", "confirm", errors.New("stock insuficiente"), time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.refreshes.WithLabelValues("ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.refreshes.WithLabelValues("failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.lifecycle.WithLabelValues("venta", "confirm", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.lifecycle.WithLabelValues("venta", "confirm", "error")))
}

func TestNewReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first := New(reg)
	second := New(reg)

	first.RecordRefresh(true)
	assert.Equal(t, 1.0, testutil.ToFloat64(second.refreshes.WithLabelValues("ok")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordRequest("GET", 200, time.Millisecond)
		m.RecordRefresh(true)
		m.RecordStep("compra", "create", nil, time.Millisecond)
	})
}
