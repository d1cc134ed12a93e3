package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the client-side collectors for the transport and the order lifecycle.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	refreshes       *prometheus.CounterVec
	lifecycle       *prometheus.CounterVec
	stepDuration    *prometheus.HistogramVec
}

func New(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &Metrics{
		requests: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "pos_api_requests_total",
			Help: "Backend requests by method and status class",
		}, []string{"method", "class"}),
		requestDuration: registerHistogramVec(registerer, prometheus.HistogramOpts{
			Name:    "pos_api_request_duration_seconds",
			Help:    "Backend request latency in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"method"}),
		refreshes: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "pos_session_refresh_total",
			Help: "Access credential refresh exchanges by outcome",
		}, []string{"outcome"}),
		lifecycle: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "pos_order_lifecycle_total",
			Help: "Order lifecycle operations by kind, step and result",
		}, []string{"kind", "step", "result"}),
		stepDuration: registerHistogramVec(registerer, prometheus.HistogramOpts{
			Name:    "pos_order_step_duration_seconds",
			Help:    "Duration of order lifecycle steps in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"kind", "step"}),
	}
}

func registerCounterVec(registerer prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	collector := prometheus.NewCounterVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter vec %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogramVec(registerer prometheus.Registerer, opts prometheus.HistogramOpts, labels []string) *prometheus.HistogramVec {
	collector := prometheus.NewHistogramVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.HistogramVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram vec %q: %v", opts.Name, err))
	}
	return collector
}

// RecordRequest counts one backend round-trip. status 0 means a transport failure.
func (m *Metrics) RecordRequest(method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, statusClass(status)).Inc()
	m.requestDuration.WithLabelValues(method).Observe(duration.Seconds())
}

func (m *Metrics) RecordRefresh(ok bool) {
	if m == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "failed"
	}
	m.refreshes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordStep(kind, step string, err error, duration time.Duration) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.lifecycle.WithLabelValues(kind, step, result).Inc()
	m.stepDuration.WithLabelValues(kind, step).Observe(duration.Seconds())
}

func statusClass(status int) string {
	switch {
	case status == 0:
		return "transport_error"
	case status < 300:
		return "2xx"
	case status < 400:
		return "3xx"
	case status < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
