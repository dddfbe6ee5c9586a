package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/frahmantamala/emspay-gateway/internal/core/events"
)

const (
	DefaultNamespace = "emspay"
	Route            = "/metrics"
)

// Metrics holds the collectors exposed on /metrics. Each instance owns its
// registry so tests can build as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	InFlight        prometheus.Gauge

	PaymentsInitiated *prometheus.CounterVec
	RedirectsPrepared *prometheus.CounterVec
}

func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = DefaultNamespace
	}

	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests handled by the server.",
		}, []string{"method", "route", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_ms",
			Help:      "HTTP request latency distribution in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		}, []string{"method", "route"}),
		InFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_in_flight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		}),
		PaymentsInitiated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_initiated_total",
			Help:      "Checkout submissions whose payment snapshot was persisted.",
		}, []string{"payment_method", "currency_code"}),
		RedirectsPrepared: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "redirects_prepared_total",
			Help:      "Signed hosted payment requests handed to the receipt page.",
		}, []string{"gateway_id"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.RequestsTotal,
		m.RequestDuration,
		m.InFlight,
		m.PaymentsInitiated,
		m.RedirectsPrepared,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	m.RequestsTotal.WithLabelValues(method, route, fmt.Sprint(status)).Inc()
	m.RequestDuration.WithLabelValues(method, route).Observe(float64(elapsed) / float64(time.Millisecond))
}

func (m *Metrics) handlePaymentInitiated(_ context.Context, event events.Event) error {
	initiated, ok := event.(*events.PaymentInitiatedEvent)
	if !ok {
		return fmt.Errorf("expected PaymentInitiatedEvent, got %T", event)
	}
	m.PaymentsInitiated.WithLabelValues(initiated.PaymentMethod, initiated.CurrencyCode).Inc()
	return nil
}

func (m *Metrics) handleRedirectPrepared(_ context.Context, event events.Event) error {
	prepared, ok := event.(*events.RedirectPreparedEvent)
	if !ok {
		return fmt.Errorf("expected RedirectPreparedEvent, got %T", event)
	}
	m.RedirectsPrepared.WithLabelValues(prepared.GatewayID).Inc()
	return nil
}

// RegisterEventHandlers counts checkout events as they are published.
func (m *Metrics) RegisterEventHandlers(eventBus *events.EventBus) {
	eventBus.Subscribe(events.EventTypePaymentInitiated, m.handlePaymentInitiated)
	eventBus.Subscribe(events.EventTypePaymentRedirectPrepared, m.handleRedirectPrepared)
}
