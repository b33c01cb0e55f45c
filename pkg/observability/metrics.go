package observability

import (
	"context"
	"net/http"
	"strconv"

	"github.com/aretw0/threeview/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "threeview"

// Metrics holds the collectors of one process on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	dispatched     *prometheus.CounterVec
	deliveryErrors *prometheus.CounterVec
	replays        prometheus.Counter
	replaySize     prometheus.Histogram
	clicks         *prometheus.CounterVec
}

// NewMetrics creates and registers the collectors, plus the Go runtime
// and process collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		dispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_dispatched_total",
			Help:      "Commands handed to the scheduler, per socket.",
		}, []string{"kind", "replay"}),
		deliveryErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "delivery_errors_total",
			Help:      "Commands that could not be delivered to a socket.",
		}, []string{"kind"}),
		replays: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "replays_total",
			Help:      "Full scene replays sent to newly connected sockets.",
		}),
		replaySize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "replay_objects",
			Help:      "Number of objects in each replay.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
		clicks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "clicks_total",
			Help:      "Click events routed to a view.",
		}, []string{"handled"}),
	}

	m.registry.MustRegister(
		m.dispatched,
		m.deliveryErrors,
		m.replays,
		m.replaySize,
		m.clicks,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry exposes the underlying registry, for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// TrackConnections exports a gauge read from fn at scrape time.
func (m *Metrics) TrackConnections(fn func() float64) error {
	return m.registry.Register(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "connections",
		Help:      "Live WebSocket connections on this process.",
	}, fn))
}

// Hooks returns view hooks that record into m.
func (m *Metrics) Hooks() domain.Hooks {
	return domain.Hooks{
		OnDispatch: func(_ context.Context, e *domain.DispatchEvent) {
			m.dispatched.WithLabelValues(string(e.Command.Kind), strconv.FormatBool(e.Replay)).Inc()
		},
		OnDeliveryError: func(_ context.Context, e *domain.DeliveryErrorEvent) {
			m.deliveryErrors.WithLabelValues(string(e.Command.Kind)).Inc()
		},
		OnReplay: func(_ context.Context, e *domain.ReplayEvent) {
			m.replays.Inc()
			m.replaySize.Observe(float64(e.Objects))
		},
		OnClick: func(_ context.Context, _ *domain.ClickEvent, handled bool) {
			m.clicks.WithLabelValues(strconv.FormatBool(handled)).Inc()
		},
	}
}
