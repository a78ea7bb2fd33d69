package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all application metrics
type Metrics struct {
	// Order metrics
	OrdersPlaced    *prometheus.CounterVec
	StockRejections prometheus.Counter

	// Outbox / relay metrics
	OutboxInserted     *prometheus.CounterVec
	OutboxDelivered    *prometheus.CounterVec
	RelayCycleDuration prometheus.Histogram
	RelayBatchSize     prometheus.Histogram

	// Idempotency metrics
	IdempotencyRequests *prometheus.CounterVec

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// NewMetrics registers all collectors on the given registerer. A nil
// registerer falls back to the default registry.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		OrdersPlaced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_placed_total",
			Help:      "Order placement attempts by result.",
		}, []string{"result"}),
		StockRejections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stock_rejections_total",
			Help:      "Orders rejected for insufficient stock.",
		}),
		OutboxInserted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_events_inserted_total",
			Help:      "Outbox events written, by event type.",
		}, []string{"event_type"}),
		OutboxDelivered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_events_delivered_total",
			Help:      "Relay delivery outcomes by event type and result.",
		}, []string{"event_type", "result"}),
		RelayCycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "relay_cycle_duration_seconds",
			Help:      "Duration of one relay poll cycle.",
			Buckets:   prometheus.DefBuckets,
		}),
		RelayBatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "relay_batch_size",
			Help:      "Number of events claimed per cycle.",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100},
		}),
		IdempotencyRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "idempotency_requests_total",
			Help:      "Idempotency gate outcomes: miss, replayed, conflict.",
		}, []string{"outcome"}),
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	reg.MustRegister(
		m.OrdersPlaced,
		m.StockRejections,
		m.OutboxInserted,
		m.OutboxDelivered,
		m.RelayCycleDuration,
		m.RelayBatchSize,
		m.IdempotencyRequests,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
	)

	return m
}
