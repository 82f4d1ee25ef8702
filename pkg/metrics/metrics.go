package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the engine's operational metrics on a private registry so
// tests can construct collectors without clashing on the default one.
type Collector struct {
	registry           *prometheus.Registry
	loansOriginated    prometheus.Counter
	paymentsRecorded   prometheus.Counter
	paymentAmounts     prometheus.Histogram
	requestDuration    *prometheus.HistogramVec
	outstandingBalance prometheus.Gauge
}

func NewCollector() *Collector {
	registry := prometheus.NewRegistry()

	return &Collector{
		registry: registry,
		loansOriginated: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "loans_originated_total",
			Help: "Total number of loans originated",
		}),
		paymentsRecorded: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "payments_recorded_total",
			Help: "Total number of payments recorded",
		}),
		paymentAmounts: promauto.With(registry).NewHistogram(prometheus.HistogramOpts{
			Name:    "payment_amount",
			Help:    "Distribution of recorded payment amounts",
			Buckets: prometheus.ExponentialBuckets(100, 5, 8),
		}),
		requestDuration: promauto.With(registry).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		outstandingBalance: promauto.With(registry).NewGauge(prometheus.GaugeOpts{
			Name: "portfolio_outstanding_balance",
			Help: "Sum of current balances over active loans, refreshed by the aggregator",
		}),
	}
}

func (c *Collector) LoanOriginated() {
	c.loansOriginated.Inc()
}

func (c *Collector) PaymentRecorded(amount float64) {
	c.paymentsRecorded.Inc()
	c.paymentAmounts.Observe(amount)
}

func (c *Collector) ObserveRequest(method, route, status string, duration time.Duration) {
	c.requestDuration.WithLabelValues(method, route, status).Observe(duration.Seconds())
}

func (c *Collector) SetOutstandingBalance(balance float64) {
	c.outstandingBalance.Set(balance)
}

// Handler exposes the registry for the /metrics endpoint.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
