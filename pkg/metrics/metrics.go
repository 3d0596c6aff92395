// Package metrics provides the Prometheus collectors shared by the
// storefront services.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is the per-service collector set.
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration prometheus.Histogram

	// Catalog metrics.
	ProductSyncFallbackReads prometheus.Counter
	ProductSyncFailures      prometheus.Counter

	// Cart metrics.
	CartMutationsTotal *prometheus.CounterVec
	CartSyncStalls     prometheus.Counter

	// Order metrics.
	OrdersTotal  prometheus.Counter
	OrderRevenue prometheus.Counter

	registry *prometheus.Registry
}

// New registers the storefront collectors on a fresh registry.
func New(serviceName string) *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: serviceName,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "storefront",
			Subsystem: serviceName,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		ProductSyncFallbackReads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: serviceName,
			Name:      "product_sync_fallback_reads_total",
			Help:      "Catalog reads served by the fallback store",
		}),
		ProductSyncFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: serviceName,
			Name:      "product_sync_failures_total",
			Help:      "Product writes that failed on every backend",
		}),
		CartMutationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: serviceName,
			Name:      "cart_mutations_total",
			Help:      "Cart mutations by kind",
		}, []string{"kind"}),
		CartSyncStalls: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: serviceName,
			Name:      "cart_sync_stalls_total",
			Help:      "Cart mutations that fell back to local state after echo timeout",
		}),
		OrdersTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: serviceName,
			Name:      "orders_total",
			Help:      "Orders created",
		}),
		OrderRevenue: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: serviceName,
			Name:      "order_revenue_total",
			Help:      "Cumulative order revenue",
		}),
		registry: reg,
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.ProductSyncFallbackReads,
		m.ProductSyncFailures,
		m.CartMutationsTotal,
		m.CartSyncStalls,
		m.OrdersTotal,
		m.OrderRevenue,
	)
	return m
}

// Handler serves the /metrics endpoint for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
