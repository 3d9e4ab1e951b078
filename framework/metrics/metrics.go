// Package metrics exports bootstrap and HTTP counters to Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/km-arc/go-resolver/framework/container"
)

// Collector holds the application's Prometheus metrics. It is a
// container.Observer, so passing it to the pool counts bindings and
// injections as they happen.
type Collector struct {
	// Registry for this collector instance
	registry *prometheus.Registry

	// Container metrics
	Bindings   *prometheus.CounterVec
	Injections *prometheus.CounterVec

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

var _ container.Observer = (*Collector)(nil)

// NewCollector creates a collector on a fresh registry. namespace prefixes
// every metric name.
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	bindings := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolver_bindings_total",
			Help:      "Bindings made, by resolver namespace",
		},
		[]string{"namespace"},
	)

	injections := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolver_injections_total",
			Help:      "Fields injected, by supplying namespace and lookup source",
		},
		[]string{"namespace", "source"},
	)

	httpRequests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "status"},
	)

	httpDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	registry.MustRegister(bindings, injections, httpRequests, httpDuration)

	return &Collector{
		registry:     registry,
		Bindings:     bindings,
		Injections:   injections,
		HTTPRequests: httpRequests,
		HTTPDuration: httpDuration,
	}
}

// Bound implements container.Observer.
func (c *Collector) Bound(namespace string, _ container.BindingKey, _ any) {
	c.Bindings.WithLabelValues(namespace).Inc()
}

// Injected implements container.Observer.
func (c *Collector) Injected(e container.InjectionEvent) {
	c.Injections.WithLabelValues(e.Namespace, string(e.Source)).Inc()
}

// Middleware counts and times every request.
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		c.HTTPRequests.WithLabelValues(r.Method, strconv.Itoa(status)).Inc()
		c.HTTPDuration.WithLabelValues(r.Method).Observe(time.Since(start).Seconds())
	})
}

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// Registry exposes the underlying registry, e.g. to add process collectors.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }
