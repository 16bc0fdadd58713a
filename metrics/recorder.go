package metrics

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder tracks metrics for proxied requests. It satisfies the
// proxy.Observer interface.
type Recorder struct {
	registry           *prometheus.Registry
	responseCounter    *prometheus.CounterVec
	fallthroughCounter prometheus.Counter
	upstreamErrCounter *prometheus.CounterVec
}

// NewRecorder creates a new Recorder with its own prometheus registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),

		responseCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portico_response_total",
			Help: "The total number of proxied HTTP responses sent to clients",
		}, []string{"route", "status"}),

		fallthroughCounter: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "portico_fallthrough_total",
			Help: "The total number of requests no proxy route handled",
		}),

		upstreamErrCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portico_upstream_error_total",
			Help: "The total number of requests that failed to reach an upstream",
		}, []string{"route"}),
	}
	r.registerMetrics()
	return r
}

// registerMetrics registers the various metrics we will record with the prometheus registry
func (r *Recorder) registerMetrics() {
	if err := r.registry.Register(r.responseCounter); err != nil {
		slog.Error("Failed to register response counter", "error", err)
	}

	if err := r.registry.Register(r.fallthroughCounter); err != nil {
		slog.Error("Failed to register fallthrough counter", "error", err)
	}

	if err := r.registry.Register(r.upstreamErrCounter); err != nil {
		slog.Error("Failed to register upstream error counter", "error", err)
	}

	// Prometheus-supplied general process metrics
	if err := r.registry.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		slog.Error("Failed to register process collector", "error", err)
	}

	if err := r.registry.Register(collectors.NewGoCollector()); err != nil {
		slog.Error("Failed to register go collector", "error", err)
	}
}

// Handler returns a HTTP handler that will provide prometheus metrics.
func (r *Recorder) Handler() http.Handler {
	return promhttp.InstrumentMetricHandler(
		r.registry,
		promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{}),
	)
}

// RouteResponse records a response sent to a client by the given route.
func (r *Recorder) RouteResponse(localPath string, status int) {
	r.responseCounter.With(prometheus.Labels{
		"route":  localPath,
		"status": fmt.Sprintf("%d", status),
	}).Inc()
}

// Fallthrough records a request that no route handled.
func (r *Recorder) Fallthrough(path string) {
	r.fallthroughCounter.Inc()
}

// UpstreamError records a request that failed to reach its upstream,
// alongside the implied 502 response.
func (r *Recorder) UpstreamError(localPath string) {
	r.upstreamErrCounter.With(prometheus.Labels{
		"route": localPath,
	}).Inc()

	r.responseCounter.With(prometheus.Labels{
		"route":  localPath,
		"status": "502",
	}).Inc()
}
