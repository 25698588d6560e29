package metrics

import (
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "fwatch"

// Collector instruments calls to the remote service. Each process owns its
// own registry; the CLI has no scrape endpoint and exports via WriteTextfile.
type Collector struct {
	registry *prometheus.Registry

	Requests        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	Failures        *prometheus.CounterVec
	SessionChanges  *prometheus.CounterVec
}

func New() *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Collector{
		registry: reg,
		Requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "gateway_requests_total",
				Help:      "Calls to the remote service by operation and status code",
			},
			[]string{"operation", "status_code"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "gateway_request_duration_seconds",
				Help:      "Remote call latency by operation",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"operation"},
		),
		Failures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "gateway_failures_total",
				Help:      "Failed remote calls by operation and failure kind",
			},
			[]string{"operation", "kind"},
		),
		SessionChanges: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "session_transitions_total",
				Help:      "Session status transitions by target status",
			},
			[]string{"to"},
		),
	}
}

// ObserveRequest records one finished call. status is 0 when no response
// arrived.
func (c *Collector) ObserveRequest(operation string, status int, elapsed time.Duration) {
	if c == nil {
		return
	}
	code := "none"
	if status > 0 {
		code = strconv.Itoa(status)
	}
	c.Requests.WithLabelValues(operation, code).Inc()
	c.RequestDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

func (c *Collector) ObserveFailure(operation, kind string) {
	if c == nil {
		return
	}
	c.Failures.WithLabelValues(operation, kind).Inc()
}

func (c *Collector) ObserveTransition(to string) {
	if c == nil {
		return
	}
	c.SessionChanges.WithLabelValues(to).Inc()
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// WriteTextfile dumps the registry in the node_exporter textfile format.
func (c *Collector) WriteTextfile(path string) error {
	if c == nil {
		return errors.New("metrics collector not configured")
	}
	return prometheus.WriteToTextfile(path, c.registry)
}
