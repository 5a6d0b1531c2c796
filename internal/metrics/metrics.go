// Package metrics exposes Prometheus counters for ledger traffic.
//
// Each Recorder owns its registry so that servers and tests never share
// global collector state.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder counts ledger writes, queries and RPC calls.
type Recorder struct {
	registry *prometheus.Registry

	// WritesTotal counts Admit/Revise/Retire calls by outcome.
	WritesTotal *prometheus.CounterVec
	// QueriesTotal counts read operations by query name.
	QueriesTotal *prometheus.CounterVec
	// RPCDuration tracks JSON-RPC method latency.
	RPCDuration *prometheus.HistogramVec
}

// NewRecorder creates a Recorder backed by a fresh registry that also carries
// the Go runtime and process collectors.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		WritesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_writes_total",
				Help: "Total number of ledger writes by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		QueriesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_queries_total",
				Help: "Total number of ledger queries by query name",
			},
			[]string{"query"},
		),
		RPCDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ledger_rpc_duration_seconds",
				Help:    "Duration of JSON-RPC calls in seconds",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
			[]string{"method", "status"},
		),
	}
}

// RecordWrite counts one ledger write.
func (r *Recorder) RecordWrite(operation, outcome string) {
	r.WritesTotal.WithLabelValues(operation, outcome).Inc()
}

// RecordQuery counts one ledger query.
func (r *Recorder) RecordQuery(query string) {
	r.QueriesTotal.WithLabelValues(query).Inc()
}

// ObserveRPC records the duration of one JSON-RPC call. status is "ok" or the
// error code returned to the client.
func (r *Recorder) ObserveRPC(method, status string, elapsed time.Duration) {
	r.RPCDuration.WithLabelValues(method, status).Observe(elapsed.Seconds())
}

// Registry returns the registry the recorder writes to.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the recorder's registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
