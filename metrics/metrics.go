// Package metrics exposes Prometheus collectors for request execution and the
// HTTP server that serves them.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/ruteri/native-vault/common"
)

// Registry holds every collector of this package.
var Registry = prometheus.NewRegistry()

var (
	executionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: common.PackageName,
		Name:      "executions_total",
		Help:      "Executed requests by contract kind, action and result.",
	}, []string{"kind", "action", "result"})

	executionDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: common.PackageName,
		Name:      "execution_duration_seconds",
		Help:      "Time spent executing a request including the commit.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"kind", "action"})
)

func init() {
	Registry.MustRegister(executionsTotal, executionDuration)
	Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
}

// RecordExecution counts one request and observes its duration.
func RecordExecution(kind, action string, err error, took time.Duration) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	executionsTotal.WithLabelValues(kind, action, result).Inc()
	executionDuration.WithLabelValues(kind, action).Observe(took.Seconds())
}

// MetricsServer serves Registry on /metrics.
type MetricsServer struct {
	srv *http.Server
}

// New creates a metrics server listening on addr.
func New(addr string) (*MetricsServer, error) {
	if addr == "" {
		return nil, errors.New("metrics address is empty")
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(Registry, promhttp.HandlerOpts{}))
	return &MetricsServer{
		srv: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}, nil
}

// ListenAndServe blocks serving metrics.
func (m *MetricsServer) ListenAndServe() error {
	return m.srv.ListenAndServe()
}

// Shutdown stops the metrics server.
func (m *MetricsServer) Shutdown(ctx context.Context) error {
	return m.srv.Shutdown(ctx)
}
