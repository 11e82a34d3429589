// Package metrics records tool call counters and latencies and exposes them
// in the Prometheus exposition format.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Recorder owns a private registry so several instances never collide.
type Recorder struct {
	registry  *prometheus.Registry
	calls     *prometheus.CounterVec
	durations *prometheus.HistogramVec
}

// NewRecorder registers the wallet collectors plus the Go runtime and process
// collectors.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)
	return &Recorder{
		registry: reg,
		calls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "solwallet_tool_calls_total",
				Help: "Total number of wallet tool calls by outcome and error code.",
			},
			[]string{"tool", "outcome", "code"},
		),
		durations: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "solwallet_tool_call_duration_seconds",
				Help:    "Wallet tool call latency in seconds.",
				Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"tool"},
		),
	}
}

// ObserveToolCall records one completed tool call. An empty code is reported
// as "none".
func (r *Recorder) ObserveToolCall(tool string, failed bool, code string, duration time.Duration) {
	if r == nil {
		return
	}
	outcome := OutcomeSuccess
	if failed {
		outcome = OutcomeError
	}
	if code == "" {
		code = "none"
	}
	r.calls.WithLabelValues(tool, outcome, code).Inc()
	r.durations.WithLabelValues(tool).Observe(duration.Seconds())
}

// Handler exposes the metrics in Prometheus text exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// StartServer launches a standalone HTTP server exposing the /metrics endpoint
// and blocks until ctx is done.
func (r *Recorder) StartServer(ctx context.Context, addr string) error {
	if addr == "" {
		return errors.New("metrics address is empty")
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", r.Handler())

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err, ok := <-errCh:
		if !ok {
			return nil
		}
		return err
	}
}
