// Package metrics exposes sync counters and timings to Prometheus.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// Collector owns its registry so several taps can live in one process
// (tests do this).
type Collector struct {
	registry *prometheus.Registry
	records  *prometheus.CounterVec
	duration *prometheus.HistogramVec
	runs     *prometheus.CounterVec
}

func newCounterVec(name, help string, labels []string) *prometheus.CounterVec {
	return prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tap_firebird",
			Subsystem: "sync",
			Name:      name,
			Help:      help,
		},
		labels,
	)
}

func newHistogramVec(name, help string, labels []string) *prometheus.HistogramVec {
	return prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tap_firebird",
			Subsystem: "sync",
			Name:      name,
			Help:      help,
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 14),
		},
		labels,
	)
}

func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		records:  newCounterVec("records_total", "Records emitted per table.", []string{"database", "table"}),
		duration: newHistogramVec("duration_seconds", "Time spent syncing one table.", []string{"database", "table", "status"}),
		runs:     newCounterVec("runs_total", "Completed sync runs by status.", []string{"status"}),
	}
	c.registry.MustRegister(c.records, c.duration, c.runs)
	return c
}

// RecordSynced counts one emitted record. Safe on a nil collector.
func (c *Collector) RecordSynced(database, table string) {
	if c == nil {
		return
	}
	c.records.WithLabelValues(database, table).Inc()
}

// ObserveSync records how long a table sync took.
func (c *Collector) ObserveSync(database, table string, err error, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.duration.WithLabelValues(database, table, status(err)).Observe(elapsed.Seconds())
}

// RunFinished counts a whole sync run.
func (c *Collector) RunFinished(err error) {
	if c == nil {
		return
	}
	c.runs.WithLabelValues(status(err)).Inc()
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (c *Collector) Serve(ctx context.Context, addr string, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("serving metrics", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func status(err error) string {
	if err != nil {
		return StatusFailed
	}
	return StatusSucceeded
}
