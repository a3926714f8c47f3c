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

const namespace = "boardcrawl"

// shutdownTimeout bounds how long Serve waits for in-flight scrapes on exit.
const shutdownTimeout = 5 * time.Second

// Metrics holds the collectors of one crawl run on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	PagesFetched     prometheus.Counter
	FetchRetries     prometheus.Counter
	CircuitTrips     prometheus.Counter
	RecordsQueued    *prometheus.CounterVec
	RecordsFiltered  prometheus.Counter
	TopicsSkipped    prometheus.Counter
	Writes           prometheus.Counter
	WriteFailures    prometheus.Counter
	QueuePending     prometheus.Gauge
	FetchDuration    prometheus.Histogram
	DrainBatchLength prometheus.Histogram
}

// New creates a Metrics with all collectors registered.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		PagesFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pages_fetched_total",
			Help:      "Total number of pages fetched and parsed successfully.",
		}),
		FetchRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_retries_total",
			Help:      "Total number of failed fetch attempts that were retried or tripped the breaker.",
		}),
		CircuitTrips: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "circuit_trips_total",
			Help:      "Total number of times the global retry ceiling was reached.",
		}),
		RecordsQueued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_queued_total",
			Help:      "Total number of records handed to the write queue, labeled by kind.",
		}, []string{"kind"}),
		RecordsFiltered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_filtered_total",
			Help:      "Total number of records rejected by heuristic filters.",
		}),
		TopicsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "topics_skipped_total",
			Help:      "Total number of topics skipped after a failure.",
		}),
		Writes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "writes_total",
			Help:      "Total number of records appended to destination files.",
		}),
		WriteFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "write_failures_total",
			Help:      "Total number of records dropped after exhausting write retries.",
		}),
		QueuePending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_pending",
			Help:      "Number of write tasks waiting for the next drain.",
		}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Duration of single fetch attempts in seconds.",
			Buckets:   prometheus.DefBuckets,
		}),
		DrainBatchLength: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "drain_batch_tasks",
			Help:      "Number of write tasks taken per drain batch.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
	}

	m.registry.MustRegister(
		m.PagesFetched,
		m.FetchRetries,
		m.CircuitTrips,
		m.RecordsQueued,
		m.RecordsFiltered,
		m.TopicsSkipped,
		m.Writes,
		m.WriteFailures,
		m.QueuePending,
		m.FetchDuration,
		m.DrainBatchLength,
	)

	return m
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an HTTP handler serving the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("exposing Prometheus metrics", "address", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// The helpers below make a nil *Metrics a no-op.

// IncPagesFetched records a successful fetch.
func (m *Metrics) IncPagesFetched() {
	if m != nil {
		m.PagesFetched.Inc()
	}
}

// IncFetchRetries records a failed fetch attempt.
func (m *Metrics) IncFetchRetries() {
	if m != nil {
		m.FetchRetries.Inc()
	}
}

// IncCircuitTrips records a breaker trip.
func (m *Metrics) IncCircuitTrips() {
	if m != nil {
		m.CircuitTrips.Inc()
	}
}

// ObserveFetch records the duration of a fetch attempt.
func (m *Metrics) ObserveFetch(d time.Duration) {
	if m != nil {
		m.FetchDuration.Observe(d.Seconds())
	}
}

// AddRecordsQueued records n queued records of kind.
func (m *Metrics) AddRecordsQueued(kind string, n int) {
	if m != nil && n > 0 {
		m.RecordsQueued.WithLabelValues(kind).Add(float64(n))
	}
}

// AddRecordsFiltered records n filtered records.
func (m *Metrics) AddRecordsFiltered(n int) {
	if m != nil && n > 0 {
		m.RecordsFiltered.Add(float64(n))
	}
}

// IncTopicsSkipped records a skipped topic.
func (m *Metrics) IncTopicsSkipped() {
	if m != nil {
		m.TopicsSkipped.Inc()
	}
}

// IncWrites records a successful append.
func (m *Metrics) IncWrites() {
	if m != nil {
		m.Writes.Inc()
	}
}

// IncWriteFailures records a dropped write.
func (m *Metrics) IncWriteFailures() {
	if m != nil {
		m.WriteFailures.Inc()
	}
}

// SetQueuePending records the current queue length.
func (m *Metrics) SetQueuePending(n int) {
	if m != nil {
		m.QueuePending.Set(float64(n))
	}
}

// ObserveDrainBatch records the size of a drain batch.
func (m *Metrics) ObserveDrainBatch(n int) {
	if m != nil {
		m.DrainBatchLength.Observe(float64(n))
	}
}
