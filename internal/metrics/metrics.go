package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/evently/evently/internal/ingestion"
	"github.com/evently/evently/internal/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector exposes Prometheus metrics for inbound HTTP requests and
// ingestion runs on a private registry.
type Collector struct {
	registry        *prometheus.Registry
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec

	runTotal       *prometheus.CounterVec
	runDuration    prometheus.Histogram
	eventsFetched  prometheus.Counter
	eventsAccepted prometheus.Counter
	eventsRejected prometheus.Counter
	eventsUpserted prometheus.Counter
}

// NewCollector constructs a collector with default histograms/counters.
func NewCollector() (*Collector, error) {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "evently",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Latency distribution for inbound HTTP requests.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "evently",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of inbound HTTP requests.",
	}, []string{"method", "path", "status"})

	runTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "evently",
		Subsystem: "ingestion",
		Name:      "runs_total",
		Help:      "Total ingestion runs by trigger and outcome.",
	}, []string{"trigger", "status"})

	runDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "evently",
		Subsystem: "ingestion",
		Name:      "run_duration_seconds",
		Help:      "Wall-clock duration of ingestion runs.",
		Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
	})

	eventsFetched := newEventCounter(registry, "events_fetched_total", "Raw events fetched from the source API.")
	eventsAccepted := newEventCounter(registry, "events_accepted_total", "Events accepted by the normalizer.")
	eventsRejected := newEventCounter(registry, "events_rejected_total", "Events rejected during normalization.")
	eventsUpserted := newEventCounter(registry, "events_upserted_total", "Event rows written by the reconciler.")

	for _, c := range []prometheus.Collector{requestDuration, requestTotal, runTotal, runDuration} {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}

	return &Collector{
		registry:        registry,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		runTotal:        runTotal,
		runDuration:     runDuration,
		eventsFetched:   eventsFetched,
		eventsAccepted:  eventsAccepted,
		eventsRejected:  eventsRejected,
		eventsUpserted:  eventsUpserted,
	}, nil
}

func newEventCounter(registry *prometheus.Registry, name, help string) prometheus.Counter {
	c := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "evently",
		Subsystem: "ingestion",
		Name:      name,
		Help:      help,
	})
	registry.MustRegister(c)
	return c
}

// Handler returns an HTTP handler for exposing Prometheus metrics.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// ObserveRun records a finished ingestion run. Implements
// ingestion.Observer.
func (c *Collector) ObserveRun(trigger models.Trigger, status models.RunStatus, summary ingestion.Summary, duration time.Duration) {
	c.runTotal.WithLabelValues(string(trigger), string(status)).Inc()
	c.runDuration.Observe(duration.Seconds())
	c.eventsFetched.Add(float64(summary.Fetched))
	c.eventsAccepted.Add(float64(summary.Accepted))
	c.eventsRejected.Add(float64(summary.Rejected))
	c.eventsUpserted.Add(float64(summary.Upserted))
}

// InstrumentHandler wraps the provided handler to record HTTP metrics.
func (c *Collector) InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(rw.status)
		path := r.URL.Path

		c.requestTotal.WithLabelValues(r.Method, path, status).Inc()
		c.requestDuration.WithLabelValues(r.Method, path, status).Observe(duration)
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(status int) {
	rw.status = status
	rw.ResponseWriter.WriteHeader(status)
}
