package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the solver and its status server.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	generations     prometheus.Counter
	phaseDuration   *prometheus.HistogramVec
	offspring       *prometheus.CounterVec
	seeded          *prometheus.CounterVec
	eliminated      prometheus.Counter
	bestPenalty     prometheus.Gauge
	bestFairness    prometheus.Gauge
	occupied        prometheus.Gauge
	dbQueryDuration *prometheus.HistogramVec
	cacheWrite      prometheus.Observer
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	generations := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "solver_generations_total",
		Help: "Completed solver generations",
	})

	phaseDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "solver_phase_duration_seconds",
		Help:    "Duration of each solver phase",
		Buckets: prometheus.DefBuckets,
	}, []string{"phase"})

	offspring := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "solver_offspring_total",
		Help: "Offspring produced by the breeder",
	}, []string{"result"})

	seeded := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "solver_seeded_total",
		Help: "Timetables built by the generator",
	}, []string{"result"})

	eliminated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "solver_eliminated_total",
		Help: "Table entries replaced by the eliminator",
	})

	bestPenalty := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "solver_best_penalty",
		Help: "Penalty of the best timetable so far",
	})

	bestFairness := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "solver_best_fairness",
		Help: "Fairness of the best timetable so far",
	})

	occupied := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "solver_table_occupied",
		Help: "Occupied slots of the solution table",
	})

	dbQueryDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "db_query_duration_seconds",
		Help:    "Duration of database queries",
		Buckets: prometheus.DefBuckets,
	}, []string{"query"})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache set operations",
		Buckets: prometheus.DefBuckets,
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, generations, phaseDuration, offspring, seeded,
		eliminated, bestPenalty, bestFairness, occupied, dbQueryDuration, cacheWrite, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		generations:     generations,
		phaseDuration:   phaseDuration,
		offspring:       offspring,
		seeded:          seeded,
		eliminated:      eliminated,
		bestPenalty:     bestPenalty,
		bestFairness:    bestFairness,
		occupied:        occupied,
		dbQueryDuration: dbQueryDuration,
		cacheWrite:      cacheWrite,
	}
}

// Registry exposes the underlying registry, mainly for tests.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// ObservePhase records how long one solver phase took.
func (m *MetricsService) ObservePhase(phase string, duration time.Duration) {
	if m == nil {
		return
	}
	m.phaseDuration.WithLabelValues(phase).Observe(duration.Seconds())
}

// RecordSeeding counts generator outcomes.
func (m *MetricsService) RecordSeeding(stats GeneratorStats) {
	if m == nil {
		return
	}
	m.seeded.WithLabelValues("success").Add(float64(stats.Success))
	m.seeded.WithLabelValues("failure").Add(float64(stats.Failure))
}

// RecordBreeding counts breeder outcomes.
func (m *MetricsService) RecordBreeding(stats BreederStats) {
	if m == nil {
		return
	}
	m.offspring.WithLabelValues("success").Add(float64(stats.Success))
	m.offspring.WithLabelValues("failure").Add(float64(stats.Failure))
}

// RecordGeneration closes a generation and updates the table gauges.
func (m *MetricsService) RecordGeneration(summary TableSummary, eliminated int) {
	if m == nil {
		return
	}
	m.generations.Inc()
	m.eliminated.Add(float64(eliminated))
	m.occupied.Set(float64(summary.Occupied))
	if summary.BestPenalty != nil {
		m.bestPenalty.Set(float64(*summary.BestPenalty))
	}
	if summary.BestFairness != nil {
		m.bestFairness.Set(float64(*summary.BestFairness))
	}
}

// ObserveDBQuery records database query timing.
func (m *MetricsService) ObserveDBQuery(label string, duration time.Duration) {
	if m == nil {
		return
	}
	m.dbQueryDuration.WithLabelValues(label).Observe(duration.Seconds())
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil || m.cacheWrite == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}
