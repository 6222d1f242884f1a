package service

import (
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsSnapshot aggregates solver counters for quick inspection without
// scraping the Prometheus endpoint.
type MetricsSnapshot struct {
	SolvesTotal            uint64    `json:"solvesTotal"`
	SolvesCancelled        uint64    `json:"solvesCancelled"`
	IterationsTotal        uint64    `json:"iterationsTotal"`
	AverageSolveDurationMs float64   `json:"averageSolveDurationMs"`
	ActiveSolves           int64     `json:"activeSolves"`
	Goroutines             int       `json:"goroutines"`
	GeneratedAt            time.Time `json:"generatedAt"`
}

// MetricsService encapsulates Prometheus instrumentation for the solver and
// provides lightweight snapshots for embedding callers.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	solveDuration   *prometheus.HistogramVec
	solveTotal      *prometheus.CounterVec
	iterationsTotal prometheus.Counter
	acceptanceRatio prometheus.Gauge
	bestCost        prometheus.Gauge
	activeSolves    prometheus.Gauge

	solveCount         uint64
	cancelledCount     uint64
	iterationCount     uint64
	solveDurationTotal uint64
	activeCount        int64
}

// NewMetricsService registers the solver Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	solveDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "solve_duration_seconds",
		Help:    "Duration of schedule solves in seconds",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
	}, []string{"mode"})

	solveTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "solves_total",
		Help: "Total number of schedule solves",
	}, []string{"mode", "status"})

	iterationsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "solve_iterations_total",
		Help: "Total annealing iterations across all solves",
	})

	acceptanceRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "solve_acceptance_ratio",
		Help: "Accepted-move ratio of the most recent solve",
	})

	bestCost := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "solve_best_cost",
		Help: "Weighted cost of the most recent solve's best solution",
	})

	activeSolves := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "solves_active",
		Help: "Number of solves currently running",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(solveDuration, solveTotal, iterationsTotal, acceptanceRatio, bestCost, activeSolves, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		solveDuration:   solveDuration,
		solveTotal:      solveTotal,
		iterationsTotal: iterationsTotal,
		acceptanceRatio: acceptanceRatio,
		bestCost:        bestCost,
		activeSolves:    activeSolves,
	}
}

// Handler exposes the Prometheus HTTP handler for callers that mount one.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// SolveStarted marks a solve as in flight.
func (m *MetricsService) SolveStarted() {
	if m == nil {
		return
	}
	m.activeSolves.Inc()
	atomic.AddInt64(&m.activeCount, 1)
}

// SolveFinished records the outcome of a completed solve.
func (m *MetricsService) SolveFinished(mode, status string, iterations, accepted int, best float64, duration time.Duration) {
	if m == nil {
		return
	}
	m.activeSolves.Dec()
	atomic.AddInt64(&m.activeCount, -1)

	m.solveDuration.WithLabelValues(mode).Observe(duration.Seconds())
	m.solveTotal.WithLabelValues(mode, status).Inc()
	m.iterationsTotal.Add(float64(iterations))
	m.bestCost.Set(best)
	if iterations > 0 {
		m.acceptanceRatio.Set(float64(accepted) / float64(iterations))
	}

	atomic.AddUint64(&m.solveCount, 1)
	if status == "cancelled" {
		atomic.AddUint64(&m.cancelledCount, 1)
	}
	atomic.AddUint64(&m.iterationCount, uint64(iterations))
	atomic.AddUint64(&m.solveDurationTotal, uint64(duration.Nanoseconds()))
}

// Snapshot returns aggregated counters.
func (m *MetricsService) Snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	solves := atomic.LoadUint64(&m.solveCount)
	durTotal := atomic.LoadUint64(&m.solveDurationTotal)

	var avgMs float64
	if solves > 0 {
		avgMs = float64(durTotal) / float64(solves) / float64(time.Millisecond)
	}

	return MetricsSnapshot{
		SolvesTotal:            solves,
		SolvesCancelled:        atomic.LoadUint64(&m.cancelledCount),
		IterationsTotal:        atomic.LoadUint64(&m.iterationCount),
		AverageSolveDurationMs: avgMs,
		ActiveSolves:           atomic.LoadInt64(&m.activeCount),
		Goroutines:             runtime.NumGoroutine(),
		GeneratedAt:            time.Now().UTC(),
	}
}
