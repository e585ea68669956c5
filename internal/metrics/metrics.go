package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// Registry is the dedicated Prometheus registry for the API
	Registry = prometheus.NewRegistry()
	// HTTPRequests counts requests by method, path, and status
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
		[]string{"method", "path", "status"},
	)
	// HTTPDuration records request durations in seconds
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"method", "path", "status"},
	)

	// PlanGenerations counts plan generation outcomes
	PlanGenerations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "plan_generations_total", Help: "Daily plan generations by outcome."},
		[]string{"outcome"},
	)
	// SolverDuration tracks solver wall time in seconds
	SolverDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "solver_duration_seconds", Help: "Route solver wall time in seconds.", Buckets: []float64{0.01, 0.05, 0.1, 0.2, 0.5, 1, 2, 5}},
	)
	// SolverIterations tracks local search iterations per run
	SolverIterations = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "solver_iterations", Help: "Local search iterations per solver run.", Buckets: []float64{100, 500, 1000, 2000, 5000, 10000, 50000}},
	)
	// UnassignedPoints tracks how many points each plan left unserved
	UnassignedPoints = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "plan_unassigned_points", Help: "Points left unassigned per generated plan.", Buckets: []float64{0, 1, 2, 5, 10, 20, 50}},
	)

	// NotifyDeliveries counts notification delivery outcomes by event type and status
	NotifyDeliveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "notify_deliveries_total", Help: "Notification deliveries by event type and status."},
		[]string{"event_type", "status"},
	)
	// NotifyLatency tracks notification delivery latencies in milliseconds
	NotifyLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "notify_delivery_latency_ms", Help: "Notification delivery latency in ms.", Buckets: []float64{10, 50, 100, 200, 500, 1000, 2000, 5000}},
		[]string{"event_type", "status"},
	)
)

// RegisterDefault registers collectors to the default registry.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(HTTPRequests)
		Registry.MustRegister(HTTPDuration)
		Registry.MustRegister(PlanGenerations)
		Registry.MustRegister(SolverDuration)
		Registry.MustRegister(SolverIterations)
		Registry.MustRegister(UnassignedPoints)
		Registry.MustRegister(NotifyDeliveries)
		Registry.MustRegister(NotifyLatency)
		// Go/process collectors on our registry
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

var regOnce sync.Once
