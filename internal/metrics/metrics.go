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

	// Solves counts solve invocations by metaheuristic and outcome
	Solves = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "solves_total", Help: "Solve invocations by metaheuristic and outcome."},
		[]string{"metaheuristic", "outcome"},
	)
	// SolveDuration tracks wall-clock solve time in seconds
	SolveDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "solve_duration_seconds", Help: "Solve duration in seconds.", Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30}},
		[]string{"metaheuristic"},
	)
	// UnassignedTasks observes the unassigned-task count per solve
	UnassignedTasks = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "solve_unassigned_tasks", Help: "Unassigned tasks per solve.", Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100}},
	)
	// ProcessCPUPercent is the resource monitor's sampled CPU usage
	ProcessCPUPercent = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "monitor_cpu_percent", Help: "Sampled process CPU usage percent."},
	)
	// ProcessRSSBytes is the resource monitor's sampled resident set size
	ProcessRSSBytes = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "monitor_rss_bytes", Help: "Sampled process resident memory in bytes."},
	)
)

// RegisterDefault registers collectors to the default registry.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(HTTPRequests)
		Registry.MustRegister(HTTPDuration)
		Registry.MustRegister(Solves)
		Registry.MustRegister(SolveDuration)
		Registry.MustRegister(UnassignedTasks)
		Registry.MustRegister(ProcessCPUPercent)
		Registry.MustRegister(ProcessRSSBytes)
		// Go/process collectors on our registry
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

var regOnce sync.Once
