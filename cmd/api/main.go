package main

import (
	"log"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"fieldroute/internal/api"
	"fieldroute/internal/config"
	"fieldroute/internal/metrics"
	"fieldroute/internal/monitor"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	srvDeps, err := api.NewServer(cfg)
	if err != nil {
		log.Fatalf("failed to init server: %v", err)
	}
	metrics.RegisterDefault()

	mux := http.NewServeMux()

	// Solving
	mux.Handle("/v1/solve", api.MetricsMiddleware("/v1/solve", srvDeps.RateLimited(srvDeps.SolveHandler)))
	mux.Handle("/v1/solve/stream", api.MetricsMiddleware("/v1/solve/stream", http.HandlerFunc(srvDeps.SolveStreamHandler)))

	// Scenarios
	mux.Handle("/v1/scenarios", api.MetricsMiddleware("/v1/scenarios", http.HandlerFunc(srvDeps.ScenariosHandler)))
	mux.Handle("/v1/scenarios/", api.MetricsMiddleware("/v1/scenarios/{id}", http.HandlerFunc(srvDeps.ScenarioByIDHandler)))

	// Admin
	mux.Handle("/v1/admin/solve-metrics", api.MetricsMiddleware("/v1/admin/solve-metrics", http.HandlerFunc(srvDeps.SolveMetricsHandler)))

	// Health
	mux.HandleFunc("/healthz", srvDeps.HealthHandler)
	mux.HandleFunc("/readyz", srvDeps.ReadyHandler)
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	if cfg.Monitor.Enabled {
		mon := monitor.New(time.Duration(cfg.Monitor.IntervalSec) * time.Second)
		mon.CPUPercentMax = cfg.Monitor.CPUPercentMax
		mon.RSSMaxBytes = cfg.Monitor.RSSMaxMB << 20
		mon.Start()
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           logMiddleware(mux),
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Printf("API listening on %s", cfg.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}
}

func logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		dur := time.Since(start)
		log.Printf("%s %s %s %v", r.RemoteAddr, r.Method, r.URL.Path, dur)
	})
}
