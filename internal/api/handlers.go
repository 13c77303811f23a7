package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"fieldroute/internal/buildinfo"
	"fieldroute/internal/metrics"
	"fieldroute/internal/model"
	"fieldroute/internal/solver"
	"fieldroute/internal/store"
)

type solveRequest struct {
	RequestID string             `json:"requestId,omitempty"`
	Tasks     []model.Task       `json:"tasks"`
	Agents    []model.Agent      `json:"agents"`
	Options   model.SolveOptions `json:"options"`
}

type solveMetrics struct {
	Iterations   int   `json:"iterations"`
	Improvements int   `json:"improvements"`
	BestCost     int64 `json:"bestCost"`
	ElapsedMs    int64 `json:"elapsedMs"`
}

type solveResponse struct {
	RequestID  string           `json:"requestId"`
	Assignment model.Assignment `json:"assignment"`
	Metrics    solveMetrics     `json:"metrics"`
}

// mergeOptions overlays non-zero request options on the configured defaults.
func (s *Server) mergeOptions(req model.SolveOptions) model.SolveOptions {
	o := s.Cfg.SolveDefaults()
	if req.Penalty != nil {
		o.Penalty = req.Penalty
	}
	if req.TimeLimitMs != 0 {
		o.TimeLimitMs = req.TimeLimitMs
	}
	if req.FirstSolution != "" {
		o.FirstSolution = req.FirstSolution
	}
	if req.Metaheuristic != "" {
		o.Metaheuristic = req.Metaheuristic
	}
	if req.Metric != "" {
		o.Metric = req.Metric
	}
	o.Seed = req.Seed
	return o
}

// runSolve executes one solve, streaming progress events to subscribers of
// requestID and recording solver metrics.
func (s *Server) runSolve(r *http.Request, requestID string, tasks []model.Task, agents []model.Agent, opts model.SolveOptions) (model.Assignment, solver.Metrics, error) {
	obs := func(p solver.Progress) {
		s.Broker.Publish(requestID, SolveEvent{Type: EventProgress, Data: map[string]any{
			"iteration":  p.Iteration,
			"bestCost":   p.BestCost,
			"unassigned": p.Unassigned,
			"elapsedMs":  p.Elapsed.Milliseconds(),
		}})
	}
	start := time.Now()
	asg, m, err := s.Planner.Solve(r.Context(), tasks, agents, opts, obs)
	elapsed := time.Since(start)

	outcome := "solved"
	switch {
	case err != nil:
		outcome = "error"
	case !asg.Solved:
		outcome = "unsolved"
	}
	metrics.Solves.WithLabelValues(opts.Metaheuristic, outcome).Inc()
	metrics.SolveDuration.WithLabelValues(opts.Metaheuristic).Observe(elapsed.Seconds())
	if err == nil {
		metrics.UnassignedTasks.Observe(float64(len(asg.Unassigned)))
		s.Broker.Publish(requestID, SolveEvent{Type: EventResult, Data: map[string]any{
			"solved":     asg.Solved,
			"cost":       asg.Cost,
			"distanceKm": asg.DistanceKm,
			"unassigned": len(asg.Unassigned),
		}})
	} else {
		s.Broker.Publish(requestID, SolveEvent{Type: EventError, Data: map[string]any{"detail": err.Error()}})
	}
	return asg, m, err
}

func (s *Server) writeSolveError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *model.ValidationError
	if errors.As(err, &verr) {
		writeProblem(w, http.StatusBadRequest, "Invalid solve input", verr.Detail, r.URL.Path)
		return
	}
	writeProblem(w, http.StatusInternalServerError, "Solve failed", err.Error(), r.URL.Path)
}

// SolveHandler handles POST /v1/solve
func (s *Server) SolveHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req solveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
		return
	}
	if err := validateSolveOptions(req.Options); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid solve options", err.Error(), r.URL.Path)
		return
	}
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}
	asg, m, err := s.runSolve(r, req.RequestID, req.Tasks, req.Agents, s.mergeOptions(req.Options))
	if err != nil {
		s.writeSolveError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, solveResponse{
		RequestID:  req.RequestID,
		Assignment: asg,
		Metrics:    solveMetrics{Iterations: m.Iterations, Improvements: m.Improvements, BestCost: m.BestCost, ElapsedMs: m.ElapsedMs},
	})
}

// ScenariosHandler handles POST/GET /v1/scenarios
func (s *Server) ScenariosHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var in model.ScenarioIn
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
			return
		}
		if err := model.ValidateInputs(in.Tasks, in.Agents); err != nil {
			s.writeSolveError(w, r, err)
			return
		}
		sc, err := s.Store.CreateScenario(r.Context(), in)
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "Create scenario failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusCreated, sc)
	case http.MethodGet:
		limit := 100
		if v := r.URL.Query().Get("limit"); v != "" {
			fmt.Sscanf(v, "%d", &limit)
		}
		items, err := s.Store.ListScenarios(r.Context(), limit)
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "List scenarios failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// ScenarioByIDHandler handles /v1/scenarios/{id} and /v1/scenarios/{id}/solve
func (s *Server) ScenarioByIDHandler(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/scenarios/")
	id, sub, _ := strings.Cut(rest, "/")
	if id == "" {
		writeProblem(w, http.StatusNotFound, "Not found", "missing scenario id", r.URL.Path)
		return
	}
	switch sub {
	case "":
		s.scenarioHandler(w, r, id)
	case "solve":
		s.scenarioSolveHandler(w, r, id)
	default:
		writeProblem(w, http.StatusNotFound, "Not found", "unknown scenario subresource", r.URL.Path)
	}
}

func (s *Server) scenarioHandler(w http.ResponseWriter, r *http.Request, id string) {
	switch r.Method {
	case http.MethodGet:
		sc, err := s.Store.GetScenario(r.Context(), id)
		if errors.Is(err, store.ErrNotFound) {
			writeProblem(w, http.StatusNotFound, "Not found", "scenario "+id, r.URL.Path)
			return
		}
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "Get scenario failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusOK, sc)
	case http.MethodDelete:
		err := s.Store.DeleteScenario(r.Context(), id)
		if errors.Is(err, store.ErrNotFound) {
			writeProblem(w, http.StatusNotFound, "Not found", "scenario "+id, r.URL.Path)
			return
		}
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "Delete scenario failed", err.Error(), r.URL.Path)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) scenarioSolveHandler(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !s.limiter.Allow() {
		writeProblem(w, http.StatusTooManyRequests, "Rate limited", "solve rate limit exceeded, retry later", r.URL.Path)
		return
	}
	sc, err := s.Store.GetScenario(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeProblem(w, http.StatusNotFound, "Not found", "scenario "+id, r.URL.Path)
		return
	}
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "Get scenario failed", err.Error(), r.URL.Path)
		return
	}
	var req struct {
		RequestID string             `json:"requestId,omitempty"`
		Options   model.SolveOptions `json:"options"`
	}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
			return
		}
	}
	if err := validateSolveOptions(req.Options); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid solve options", err.Error(), r.URL.Path)
		return
	}
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}
	opts := s.mergeOptions(req.Options)
	asg, m, err := s.runSolve(r, req.RequestID, sc.Tasks, sc.Agents, opts)
	if err != nil {
		s.writeSolveError(w, r, err)
		return
	}
	run, err := s.Store.SaveSolveRun(r.Context(), model.SolveRun{
		ScenarioID:    sc.ID,
		Solved:        asg.Solved,
		Cost:          asg.Cost,
		DistanceKm:    asg.DistanceKm,
		Unassigned:    len(asg.Unassigned),
		Iterations:    m.Iterations,
		Improvements:  m.Improvements,
		Metaheuristic: opts.Metaheuristic,
		ElapsedMs:     m.ElapsedMs,
	})
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "Save solve run failed", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"requestId":  req.RequestID,
		"run":        run,
		"assignment": asg,
	})
}

// SolveMetricsHandler handles GET /v1/admin/solve-metrics
func (s *Server) SolveMetricsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	scenarioID := r.URL.Query().Get("scenarioId")
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		fmt.Sscanf(v, "%d", &limit)
	}
	runs, err := s.Store.ListSolveRuns(r.Context(), scenarioID, limit)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "List solve runs failed", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": runs})
}

// HealthHandler handles GET /healthz
func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	info := buildinfo.Info()
	info["status"] = "ok"
	writeJSON(w, http.StatusOK, info)
}

// ReadyHandler handles GET /readyz
func (s *Server) ReadyHandler(w http.ResponseWriter, r *http.Request) {
	if _, err := s.Store.ListScenarios(r.Context(), 1); err != nil {
		writeProblem(w, http.StatusServiceUnavailable, "Not ready", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
