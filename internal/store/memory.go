package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"fieldroute/internal/model"
)

// Memory is a simple in-memory store used when no DATABASE_URL is set.
type Memory struct {
	mu        sync.Mutex
	scenarios map[string]model.Scenario
	order     []string                   // scenario ids, insertion order
	runs      map[string][]model.SolveRun // scenario id -> runs, newest last
}

func NewMemory() *Memory {
	return &Memory{
		scenarios: map[string]model.Scenario{},
		runs:      map[string][]model.SolveRun{},
	}
}

func (m *Memory) CreateScenario(_ context.Context, in model.ScenarioIn) (model.Scenario, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sc := model.Scenario{
		ID:        uuid.New().String(),
		Name:      in.Name,
		Tasks:     append([]model.Task(nil), in.Tasks...),
		Agents:    append([]model.Agent(nil), in.Agents...),
		CreatedAt: time.Now().UTC(),
	}
	m.scenarios[sc.ID] = sc
	m.order = append(m.order, sc.ID)
	return sc, nil
}

func (m *Memory) GetScenario(_ context.Context, id string) (model.Scenario, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sc, ok := m.scenarios[id]
	if !ok {
		return model.Scenario{}, ErrNotFound
	}
	return sc, nil
}

func (m *Memory) ListScenarios(_ context.Context, limit int) ([]model.Scenario, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit <= 0 || limit > len(m.order) {
		limit = len(m.order)
	}
	out := make([]model.Scenario, 0, limit)
	for _, id := range m.order[:limit] {
		out = append(out, m.scenarios[id])
	}
	return out, nil
}

func (m *Memory) DeleteScenario(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.scenarios[id]; !ok {
		return ErrNotFound
	}
	delete(m.scenarios, id)
	delete(m.runs, id)
	for i, sid := range m.order {
		if sid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

func (m *Memory) SaveSolveRun(_ context.Context, run model.SolveRun) (model.SolveRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if run.ScenarioID != "" {
		if _, ok := m.scenarios[run.ScenarioID]; !ok {
			return model.SolveRun{}, ErrNotFound
		}
	}
	run.ID = uuid.New().String()
	run.CreatedAt = time.Now().UTC()
	m.runs[run.ScenarioID] = append(m.runs[run.ScenarioID], run)
	return run, nil
}

func (m *Memory) ListSolveRuns(_ context.Context, scenarioID string, limit int) ([]model.SolveRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var runs []model.SolveRun
	if scenarioID != "" {
		runs = m.runs[scenarioID]
	} else {
		for _, rs := range m.runs {
			runs = append(runs, rs...)
		}
		sort.Slice(runs, func(i, j int) bool { return runs[i].CreatedAt.Before(runs[j].CreatedAt) })
	}
	if limit <= 0 || limit > len(runs) {
		limit = len(runs)
	}
	// newest first
	out := make([]model.SolveRun, 0, limit)
	for i := len(runs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, runs[i])
	}
	return out, nil
}
