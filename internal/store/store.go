package store

import (
	"context"
	"errors"

	"fieldroute/internal/model"
)

// Store is the persistence interface used by the API server. It holds
// scenarios (task/agent input datasets) and per-run solver metrics; computed
// assignments are never persisted.
type Store interface {
	CreateScenario(ctx context.Context, in model.ScenarioIn) (model.Scenario, error)
	GetScenario(ctx context.Context, id string) (model.Scenario, error)
	ListScenarios(ctx context.Context, limit int) ([]model.Scenario, error)
	DeleteScenario(ctx context.Context, id string) error

	SaveSolveRun(ctx context.Context, run model.SolveRun) (model.SolveRun, error)
	ListSolveRuns(ctx context.Context, scenarioID string, limit int) ([]model.SolveRun, error)
}

var ErrNotFound = errors.New("not found")
