package route

import (
	"context"
	"errors"
	"time"

	"fieldroute/internal/geo"
	"fieldroute/internal/model"
	"fieldroute/internal/solver"
)

// SolverAdapter is the contract consumed by the planner. The engine behind it
// must return within the configured time budget, either with an assignment or
// with solver.ErrNoSolution.
type SolverAdapter interface {
	Solve(ctx context.Context, p solver.Problem, opts solver.Options) (solver.Assignment, error)
}

// Planner is the solve entrypoint: validate, build the node space, matrix and
// constraint model, call the solver, decode. Stateless across calls.
type Planner struct {
	Adapter SolverAdapter
}

func NewPlanner(a SolverAdapter) *Planner { return &Planner{Adapter: a} }

// Solve runs one full assignment. A solver "no solution" outcome is not an
// error: it returns Solved=false with every task unassigned. The observer is
// optional and receives search progress snapshots.
func (pl *Planner) Solve(ctx context.Context, tasks []model.Task, agents []model.Agent, opts model.SolveOptions, obs solver.Observer) (model.Assignment, solver.Metrics, error) {
	if err := model.ValidateInputs(tasks, agents); err != nil {
		return model.Assignment{}, solver.Metrics{}, err
	}
	opts.Normalize()

	reg := BuildRegistry(agents, tasks)
	m := BuildMatrix(reg, geo.ByName(opts.Metric))
	p := BuildProblem(reg, m, tasks, agents, *opts.Penalty)

	raw, err := pl.Adapter.Solve(ctx, p, solver.Options{
		FirstSolution: opts.FirstSolution,
		Metaheuristic: opts.Metaheuristic,
		TimeLimit:     time.Duration(opts.TimeLimitMs) * time.Millisecond,
		Seed:          opts.Seed,
		Observer:      obs,
	})
	if errors.Is(err, solver.ErrNoSolution) {
		unassigned := make([]string, 0, len(tasks))
		for _, t := range tasks {
			unassigned = append(unassigned, t.ID)
		}
		return model.Assignment{Solved: false, Unassigned: unassigned, Routes: []model.AgentRoute{}}, solver.Metrics{}, nil
	}
	if err != nil {
		return model.Assignment{}, solver.Metrics{}, err
	}
	return DecodeSolution(reg, m, tasks, agents, raw), raw.Metrics, nil
}
