package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"fieldroute/internal/model"
)

type Postgres struct {
	db *sql.DB
}

func NewPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return &Postgres{db: db}, nil
}

// Migrate applies the schema (dev helper; idempotent).
func (p *Postgres) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS scenarios (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			payload JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS solve_runs (
			id TEXT PRIMARY KEY,
			scenario_id TEXT REFERENCES scenarios(id) ON DELETE CASCADE,
			solved BOOLEAN NOT NULL,
			cost BIGINT NOT NULL,
			distance_km DOUBLE PRECISION NOT NULL,
			unassigned INT NOT NULL,
			iterations INT NOT NULL,
			improvements INT NOT NULL,
			metaheuristic TEXT NOT NULL,
			elapsed_ms BIGINT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_solve_runs_scenario ON solve_runs(scenario_id, created_at DESC)`,
	}
	for _, s := range stmts {
		if _, err := p.db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("store: migrate: %w", err)
		}
	}
	return nil
}

type scenarioPayload struct {
	Tasks  []model.Task  `json:"tasks"`
	Agents []model.Agent `json:"agents"`
}

func (p *Postgres) CreateScenario(ctx context.Context, in model.ScenarioIn) (model.Scenario, error) {
	id := uuid.New().String()
	payload, err := json.Marshal(scenarioPayload{Tasks: in.Tasks, Agents: in.Agents})
	if err != nil {
		return model.Scenario{}, err
	}
	var created time.Time
	err = p.db.QueryRowContext(ctx,
		`INSERT INTO scenarios (id, name, payload) VALUES ($1, $2, $3) RETURNING created_at`,
		id, in.Name, payload).Scan(&created)
	if err != nil {
		return model.Scenario{}, err
	}
	return model.Scenario{ID: id, Name: in.Name, Tasks: in.Tasks, Agents: in.Agents, CreatedAt: created}, nil
}

func (p *Postgres) GetScenario(ctx context.Context, id string) (model.Scenario, error) {
	var (
		sc      model.Scenario
		payload []byte
	)
	err := p.db.QueryRowContext(ctx,
		`SELECT id, name, payload, created_at FROM scenarios WHERE id=$1`, id).
		Scan(&sc.ID, &sc.Name, &payload, &sc.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Scenario{}, ErrNotFound
	}
	if err != nil {
		return model.Scenario{}, err
	}
	var body scenarioPayload
	if err := json.Unmarshal(payload, &body); err != nil {
		return model.Scenario{}, err
	}
	sc.Tasks, sc.Agents = body.Tasks, body.Agents
	return sc, nil
}

func (p *Postgres) ListScenarios(ctx context.Context, limit int) ([]model.Scenario, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := p.db.QueryContext(ctx,
		`SELECT id, name, payload, created_at FROM scenarios ORDER BY created_at LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Scenario
	for rows.Next() {
		var (
			sc      model.Scenario
			payload []byte
		)
		if err := rows.Scan(&sc.ID, &sc.Name, &payload, &sc.CreatedAt); err != nil {
			return nil, err
		}
		var body scenarioPayload
		if err := json.Unmarshal(payload, &body); err != nil {
			return nil, err
		}
		sc.Tasks, sc.Agents = body.Tasks, body.Agents
		out = append(out, sc)
	}
	return out, rows.Err()
}

func (p *Postgres) DeleteScenario(ctx context.Context, id string) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM scenarios WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) SaveSolveRun(ctx context.Context, run model.SolveRun) (model.SolveRun, error) {
	run.ID = uuid.New().String()
	var scenarioID any
	if run.ScenarioID != "" {
		scenarioID = run.ScenarioID
	}
	err := p.db.QueryRowContext(ctx,
		`INSERT INTO solve_runs
			(id, scenario_id, solved, cost, distance_km, unassigned, iterations, improvements, metaheuristic, elapsed_ms)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10) RETURNING created_at`,
		run.ID, scenarioID, run.Solved, run.Cost, run.DistanceKm, run.Unassigned,
		run.Iterations, run.Improvements, run.Metaheuristic, run.ElapsedMs).Scan(&run.CreatedAt)
	if err != nil {
		return model.SolveRun{}, err
	}
	return run, nil
}

func (p *Postgres) ListSolveRuns(ctx context.Context, scenarioID string, limit int) ([]model.SolveRun, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := p.db.QueryContext(ctx,
		`SELECT id, COALESCE(scenario_id, ''), solved, cost, distance_km, unassigned, iterations, improvements, metaheuristic, elapsed_ms, created_at
		 FROM solve_runs WHERE ($1 = '' OR scenario_id = $1) ORDER BY created_at DESC LIMIT $2`,
		scenarioID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.SolveRun
	for rows.Next() {
		var r model.SolveRun
		if err := rows.Scan(&r.ID, &r.ScenarioID, &r.Solved, &r.Cost, &r.DistanceKm, &r.Unassigned,
			&r.Iterations, &r.Improvements, &r.Metaheuristic, &r.ElapsedMs, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
