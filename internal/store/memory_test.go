package store

import (
	"context"
	"testing"

	"fieldroute/internal/model"
)

func testScenarioIn() model.ScenarioIn {
	return model.ScenarioIn{
		Name: "demo",
		Tasks: []model.Task{
			{ID: "t0", Skill: "driver", DurationMin: 50, Zone: "560001", Location: &model.GeoPoint{Lat: 12.97, Lng: 77.59}},
		},
		Agents: []model.Agent{
			{ID: "a0", Skills: []string{"driver"}, Location: &model.GeoPoint{Lat: 12.91, Lng: 74.85}, AvailabilityMin: 120, AllowedZones: []string{"560001"}},
		},
	}
}

func testRun(scenarioID string) model.SolveRun {
	return model.SolveRun{ScenarioID: scenarioID, Solved: true, Cost: 42, DistanceKm: 3.5, Metaheuristic: "tabu_search", ElapsedMs: 120}
}

func TestMemoryScenarioLifecycle(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	sc, err := m.CreateScenario(ctx, testScenarioIn())
	if err != nil {
		t.Fatal(err)
	}
	if sc.ID == "" || sc.CreatedAt.IsZero() {
		t.Fatalf("scenario not populated: %+v", sc)
	}

	got, err := m.GetScenario(ctx, sc.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "demo" || len(got.Tasks) != 1 || len(got.Agents) != 1 {
		t.Fatalf("round trip mismatch: %+v", got)
	}

	list, err := m.ListScenarios(ctx, 10)
	if err != nil || len(list) != 1 {
		t.Fatalf("list: %v %v", list, err)
	}

	if err := m.DeleteScenario(ctx, sc.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := m.GetScenario(ctx, sc.ID); err != ErrNotFound {
		t.Fatalf("want ErrNotFound after delete, got %v", err)
	}
	if err := m.DeleteScenario(ctx, sc.ID); err != ErrNotFound {
		t.Fatalf("double delete: want ErrNotFound, got %v", err)
	}
}

func TestMemorySolveRuns(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	sc, _ := m.CreateScenario(ctx, testScenarioIn())

	for i := 0; i < 3; i++ {
		run := model.SolveRun{ScenarioID: sc.ID, Solved: true, Cost: int64(100 - i), Metaheuristic: "guided_local_search"}
		saved, err := m.SaveSolveRun(ctx, run)
		if err != nil {
			t.Fatal(err)
		}
		if saved.ID == "" {
			t.Fatal("run id not assigned")
		}
	}
	runs, err := m.ListSolveRuns(ctx, sc.ID, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 {
		t.Fatalf("limit ignored: %d runs", len(runs))
	}
	if runs[0].Cost != 98 {
		t.Fatalf("want newest first, got cost %d", runs[0].Cost)
	}

	if _, err := m.SaveSolveRun(ctx, model.SolveRun{ScenarioID: "missing"}); err != ErrNotFound {
		t.Fatalf("want ErrNotFound for unknown scenario, got %v", err)
	}
}
