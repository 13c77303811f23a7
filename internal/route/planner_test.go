package route

import (
	"context"
	"errors"
	"testing"

	"fieldroute/internal/model"
	"fieldroute/internal/solver"
)

func newTestPlanner() *Planner { return NewPlanner(solver.NewEngine()) }

func planarOpts() model.SolveOptions {
	return model.SolveOptions{Metric: model.MetricPlanar, TimeLimitMs: 200, Seed: 7}
}

func driverAgent(id string, avail int, zones ...string) model.Agent {
	return model.Agent{ID: id, Skills: []string{"driver"}, Location: pt(0, 0), AvailabilityMin: avail, AllowedZones: zones}
}

func zoneTask(id string, dur int, zone string, lat, lng float64) model.Task {
	return model.Task{ID: id, Skill: "driver", DurationMin: dur, Zone: zone, Location: pt(lat, lng)}
}

func findRoute(t *testing.T, a model.Assignment, agentID string) model.AgentRoute {
	t.Helper()
	for _, r := range a.Routes {
		if r.AgentID == agentID {
			return r
		}
	}
	t.Fatalf("no route for agent %s in %+v", agentID, a)
	return model.AgentRoute{}
}

func TestSolveBothTasksFitCapacity(t *testing.T) {
	agents := []model.Agent{driverAgent("a0", 120, "560001")}
	tasks := []model.Task{
		zoneTask("t0", 50, "560001", 1, 0),
		zoneTask("t1", 50, "560001", 2, 0),
	}
	a, _, err := newTestPlanner().Solve(context.Background(), tasks, agents, planarOpts(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if !a.Solved {
		t.Fatal("expected a solution")
	}
	r := findRoute(t, a, "a0")
	if len(r.TaskIDs) != 2 {
		t.Fatalf("route = %v, want both tasks", r.TaskIDs)
	}
	if r.DurationMin != 100 {
		t.Fatalf("duration = %d, want 100", r.DurationMin)
	}
	if len(a.Unassigned) != 0 {
		t.Fatalf("unassigned = %v, want none", a.Unassigned)
	}
}

func TestSolveCapacityLeavesOneUnassigned(t *testing.T) {
	agents := []model.Agent{driverAgent("a0", 60, "560001")}
	tasks := []model.Task{
		zoneTask("t0", 50, "560001", 1, 0),
		zoneTask("t1", 50, "560001", 2, 0),
	}
	a, _, err := newTestPlanner().Solve(context.Background(), tasks, agents, planarOpts(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(a.Unassigned) != 1 {
		t.Fatalf("unassigned = %v, want exactly one", a.Unassigned)
	}
	r := findRoute(t, a, "a0")
	if r.DurationMin > 60 {
		t.Fatalf("duration %d exceeds availability 60", r.DurationMin)
	}
}

func TestSolveUnmatchedSkillAlwaysUnassigned(t *testing.T) {
	agents := []model.Agent{driverAgent("a0", 500)}
	tasks := []model.Task{{ID: "t0", Skill: "welder", DurationMin: 30, Location: pt(1, 1)}}
	for _, penalty := range []int64{10, 1000, 100000} {
		penalty := penalty
		opts := planarOpts()
		opts.Penalty = &penalty
		a, _, err := newTestPlanner().Solve(context.Background(), tasks, agents, opts, nil)
		if err != nil {
			t.Fatal(err)
		}
		if len(a.Unassigned) != 1 || a.Unassigned[0] != "t0" {
			t.Fatalf("penalty %d: unassigned = %v, want [t0]", penalty, a.Unassigned)
		}
	}
}

func TestSolvePickupDeliverySingleEntry(t *testing.T) {
	agents := []model.Agent{
		{ID: "a0", Skills: []string{"B"}, Location: pt(4, 4), AvailabilityMin: 120},
	}
	tasks := []model.Task{
		{ID: "t0", Skill: "B", DurationMin: 50, Pickup: pt(2, 2), Drop: pt(3, 1)},
	}
	a, _, err := newTestPlanner().Solve(context.Background(), tasks, agents, planarOpts(), nil)
	if err != nil {
		t.Fatal(err)
	}
	r := findRoute(t, a, "a0")
	if len(r.TaskIDs) != 1 || r.TaskIDs[0] != "t0" {
		t.Fatalf("route = %v, want single combined entry t0", r.TaskIDs)
	}
	if r.DurationMin != 50 {
		t.Fatalf("duration = %d, want 50 (counted once)", r.DurationMin)
	}
	if len(a.Unassigned) != 0 {
		t.Fatalf("unassigned = %v", a.Unassigned)
	}
	// drop is the last stop, so the agent ends there
	if r.End == nil || r.End.Lat != 3 || r.End.Lng != 1 {
		t.Fatalf("end = %+v, want the drop location", r.End)
	}
}

func TestSolvePickupDeliverySameAgentWithTwoAgents(t *testing.T) {
	// one agent sits at the drop, the other at the pickup; the pair must not
	// be split between them
	agents := []model.Agent{
		{ID: "a0", Skills: []string{"B"}, Location: pt(0, 1), AvailabilityMin: 120},
		{ID: "a1", Skills: []string{"B"}, Location: pt(10, 10), AvailabilityMin: 120},
	}
	tasks := []model.Task{
		{ID: "t0", Skill: "B", DurationMin: 40, Pickup: pt(10, 9), Drop: pt(0, 0)},
	}
	a, _, err := newTestPlanner().Solve(context.Background(), tasks, agents, planarOpts(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(a.Unassigned) != 0 {
		t.Fatalf("unassigned = %v", a.Unassigned)
	}
	var owner *model.AgentRoute
	for i := range a.Routes {
		if len(a.Routes[i].TaskIDs) == 0 {
			continue
		}
		if owner != nil {
			t.Fatalf("task split across agents: %+v", a.Routes)
		}
		owner = &a.Routes[i]
	}
	if owner == nil || len(owner.TaskIDs) != 1 || owner.TaskIDs[0] != "t0" {
		t.Fatalf("want t0 once on a single route, got %+v", a.Routes)
	}
	// the owning agent finished at the drop, so both halves ran on its route
	if owner.End == nil || owner.End.Lat != 0 || owner.End.Lng != 0 {
		t.Fatalf("end = %+v, want the drop location", owner.End)
	}
}

func TestSolveZoneEligibilityInvariant(t *testing.T) {
	agents := []model.Agent{
		driverAgent("near", 500, "560002"),
		driverAgent("right", 500, "560001"),
	}
	agents[1].Location = pt(50, 50) // eligible agent is far away
	tasks := []model.Task{zoneTask("t0", 30, "560001", 1, 1)}
	a, _, err := newTestPlanner().Solve(context.Background(), tasks, agents, planarOpts(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := findRoute(t, a, "near").TaskIDs; len(got) != 0 {
		t.Fatalf("zone-restricted agent served %v", got)
	}
	if got := findRoute(t, a, "right").TaskIDs; len(got) != 1 {
		t.Fatalf("eligible agent route = %v, want [t0]", got)
	}
}

func TestSolveTaskNeverInRouteAndUnassigned(t *testing.T) {
	agents := []model.Agent{driverAgent("a0", 60), driverAgent("a1", 60)}
	tasks := []model.Task{
		zoneTask("t0", 50, "", 1, 0),
		zoneTask("t1", 50, "", 2, 0),
		zoneTask("t2", 50, "", 3, 0),
	}
	a, _, err := newTestPlanner().Solve(context.Background(), tasks, agents, planarOpts(), nil)
	if err != nil {
		t.Fatal(err)
	}
	count := map[string]int{}
	for _, r := range a.Routes {
		for _, id := range r.TaskIDs {
			count[id]++
		}
	}
	for _, id := range a.Unassigned {
		count[id]++
	}
	for _, task := range tasks {
		if count[task.ID] != 1 {
			t.Fatalf("task %s appears %d times across routes+unassigned", task.ID, count[task.ID])
		}
	}
}

func TestSolvePenaltyMonotonicity(t *testing.T) {
	agents := []model.Agent{driverAgent("a0", 200)}
	tasks := []model.Task{
		zoneTask("t0", 50, "", 30, 0),
		zoneTask("t1", 50, "", 60, 0),
	}
	unassignedAt := func(penalty int64) int {
		opts := planarOpts()
		opts.Penalty = &penalty
		a, _, err := newTestPlanner().Solve(context.Background(), tasks, agents, opts, nil)
		if err != nil {
			t.Fatal(err)
		}
		return len(a.Unassigned)
	}
	low := unassignedAt(10)
	high := unassignedAt(5000)
	if high > low {
		t.Fatalf("raising the penalty increased unassigned tasks: %d -> %d", low, high)
	}
	if high != 0 {
		t.Fatalf("penalty 5000 should assign everything, %d left", high)
	}
}

func TestSolveExplicitZeroPenalty(t *testing.T) {
	agents := []model.Agent{driverAgent("a0", 200)}
	tasks := []model.Task{zoneTask("t0", 50, "", 40, 0)}
	zero := int64(0)
	opts := planarOpts()
	opts.Penalty = &zero
	a, _, err := newTestPlanner().Solve(context.Background(), tasks, agents, opts, nil)
	if err != nil {
		t.Fatal(err)
	}
	// zero means opting out is free, not "use the default 1000": serving the
	// task costs 80, so it stays unassigned at no cost
	if len(a.Unassigned) != 1 {
		t.Fatalf("unassigned = %v, want [t0]", a.Unassigned)
	}
	if a.Cost != 0 {
		t.Fatalf("cost = %d, want 0", a.Cost)
	}
}

func TestSolveValidation(t *testing.T) {
	agents := []model.Agent{driverAgent("a0", 100)}
	cases := []struct {
		name   string
		tasks  []model.Task
		agents []model.Agent
	}{
		{"empty tasks", nil, agents},
		{"empty agents", []model.Task{zoneTask("t0", 10, "", 1, 1)}, nil},
		{"zero duration", []model.Task{{ID: "t0", Skill: "driver", Location: pt(1, 1)}}, agents},
		{"both shapes", []model.Task{{ID: "t0", Skill: "driver", DurationMin: 5, Location: pt(1, 1), Pickup: pt(2, 2), Drop: pt(3, 3)}}, agents},
		{"half pair", []model.Task{{ID: "t0", Skill: "driver", DurationMin: 5, Pickup: pt(2, 2)}}, agents},
		{"duplicate ids", []model.Task{zoneTask("t0", 10, "", 1, 1), zoneTask("t0", 10, "", 2, 2)}, agents},
	}
	for _, tc := range cases {
		_, _, err := newTestPlanner().Solve(context.Background(), tc.tasks, tc.agents, planarOpts(), nil)
		var verr *model.ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("%s: got %v, want ValidationError", tc.name, err)
		}
	}
}

type noSolutionAdapter struct{}

func (noSolutionAdapter) Solve(context.Context, solver.Problem, solver.Options) (solver.Assignment, error) {
	return solver.Assignment{}, solver.ErrNoSolution
}

func TestSolveNoSolutionIsEmptyResultNotError(t *testing.T) {
	pl := NewPlanner(noSolutionAdapter{})
	tasks := []model.Task{zoneTask("t0", 10, "", 1, 1)}
	agents := []model.Agent{driverAgent("a0", 100)}
	a, _, err := pl.Solve(context.Background(), tasks, agents, planarOpts(), nil)
	if err != nil {
		t.Fatalf("no-solution must not be an error: %v", err)
	}
	if a.Solved {
		t.Fatal("Solved should be false")
	}
	if len(a.Unassigned) != 1 || a.Unassigned[0] != "t0" {
		t.Fatalf("unassigned = %v, want all tasks", a.Unassigned)
	}
}

func TestDecodePanicsOnMalformedAssignment(t *testing.T) {
	agents := []model.Agent{driverAgent("a0", 100)}
	tasks := []model.Task{zoneTask("t0", 10, "", 1, 1)}
	reg := BuildRegistry(agents, tasks)
	m := BuildMatrix(reg, planarMetric{})
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on short next slice")
		}
	}()
	DecodeSolution(reg, m, tasks, agents, solver.Assignment{Next: []int{0}})
}

type planarMetric struct{}

func (planarMetric) Distance(a, b model.GeoPoint) float64 {
	dx, dy := a.Lat-b.Lat, a.Lng-b.Lng
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}
	return dx + dy
}
