package route

import (
	"testing"

	"fieldroute/internal/model"
)

func pt(lat, lng float64) *model.GeoPoint { return &model.GeoPoint{Lat: lat, Lng: lng} }

func TestBuildRegistryOrdering(t *testing.T) {
	agents := []model.Agent{
		{ID: "a0", Skills: []string{"driver"}, Location: pt(0, 0), AvailabilityMin: 100},
		{ID: "a1", Skills: []string{"driver"}, Location: pt(1, 1), AvailabilityMin: 100},
	}
	tasks := []model.Task{
		{ID: "t0", Skill: "driver", DurationMin: 10, Location: pt(2, 2)},
		{ID: "t1", Skill: "driver", DurationMin: 10, Pickup: pt(3, 3), Drop: pt(4, 4)},
		{ID: "t2", Skill: "driver", DurationMin: 10, Location: pt(5, 5)},
	}
	reg := BuildRegistry(agents, tasks)

	if reg.NumAgents != 2 || len(reg.Nodes) != 6 {
		t.Fatalf("got %d agents, %d nodes", reg.NumAgents, len(reg.Nodes))
	}
	wantRoles := []NodeRole{RoleAgentStart, RoleAgentStart, RoleTask, RolePickup, RoleDrop, RoleTask}
	for i, want := range wantRoles {
		if reg.Nodes[i].Role != want {
			t.Fatalf("node %d: role %v, want %v", i, reg.Nodes[i].Role, want)
		}
		if reg.Nodes[i].Index != i {
			t.Fatalf("node %d: stored index %d", i, reg.Nodes[i].Index)
		}
	}
	if reg.Nodes[3].Task != 1 || reg.Nodes[4].Task != 1 {
		t.Fatalf("pickup/drop must both resolve to task 1")
	}
	if d, ok := reg.DropOf(3); !ok || d != 4 {
		t.Fatalf("DropOf(3) = %d,%v", d, ok)
	}
	if pairs := reg.Pairs(); len(pairs) != 1 || pairs[0] != [2]int{3, 4} {
		t.Fatalf("pairs = %v", pairs)
	}
	// rebuild determinism
	reg2 := BuildRegistry(agents, tasks)
	for i := range reg.Nodes {
		if reg.Nodes[i] != reg2.Nodes[i] {
			t.Fatalf("registry not deterministic at node %d", i)
		}
	}
}
