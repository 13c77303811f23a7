package route

import (
	"testing"

	"fieldroute/internal/geo"
	"fieldroute/internal/model"
)

func TestBuildMatrixProperties(t *testing.T) {
	agents := []model.Agent{{ID: "a0", Skills: []string{"s"}, Location: pt(12.914142, 74.856033), AvailabilityMin: 120}}
	tasks := []model.Task{
		{ID: "t0", Skill: "s", DurationMin: 50, Location: pt(12.971598, 77.594566)},
		{ID: "t1", Skill: "s", DurationMin: 50, Location: pt(12.295810, 76.639381)},
	}
	reg := BuildRegistry(agents, tasks)
	m := BuildMatrix(reg, geo.Haversine{})

	n := len(reg.Nodes)
	for i := 0; i < n; i++ {
		if m.Dist[i][i] != 0 || m.Cost[i][i] != 0 {
			t.Fatalf("diagonal (%d,%d) not zero", i, i)
		}
		for j := 0; j < n; j++ {
			if m.Dist[i][j] != m.Dist[j][i] || m.Cost[i][j] != m.Cost[j][i] {
				t.Fatalf("matrix not symmetric at (%d,%d)", i, j)
			}
			if m.Dist[i][j] < 0 {
				t.Fatalf("negative distance at (%d,%d)", i, j)
			}
			if i != j && m.Dist[i][j] == 0 {
				t.Fatalf("distinct points (%d,%d) at zero distance", i, j)
			}
		}
	}
}

func TestBuildMatrixCostRounding(t *testing.T) {
	agents := []model.Agent{{ID: "a0", Skills: []string{"s"}, Location: pt(0, 0), AvailabilityMin: 1}}
	tasks := []model.Task{{ID: "t0", Skill: "s", DurationMin: 1, Location: pt(3, 4)}}
	reg := BuildRegistry(agents, tasks)
	m := BuildMatrix(reg, geo.Planar{})
	if m.Dist[0][1] != 5 || m.Cost[0][1] != 5 {
		t.Fatalf("got dist %v cost %v, want 5", m.Dist[0][1], m.Cost[0][1])
	}
}
