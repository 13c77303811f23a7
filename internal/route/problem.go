package route

import (
	"fieldroute/internal/model"
	"fieldroute/internal/solver"
)

// BuildProblem expresses capacity, eligibility, pickup-delivery binding and
// the optional-visit penalties as a solver problem over the registry's node
// space.
//
// Capacity: each task node carries its duration as demand (a pickup-delivery
// task charges the full duration at the pickup, zero at the drop, so the
// cumulative dimension counts it once); agent starts carry zero, cumulatives
// start at zero with no slack. Eligibility: simple tasks require skill and
// zone match, pickup-delivery tasks skill only, both halves sharing one
// allowed set. A task no agent may serve keeps an empty allowed set and is
// forced unassigned through its disjunction rather than failing the solve.
func BuildProblem(reg *Registry, m *Matrix, tasks []model.Task, agents []model.Agent, penalty int64) solver.Problem {
	n := len(reg.Nodes)
	p := solver.Problem{
		NumNodes:   n,
		Starts:     make([]int, reg.NumAgents),
		Cost:       m.Cost,
		Demands:    make([]int64, n),
		Capacities: make([]int64, reg.NumAgents),
		Allowed:    make([][]bool, n),
		Pairs:      reg.Pairs(),
	}
	for ai := range agents {
		p.Starts[ai] = ai
		p.Capacities[ai] = int64(agents[ai].AvailabilityMin)
	}
	for _, nd := range reg.Nodes {
		switch nd.Role {
		case RoleAgentStart:
			continue
		case RoleDrop:
			// demand stays 0; eligibility mirrors the pickup below
		default:
			p.Demands[nd.Index] = int64(tasks[nd.Task].DurationMin)
		}
		p.Allowed[nd.Index] = allowedVehicles(tasks[nd.Task], agents)
	}
	for _, nd := range reg.Nodes {
		switch nd.Role {
		case RoleTask:
			p.Disjunctions = append(p.Disjunctions, solver.Disjunction{Nodes: []int{nd.Index}, Penalty: penalty})
		case RolePickup:
			drop, _ := reg.DropOf(nd.Index)
			p.Disjunctions = append(p.Disjunctions, solver.Disjunction{Nodes: []int{nd.Index, drop}, Penalty: penalty})
		}
	}
	return p
}

func allowedVehicles(t model.Task, agents []model.Agent) []bool {
	out := make([]bool, len(agents))
	for ai, a := range agents {
		if !a.HasSkill(t.Skill) {
			continue
		}
		if t.Kind() == model.KindSimple && !a.ServesZone(t.Zone) {
			continue
		}
		out[ai] = true
	}
	return out
}
