package route

import (
	"fmt"

	"fieldroute/internal/model"
	"fieldroute/internal/solver"
)

// DecodeSolution walks each agent's next-pointer chain and rebuilds the
// structured result: ordered task IDs, accumulated distance and duration, end
// location, and the unassigned set (task nodes whose pointer self-loops).
// Pickup-delivery tasks appear once, at the pickup, with duration counted
// once. A malformed assignment is an invariant violation and panics.
func DecodeSolution(reg *Registry, m *Matrix, tasks []model.Task, agents []model.Agent, a solver.Assignment) model.Assignment {
	if len(a.Next) != len(reg.Nodes) {
		panic(fmt.Sprintf("route: assignment covers %d nodes, registry has %d", len(a.Next), len(reg.Nodes)))
	}
	out := model.Assignment{Solved: true, Cost: a.Cost}
	for ai := range agents {
		r := model.AgentRoute{AgentID: agents[ai].ID, TaskIDs: []string{}}
		prev := ai
		cur := a.Next[ai]
		steps := 0
		for cur != ai {
			if cur < 0 || cur >= len(reg.Nodes) || cur < reg.NumAgents {
				panic(fmt.Sprintf("route: agent %d chain reaches invalid node %d", ai, cur))
			}
			if steps++; steps > len(reg.Nodes) {
				panic(fmt.Sprintf("route: agent %d chain does not terminate", ai))
			}
			nd := reg.Nodes[cur]
			switch nd.Role {
			case RoleTask, RolePickup:
				r.TaskIDs = append(r.TaskIDs, tasks[nd.Task].ID)
				r.DurationMin += tasks[nd.Task].DurationMin
			}
			r.DistanceKm += m.Dist[prev][cur]
			prev = cur
			cur = a.Next[cur]
		}
		// closing arc back to the start; zero for an unmoved agent
		r.DistanceKm += m.Dist[prev][ai]
		end := reg.Nodes[prev].Point
		r.End = &end
		out.Routes = append(out.Routes, r)
		out.DistanceKm += r.DistanceKm
	}
	out.Unassigned = []string{}
	for _, nd := range reg.Nodes {
		// unassignment is read from the task node, or the pickup alone for
		// pickup-delivery tasks
		if (nd.Role == RoleTask || nd.Role == RolePickup) && a.Next[nd.Index] == nd.Index {
			out.Unassigned = append(out.Unassigned, tasks[nd.Task].ID)
		}
	}
	return out
}
