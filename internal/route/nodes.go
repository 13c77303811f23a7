// Package route is the problem-formulation and solution-decoding layer: it
// translates task/agent records into a solver problem and a raw assignment
// back into per-agent routes.
package route

import (
	"fieldroute/internal/model"
)

type NodeRole int

const (
	RoleAgentStart NodeRole = iota
	RoleTask
	RolePickup
	RoleDrop
)

// Node is one entry in the unified routing space. Exactly one of Agent/Task
// applies depending on Role.
type Node struct {
	Index int
	Role  NodeRole
	Agent int // index into the agent list, for RoleAgentStart
	Task  int // index into the task list, for the other roles
	Point model.GeoPoint
}

// Registry is the ordered node list for one solve: agent-start nodes first
// (one per agent, input order), then task nodes in task input order, a
// pickup-delivery task contributing its pickup node then its drop node. The
// ordering is deterministic and the rest of the pipeline depends on it.
type Registry struct {
	Nodes     []Node
	NumAgents int

	dropOf map[int]int // pickup node index -> drop node index
}

func BuildRegistry(agents []model.Agent, tasks []model.Task) *Registry {
	reg := &Registry{NumAgents: len(agents), dropOf: map[int]int{}}
	for ai, a := range agents {
		reg.Nodes = append(reg.Nodes, Node{Index: len(reg.Nodes), Role: RoleAgentStart, Agent: ai, Point: *a.Location})
	}
	for ti, t := range tasks {
		switch t.Kind() {
		case model.KindPickupDelivery:
			pickup := len(reg.Nodes)
			reg.Nodes = append(reg.Nodes, Node{Index: pickup, Role: RolePickup, Task: ti, Point: *t.Pickup})
			reg.Nodes = append(reg.Nodes, Node{Index: pickup + 1, Role: RoleDrop, Task: ti, Point: *t.Drop})
			reg.dropOf[pickup] = pickup + 1
		default:
			reg.Nodes = append(reg.Nodes, Node{Index: len(reg.Nodes), Role: RoleTask, Task: ti, Point: *t.Location})
		}
	}
	return reg
}

// DropOf returns the drop node paired with the given pickup node.
func (r *Registry) DropOf(pickup int) (int, bool) {
	d, ok := r.dropOf[pickup]
	return d, ok
}

// Pairs lists all (pickup, drop) node index pairs in node order.
func (r *Registry) Pairs() [][2]int {
	var out [][2]int
	for _, n := range r.Nodes {
		if n.Role == RolePickup {
			out = append(out, [2]int{n.Index, r.dropOf[n.Index]})
		}
	}
	return out
}
