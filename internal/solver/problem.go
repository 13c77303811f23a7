// Package solver hosts the routing search engine behind the planner's adapter
// contract. Callers hand it a fully built Problem and a wall-clock budget; the
// engine returns within the budget, degrading solution quality rather than
// blocking.
package solver

import (
	"errors"
	"time"
)

// Problem is the solver's input: a node space with one start node per vehicle,
// an integer cost matrix, a cumulative demand dimension, per-node vehicle
// restrictions, pickup-delivery pairs and optional-visit disjunctions.
type Problem struct {
	NumNodes   int
	Starts     []int     // start node per vehicle; vehicles end at their start
	Cost       [][]int64 // square, NumNodes x NumNodes
	Demands    []int64   // per node; start nodes carry 0
	Capacities []int64   // per vehicle; cumulative demand along a route may not exceed it
	Allowed    [][]bool  // [node][vehicle]; nil row = any vehicle
	Pairs      [][2]int  // {pickup, drop}: same vehicle, pickup visited first

	// Disjunctions list the optional units. Every non-start node is expected
	// to appear in exactly one disjunction; a pickup-delivery pair forms a
	// single two-node disjunction bound as one unit.
	Disjunctions []Disjunction
}

// Disjunction marks a set of nodes that may be skipped at a penalty.
// Nodes are listed in required visiting order.
type Disjunction struct {
	Nodes   []int
	Penalty int64
}

const (
	FirstSolutionCheapestArc = "cheapest_arc"

	MetaGuidedLocalSearch = "guided_local_search"
	MetaTabuSearch        = "tabu_search"
	MetaNone              = "none"
)

// Options select the search strategy and budget for one Solve call.
type Options struct {
	FirstSolution string
	Metaheuristic string
	TimeLimit     time.Duration
	Seed          int64
	Observer      Observer
}

// Progress is a point-in-time view of the running search, delivered to the
// optional Observer. Observers must not block.
type Progress struct {
	Iteration  int           `json:"iteration"`
	BestCost   int64         `json:"bestCost"`
	Unassigned int           `json:"unassigned"`
	Elapsed    time.Duration `json:"elapsed"`
}

type Observer func(Progress)

// Assignment is the raw solver output: a next-pointer per node. A node whose
// pointer refers to itself was not visited (its disjunction penalty was paid);
// each vehicle's route is the pointer chain from its start back to its start.
type Assignment struct {
	Next    []int
	Cost    int64 // traversed arc cost plus paid penalties
	Metrics Metrics
}

type Metrics struct {
	Iterations   int
	Improvements int
	BestCost     int64
	ElapsedMs    int64
	Snapshots    []Snapshot
}

type Snapshot struct {
	Iteration int
	Cost      int64
}

// ErrNoSolution signals that no assignment exists for the problem. With every
// node optional this only occurs for malformed problems (no vehicles).
var ErrNoSolution = errors.New("solver: no solution found")
