package solver

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"
)

// Engine is the in-process routing solver. It builds a first solution by
// cheapest-arc insertion and refines it under the time budget with the
// selected metaheuristic. Safe for concurrent use; each Solve call owns its
// working state.
type Engine struct{}

func NewEngine() *Engine { return &Engine{} }

// unit is the indivisible insertion granule: one simple node, or a
// pickup-delivery pair kept on one vehicle in order.
type unit struct {
	nodes   []int
	penalty int64
	demand  int64
}

// state is a working solution: per-vehicle node sequences (starts excluded)
// plus the vehicle each unit is assigned to (-1 = unassigned, penalty paid).
type state struct {
	routes [][]int
	loads  []int64
	vehOf  []int
}

func (st *state) clone() *state {
	out := &state{
		routes: make([][]int, len(st.routes)),
		loads:  append([]int64(nil), st.loads...),
		vehOf:  append([]int(nil), st.vehOf...),
	}
	for i, r := range st.routes {
		out.routes[i] = append([]int(nil), r...)
	}
	return out
}

func (e *Engine) Solve(ctx context.Context, p Problem, opts Options) (Assignment, error) {
	if err := checkProblem(p); err != nil {
		return Assignment{}, err
	}
	if len(p.Starts) == 0 {
		return Assignment{}, ErrNoSolution
	}
	units, err := buildUnits(p)
	if err != nil {
		return Assignment{}, err
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	budget := opts.TimeLimit
	if budget <= 0 {
		budget = 2 * time.Second
	}
	started := time.Now()
	deadline := started.Add(budget)
	if dl, ok := ctx.Deadline(); ok && dl.Before(deadline) {
		deadline = dl
	}

	s := &search{p: p, units: units, rng: rng, deadline: deadline, started: started, obs: opts.Observer}
	curr := s.cheapestArcSeed()
	best := curr.clone()
	bestCost := s.trueCost(best)
	s.m.BestCost = bestCost

	switch opts.Metaheuristic {
	case MetaTabuSearch:
		best, bestCost = s.tabuSearch(ctx, curr, best, bestCost)
	case MetaNone:
		s.descend(ctx, curr, s.p.Cost)
		if c := s.trueCost(curr); c < bestCost {
			best, bestCost = curr.clone(), c
		}
	default: // guided local search
		best, bestCost = s.guidedLocalSearch(ctx, curr, best, bestCost)
	}

	s.m.BestCost = bestCost
	s.m.ElapsedMs = time.Since(started).Milliseconds()
	return Assignment{Next: s.nextPointers(best), Cost: bestCost, Metrics: s.m}, nil
}

func checkProblem(p Problem) error {
	n := p.NumNodes
	if len(p.Cost) != n || len(p.Demands) != n {
		return fmt.Errorf("solver: matrix/demand size mismatch (%d nodes)", n)
	}
	for i := range p.Cost {
		if len(p.Cost[i]) != n {
			return fmt.Errorf("solver: cost row %d has %d entries, want %d", i, len(p.Cost[i]), n)
		}
	}
	if len(p.Capacities) != len(p.Starts) {
		return fmt.Errorf("solver: %d capacities for %d vehicles", len(p.Capacities), len(p.Starts))
	}
	for _, s := range p.Starts {
		if s < 0 || s >= n {
			return fmt.Errorf("solver: start node %d out of range", s)
		}
	}
	return nil
}

func buildUnits(p Problem) ([]unit, error) {
	isStart := make([]bool, p.NumNodes)
	for _, s := range p.Starts {
		isStart[s] = true
	}
	covered := make([]bool, p.NumNodes)
	units := make([]unit, 0, len(p.Disjunctions))
	for _, d := range p.Disjunctions {
		u := unit{nodes: append([]int(nil), d.Nodes...), penalty: d.Penalty}
		for _, nd := range d.Nodes {
			if nd < 0 || nd >= p.NumNodes || isStart[nd] || covered[nd] {
				return nil, fmt.Errorf("solver: bad disjunction node %d", nd)
			}
			covered[nd] = true
			u.demand += p.Demands[nd]
		}
		units = append(units, u)
	}
	for i := 0; i < p.NumNodes; i++ {
		if !isStart[i] && !covered[i] {
			return nil, fmt.Errorf("solver: node %d not covered by any disjunction", i)
		}
	}
	return units, nil
}

type search struct {
	p        Problem
	units    []unit
	rng      *rand.Rand
	deadline time.Time
	started  time.Time
	obs      Observer
	m        Metrics
}

func (s *search) expired() bool { return !time.Now().Before(s.deadline) }

func (s *search) allowed(node, veh int) bool {
	if s.p.Allowed == nil {
		return true
	}
	row := s.p.Allowed[node]
	return row == nil || row[veh]
}

func (s *search) unitAllowed(u unit, veh int) bool {
	for _, nd := range u.nodes {
		if !s.allowed(nd, veh) {
			return false
		}
	}
	return true
}

// routeCost prices one vehicle's loop start -> seq... -> start on the given
// cost matrix (true or penalty-augmented).
func (s *search) routeCost(veh int, seq []int, cost [][]int64) int64 {
	start := s.p.Starts[veh]
	prev := start
	var c int64
	for _, nd := range seq {
		c += cost[prev][nd]
		prev = nd
	}
	return c + cost[prev][start]
}

func (s *search) costOn(st *state, cost [][]int64) int64 {
	var c int64
	for v, seq := range st.routes {
		c += s.routeCost(v, seq, cost)
	}
	for ui, v := range st.vehOf {
		if v < 0 {
			c += s.units[ui].penalty
		}
	}
	return c
}

func (s *search) trueCost(st *state) int64 { return s.costOn(st, s.p.Cost) }

func (s *search) unassignedCount(st *state) int {
	n := 0
	for _, v := range st.vehOf {
		if v < 0 {
			n++
		}
	}
	return n
}

// insertion is a feasible placement of a unit: pickup at pos i, and for pair
// units the drop at pos j of the sequence after the pickup went in.
type insertion struct {
	veh   int
	i, j  int
	delta int64
	ok    bool
}

// bestInsertion scans all vehicles for the cheapest feasible placement of
// unit ui, pricing deltas on the given cost matrix.
func (s *search) bestInsertion(st *state, ui int, cost [][]int64) insertion {
	best := insertion{}
	for v := range st.routes {
		if ins := s.bestInsertionOn(st, ui, v, cost); ins.ok && (!best.ok || ins.delta < best.delta) {
			best = ins
		}
	}
	return best
}

// bestInsertionOn restricts the scan to one vehicle.
func (s *search) bestInsertionOn(st *state, ui, v int, cost [][]int64) insertion {
	u := s.units[ui]
	if !s.unitAllowed(u, v) || st.loads[v]+u.demand > s.p.Capacities[v] {
		return insertion{}
	}
	best := insertion{}
	seq := st.routes[v]
	if len(u.nodes) == 1 {
		nd := u.nodes[0]
		start := s.p.Starts[v]
		for i := 0; i <= len(seq); i++ {
			prev, next := start, start
			if i > 0 {
				prev = seq[i-1]
			}
			if i < len(seq) {
				next = seq[i]
			}
			delta := cost[prev][nd] + cost[nd][next] - cost[prev][next]
			if !best.ok || delta < best.delta {
				best = insertion{veh: v, i: i, j: -1, delta: delta, ok: true}
			}
		}
		return best
	}
	// pair unit: try every (pickup, drop) position combination
	base := s.routeCost(v, seq, cost)
	for i := 0; i <= len(seq); i++ {
		withPickup := insertAt(seq, i, u.nodes[0])
		for j := i + 1; j <= len(withPickup); j++ {
			cand := insertAt(withPickup, j, u.nodes[1])
			delta := s.routeCost(v, cand, cost) - base
			if !best.ok || delta < best.delta {
				best = insertion{veh: v, i: i, j: j, delta: delta, ok: true}
			}
		}
	}
	return best
}

func insertAt(seq []int, pos, nd int) []int {
	out := make([]int, 0, len(seq)+1)
	out = append(out, seq[:pos]...)
	out = append(out, nd)
	return append(out, seq[pos:]...)
}

func (s *search) apply(st *state, ui int, ins insertion) {
	u := s.units[ui]
	seq := insertAt(st.routes[ins.veh], ins.i, u.nodes[0])
	if len(u.nodes) == 2 {
		seq = insertAt(seq, ins.j, u.nodes[1])
	}
	st.routes[ins.veh] = seq
	st.loads[ins.veh] += u.demand
	st.vehOf[ui] = ins.veh
}

func (s *search) remove(st *state, ui int) {
	u := s.units[ui]
	v := st.vehOf[ui]
	if v < 0 {
		return
	}
	drop := map[int]bool{}
	for _, nd := range u.nodes {
		drop[nd] = true
	}
	out := st.routes[v][:0]
	for _, nd := range st.routes[v] {
		if !drop[nd] {
			out = append(out, nd)
		}
	}
	st.routes[v] = out
	st.loads[v] -= u.demand
	st.vehOf[ui] = -1
}

// cheapestArcSeed builds the first solution: repeatedly place the unit whose
// cheapest feasible insertion is globally cheapest. Units with no feasible
// placement stay unassigned and pay their penalty.
func (s *search) cheapestArcSeed() *state {
	st := &state{
		routes: make([][]int, len(s.p.Starts)),
		loads:  make([]int64, len(s.p.Starts)),
		vehOf:  make([]int, len(s.units)),
	}
	for i := range st.vehOf {
		st.vehOf[i] = -1
	}
	remaining := len(s.units)
	for remaining > 0 && !s.expired() {
		bestUnit := -1
		var bestIns insertion
		for ui, v := range st.vehOf {
			if v >= 0 {
				continue
			}
			ins := s.bestInsertion(st, ui, s.p.Cost)
			if ins.ok && (bestUnit < 0 || ins.delta < bestIns.delta) {
				bestUnit, bestIns = ui, ins
			}
		}
		if bestUnit < 0 {
			break
		}
		s.apply(st, bestUnit, bestIns)
		remaining--
	}
	return st
}

// descend runs pure improvement moves (relocate, drop, reinsert, 2-opt) on
// the given cost matrix until a local optimum or the deadline. Reports whether
// any move was applied.
func (s *search) descend(ctx context.Context, st *state, cost [][]int64) bool {
	any := false
	for !s.expired() && ctx.Err() == nil {
		if !s.improveOnce(st, cost) {
			break
		}
		any = true
	}
	return any
}

func (s *search) improveOnce(st *state, cost [][]int64) bool {
	// relocate / insert / drop, one unit at a time
	for ui := range s.units {
		if delta, ok := s.bestUnitMove(st, ui, cost); ok && delta < 0 {
			return true // bestUnitMove already applied it
		}
	}
	return s.twoOptPass(st, cost)
}

// bestUnitMove evaluates removing unit ui from its current place and either
// reinserting it at its best position or leaving it unassigned, applying the
// move when it improves. Returns the applied delta.
func (s *search) bestUnitMove(st *state, ui int, cost [][]int64) (int64, bool) {
	u := s.units[ui]
	prevVeh := st.vehOf[ui]
	var removalGain int64
	if prevVeh >= 0 {
		before := s.routeCost(prevVeh, st.routes[prevVeh], cost)
		s.remove(st, ui)
		removalGain = before - s.routeCost(prevVeh, st.routes[prevVeh], cost)
	} else {
		s.remove(st, ui)
		removalGain = u.penalty
	}
	ins := s.bestInsertion(st, ui, cost)
	// option 1: reinsert at best spot; option 2: stay unassigned
	if ins.ok && ins.delta <= u.penalty {
		if delta := ins.delta - removalGain; delta < 0 {
			s.apply(st, ui, ins)
			return delta, true
		}
	} else if delta := u.penalty - removalGain; delta < 0 {
		// dropping the unit beats serving it
		return delta, true
	}
	// restore on the original vehicle; capacity held before removal, so a
	// feasible spot always exists there
	if prevVeh >= 0 {
		if ins := s.bestInsertionOn(st, ui, prevVeh, cost); ins.ok {
			s.apply(st, ui, ins)
		}
	}
	return 0, false
}

// twoOptPass reverses intra-route segments when that shortens the route and
// keeps every pickup ahead of its drop.
func (s *search) twoOptPass(st *state, cost [][]int64) bool {
	for v := range st.routes {
		seq := st.routes[v]
		n := len(seq)
		for i := 0; i < n-1; i++ {
			for k := i + 1; k < n; k++ {
				cand := append([]int(nil), seq...)
				for a, b := i, k; a < b; a, b = a+1, b-1 {
					cand[a], cand[b] = cand[b], cand[a]
				}
				if !s.pairsOrdered(cand) {
					continue
				}
				if s.routeCost(v, cand, cost) < s.routeCost(v, seq, cost) {
					st.routes[v] = cand
					return true
				}
			}
		}
	}
	return false
}

func (s *search) pairsOrdered(seq []int) bool {
	pos := map[int]int{}
	for i, nd := range seq {
		pos[nd] = i
	}
	for _, pr := range s.p.Pairs {
		pi, pok := pos[pr[0]]
		di, dok := pos[pr[1]]
		if pok != dok {
			return false
		}
		if pok && pi > di {
			return false
		}
	}
	return true
}

func (s *search) report(iter int, bestCost int64, unassigned int) {
	if s.obs != nil {
		s.obs(Progress{Iteration: iter, BestCost: bestCost, Unassigned: unassigned, Elapsed: time.Since(s.started)})
	}
}

// guidedLocalSearch alternates improvement descent with arc penalization:
// when the search stalls, the used arc with the highest utility is penalized
// and the descent resumes on the augmented matrix. Best is tracked by true
// cost throughout.
func (s *search) guidedLocalSearch(ctx context.Context, curr, best *state, bestCost int64) (*state, int64) {
	n := s.p.NumNodes
	pen := make([][]int64, n)
	for i := range pen {
		pen[i] = make([]int64, n)
	}
	aug := make([][]int64, n)
	for i := range aug {
		aug[i] = append([]int64(nil), s.p.Cost[i]...)
	}
	lambda := bestCost / int64(8*(n+1))
	if lambda < 1 {
		lambda = 1
	}
	const snapshotEvery = 50
	for !s.expired() && ctx.Err() == nil {
		s.m.Iterations++
		s.descend(ctx, curr, aug)
		if c := s.trueCost(curr); c < bestCost {
			best = curr.clone()
			bestCost = c
			s.m.Improvements++
			s.m.BestCost = bestCost
			s.report(s.m.Iterations, bestCost, s.unassignedCount(best))
		}
		// penalize the max-utility arc of the current solution
		bi, bj := -1, -1
		var bestUtil float64 = -1
		for v, seq := range curr.routes {
			prev := s.p.Starts[v]
			walk := append(append([]int(nil), seq...), s.p.Starts[v])
			for _, nd := range walk {
				util := float64(s.p.Cost[prev][nd]) / float64(1+pen[prev][nd])
				if util > bestUtil {
					bestUtil, bi, bj = util, prev, nd
				}
				prev = nd
			}
		}
		if bi < 0 {
			break // nothing assigned anywhere; penalization has no target
		}
		pen[bi][bj]++
		pen[bj][bi]++
		aug[bi][bj] = s.p.Cost[bi][bj] + lambda*pen[bi][bj]
		aug[bj][bi] = aug[bi][bj]
		if s.m.Iterations%snapshotEvery == 0 {
			s.m.Snapshots = append(s.m.Snapshots, Snapshot{Iteration: s.m.Iterations, Cost: bestCost})
			s.report(s.m.Iterations, bestCost, s.unassignedCount(best))
		}
	}
	return best, bestCost
}

// tabuSearch applies the best non-tabu unit move each iteration, accepting
// worsening moves, with an aspiration override for new bests.
func (s *search) tabuSearch(ctx context.Context, curr, best *state, bestCost int64) (*state, int64) {
	tabu := make([]int, len(s.units)) // unit -> iteration until which it is tabu
	tenure := 7 + s.rng.Intn(5)
	const snapshotEvery = 50
	for !s.expired() && ctx.Err() == nil {
		s.m.Iterations++
		it := s.m.Iterations
		bestUnit, bestDelta := -1, int64(math.MaxInt64)
		var bestNext *state
		for ui := range s.units {
			cand := curr.clone()
			delta, applied := s.forcedUnitMove(cand, ui)
			if !applied {
				continue
			}
			candCost := s.trueCost(cand)
			if tabu[ui] > it && candCost >= bestCost {
				continue // tabu, no aspiration
			}
			if delta < bestDelta {
				bestUnit, bestDelta, bestNext = ui, delta, cand
			}
		}
		if bestUnit < 0 {
			break
		}
		curr = bestNext
		tabu[bestUnit] = it + tenure
		if c := s.trueCost(curr); c < bestCost {
			best = curr.clone()
			bestCost = c
			s.m.Improvements++
			s.m.BestCost = bestCost
			s.report(it, bestCost, s.unassignedCount(best))
		}
		if it%snapshotEvery == 0 {
			s.m.Snapshots = append(s.m.Snapshots, Snapshot{Iteration: it, Cost: bestCost})
			s.report(it, bestCost, s.unassignedCount(best))
		}
	}
	return best, bestCost
}

// forcedUnitMove relocates unit ui to its best alternative placement even when
// that worsens the solution (tabu search explores non-improving neighbors).
// Unassigned units are inserted at their cheapest feasible spot; assigned ones
// move to their best position excluding the exact current one.
func (s *search) forcedUnitMove(st *state, ui int) (int64, bool) {
	u := s.units[ui]
	before := s.trueCost(st)
	prevVeh := st.vehOf[ui]
	s.remove(st, ui)
	ins := s.bestInsertion(st, ui, s.p.Cost)
	switch {
	case ins.ok && ins.delta <= u.penalty:
		s.apply(st, ui, ins)
	case prevVeh >= 0:
		// leaving it unassigned is the move
	default:
		return 0, false // was unassigned and still has no worthwhile spot
	}
	return s.trueCost(st) - before, true
}

// nextPointers converts the route representation into the next-pointer
// assignment consumed by the decoder. Skipped nodes self-loop.
func (s *search) nextPointers(st *state) []int {
	next := make([]int, s.p.NumNodes)
	for i := range next {
		next[i] = i
	}
	for v, seq := range st.routes {
		prev := s.p.Starts[v]
		for _, nd := range seq {
			next[prev] = nd
			prev = nd
		}
		next[prev] = s.p.Starts[v]
	}
	return next
}
