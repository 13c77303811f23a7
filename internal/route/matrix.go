package route

import (
	"math"

	"fieldroute/internal/geo"
)

// Matrix holds pairwise travel distances over a registry's nodes: float
// values in the metric's unit for reporting, and the rounded integer costs
// the solver optimizes on. Square, symmetric, zero diagonal.
type Matrix struct {
	Dist [][]float64
	Cost [][]int64
}

// BuildMatrix evaluates the metric over all node pairs. O(n²), no cross-call
// caching; every solve owns a fresh matrix.
func BuildMatrix(reg *Registry, metric geo.Metric) *Matrix {
	n := len(reg.Nodes)
	m := &Matrix{Dist: make([][]float64, n), Cost: make([][]int64, n)}
	for i := 0; i < n; i++ {
		m.Dist[i] = make([]float64, n)
		m.Cost[i] = make([]int64, n)
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			d := metric.Distance(reg.Nodes[i].Point, reg.Nodes[j].Point)
			m.Dist[i][j] = d
			m.Cost[i][j] = int64(math.Round(d))
		}
	}
	return m
}
