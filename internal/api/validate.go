package api

import (
	"fmt"

	"fieldroute/internal/model"
)

func validateSolveOptions(o model.SolveOptions) error {
	if o.Penalty != nil && *o.Penalty < 0 {
		return fmt.Errorf("penalty must be >= 0")
	}
	if o.TimeLimitMs < 0 {
		return fmt.Errorf("timeLimitMs must be >= 0")
	}
	if o.FirstSolution != "" && o.FirstSolution != model.FirstSolutionCheapestArc {
		return fmt.Errorf("invalid firstSolution: %s", o.FirstSolution)
	}
	switch o.Metaheuristic {
	case "", model.MetaGuidedLocalSearch, model.MetaTabuSearch, model.MetaNone:
	default:
		return fmt.Errorf("invalid metaheuristic: %s (allowed: guided_local_search,tabu_search,none)", o.Metaheuristic)
	}
	switch o.Metric {
	case "", model.MetricHaversine, model.MetricPlanar:
	default:
		return fmt.Errorf("invalid metric: %s (allowed: haversine,planar)", o.Metric)
	}
	return nil
}
