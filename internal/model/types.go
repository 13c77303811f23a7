package model

// Core domain types for task assignment.

type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// TaskKind distinguishes the two task shapes.
type TaskKind string

const (
	KindSimple         TaskKind = "simple"
	KindPickupDelivery TaskKind = "pickup_delivery"
)

// Task is a unit of work. It has exactly one shape: either Location (simple,
// with an optional Zone tag used for eligibility) or Pickup+Drop
// (pickup-delivery, served by one agent in pickup-before-drop order).
type Task struct {
	ID          string    `json:"id"`
	Skill       string    `json:"skill"`
	DurationMin int       `json:"durationMin"`
	Location    *GeoPoint `json:"location,omitempty"`
	Zone        string    `json:"zone,omitempty"`
	Pickup      *GeoPoint `json:"pickup,omitempty"`
	Drop        *GeoPoint `json:"drop,omitempty"`
}

// Kind reports the task shape. Undefined for tasks that fail Validate.
func (t Task) Kind() TaskKind {
	if t.Pickup != nil || t.Drop != nil {
		return KindPickupDelivery
	}
	return KindSimple
}

// Agent is a mobile worker with a start location, skill set and minute capacity.
// An empty AllowedZones set means the agent may serve any zone.
type Agent struct {
	ID              string    `json:"id"`
	Skills          []string  `json:"skills"`
	Location        *GeoPoint `json:"location"`
	AvailabilityMin int       `json:"availabilityMin"`
	AllowedZones    []string  `json:"allowedZones,omitempty"`
}

func (a Agent) HasSkill(skill string) bool {
	for _, s := range a.Skills {
		if s == skill {
			return true
		}
	}
	return false
}

// ServesZone reports zone eligibility. Empty AllowedZones = unrestricted.
func (a Agent) ServesZone(zone string) bool {
	if len(a.AllowedZones) == 0 {
		return true
	}
	for _, z := range a.AllowedZones {
		if z == zone {
			return true
		}
	}
	return false
}

// SolveOptions control one solve invocation. Penalty is a pointer so an
// explicit 0 (free opt-out) is distinguishable from an absent field.
type SolveOptions struct {
	Penalty       *int64 `json:"penalty,omitempty"`       // unassigned-task penalty, >= 0, default 1000
	TimeLimitMs   int    `json:"timeLimitMs,omitempty"`   // wall-clock budget, default 2000
	FirstSolution string `json:"firstSolution,omitempty"` // cheapest_arc
	Metaheuristic string `json:"metaheuristic,omitempty"` // guided_local_search, tabu_search, none
	Metric        string `json:"metric,omitempty"`        // haversine, planar
	Seed          int64  `json:"seed,omitempty"`
}

const (
	DefaultPenalty     = 1000
	DefaultTimeLimitMs = 2000

	FirstSolutionCheapestArc = "cheapest_arc"

	MetaGuidedLocalSearch = "guided_local_search"
	MetaTabuSearch        = "tabu_search"
	MetaNone              = "none"

	MetricHaversine = "haversine"
	MetricPlanar    = "planar"
)

// Normalize fills option defaults in place.
func (o *SolveOptions) Normalize() {
	if o.Penalty == nil {
		p := int64(DefaultPenalty)
		o.Penalty = &p
	}
	if o.TimeLimitMs <= 0 {
		o.TimeLimitMs = DefaultTimeLimitMs
	}
	if o.FirstSolution == "" {
		o.FirstSolution = FirstSolutionCheapestArc
	}
	if o.Metaheuristic == "" {
		o.Metaheuristic = MetaGuidedLocalSearch
	}
	if o.Metric == "" {
		o.Metric = MetricHaversine
	}
}

// AgentRoute is the decoded route of a single agent. Pickup-delivery tasks
// appear once, at their pickup position.
type AgentRoute struct {
	AgentID     string    `json:"agentId"`
	TaskIDs     []string  `json:"taskIds"`
	DistanceKm  float64   `json:"distanceKm"`
	DurationMin int       `json:"durationMin"`
	End         *GeoPoint `json:"end"`
}

// Assignment is the result of one solve. Solved=false is the explicit
// no-solution state: no routes, every task unassigned.
type Assignment struct {
	Solved     bool         `json:"solved"`
	Routes     []AgentRoute `json:"routes"`
	Unassigned []string     `json:"unassigned"`
	Cost       int64        `json:"cost"`
	DistanceKm float64      `json:"distanceKm"`
}
