package model

import "time"

// ScenarioIn is a stored task/agent dataset as submitted by the client.
type ScenarioIn struct {
	Name   string  `json:"name"`
	Tasks  []Task  `json:"tasks"`
	Agents []Agent `json:"agents"`
}

type Scenario struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Tasks     []Task    `json:"tasks"`
	Agents    []Agent   `json:"agents"`
	CreatedAt time.Time `json:"createdAt"`
}

// SolveRun records solver metrics for one solve of a stored scenario.
// The assignment itself is not persisted.
type SolveRun struct {
	ID            string    `json:"id"`
	ScenarioID    string    `json:"scenarioId"`
	Solved        bool      `json:"solved"`
	Cost          int64     `json:"cost"`
	DistanceKm    float64   `json:"distanceKm"`
	Unassigned    int       `json:"unassigned"`
	Iterations    int       `json:"iterations"`
	Improvements  int       `json:"improvements"`
	Metaheuristic string    `json:"metaheuristic"`
	ElapsedMs     int64     `json:"elapsedMs"`
	CreatedAt     time.Time `json:"createdAt"`
}
