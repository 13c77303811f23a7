package model

import "fmt"

// ValidationError reports malformed input rejected before model construction.
type ValidationError struct {
	Detail string
}

func (e *ValidationError) Error() string { return "validation: " + e.Detail }

func validationf(format string, args ...any) error {
	return &ValidationError{Detail: fmt.Sprintf(format, args...)}
}

// Validate checks the task's required fields and that it has exactly one shape.
func (t Task) Validate() error {
	if t.ID == "" {
		return validationf("task missing id")
	}
	if t.Skill == "" {
		return validationf("task %s missing skill", t.ID)
	}
	if t.DurationMin <= 0 {
		return validationf("task %s: durationMin must be > 0", t.ID)
	}
	simple := t.Location != nil
	pd := t.Pickup != nil || t.Drop != nil
	switch {
	case simple && pd:
		return validationf("task %s: location and pickup/drop are mutually exclusive", t.ID)
	case pd && (t.Pickup == nil || t.Drop == nil):
		return validationf("task %s: pickup-delivery task needs both pickup and drop", t.ID)
	case !simple && !pd:
		return validationf("task %s: missing location", t.ID)
	}
	return nil
}

func (a Agent) Validate() error {
	if a.ID == "" {
		return validationf("agent missing id")
	}
	if len(a.Skills) == 0 {
		return validationf("agent %s: skills must be non-empty", a.ID)
	}
	if a.Location == nil {
		return validationf("agent %s: missing location", a.ID)
	}
	if a.AvailabilityMin < 0 {
		return validationf("agent %s: availabilityMin must be >= 0", a.ID)
	}
	return nil
}

// ValidateInputs checks the solve preconditions: non-empty collections, unique
// IDs, and per-record required fields.
func ValidateInputs(tasks []Task, agents []Agent) error {
	if len(tasks) == 0 {
		return validationf("tasks must be non-empty")
	}
	if len(agents) == 0 {
		return validationf("agents must be non-empty")
	}
	seen := map[string]bool{}
	for _, t := range tasks {
		if err := t.Validate(); err != nil {
			return err
		}
		if seen[t.ID] {
			return validationf("duplicate task id %s", t.ID)
		}
		seen[t.ID] = true
	}
	seen = map[string]bool{}
	for _, a := range agents {
		if err := a.Validate(); err != nil {
			return err
		}
		if seen[a.ID] {
			return validationf("duplicate agent id %s", a.ID)
		}
		seen[a.ID] = true
	}
	return nil
}
