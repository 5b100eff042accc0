package models

import (
	"fmt"
	"time"
)

// Default values for the recognised scheduling constraints.
const (
	DefaultMaxHoursPerDay        = 8.0
	DefaultMaxConsecutiveHours   = 6.0
	DefaultEfficiencyWeight      = 3.0
	DefaultOverstaffingThreshold = 1.2
)

// Constraints bounds what the optimizer may assign.
type Constraints struct {
	MaxHoursPerDay      float64 `json:"max_hours_per_day" yaml:"max_hours_per_day" validate:"gt=0"`
	MaxConsecutiveHours float64 `json:"max_consecutive_hours" yaml:"max_consecutive_hours" validate:"gt=0"`
	EfficiencyWeight    float64 `json:"efficiency_weight" yaml:"efficiency_weight" validate:"gt=0"`
}

// DefaultConstraints returns the constraint set used when nothing is configured.
func DefaultConstraints() Constraints {
	return Constraints{
		MaxHoursPerDay:      DefaultMaxHoursPerDay,
		MaxConsecutiveHours: DefaultMaxConsecutiveHours,
		EfficiencyWeight:    DefaultEfficiencyWeight,
	}
}

// WithDefaults fills zero fields with their defaults.
func (c Constraints) WithDefaults() Constraints {
	d := DefaultConstraints()
	if c.MaxHoursPerDay <= 0 {
		c.MaxHoursPerDay = d.MaxHoursPerDay
	}
	if c.MaxConsecutiveHours <= 0 {
		c.MaxConsecutiveHours = d.MaxConsecutiveHours
	}
	if c.EfficiencyWeight <= 0 {
		c.EfficiencyWeight = d.EfficiencyWeight
	}
	return c
}

// ScheduleInput is everything the optimizer needs for one run.
type ScheduleInput struct {
	Availabilities     []AgentAvailability
	Skills             []AgentSkill
	DemandForecasts    []DemandForecast
	WindowStart        time.Time
	WindowEnd          time.Time
	Constraints        Constraints
	GranularityMinutes int
}

// Severity grades a schedule warning.
type Severity int

const (
	SeverityWarning Severity = iota
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityCritical:
		return "CRITICAL"
	case SeverityWarning:
		return "WARNING"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// MarshalText lets severities render as their names in JSON.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Warning is a problem found while validating a generated schedule.
type Warning struct {
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

func (w Warning) String() string {
	return w.Severity.String() + ": " + w.Message
}

// QualityMetrics summarise a generated schedule.
type QualityMetrics struct {
	TotalAssignments   int     `json:"total_assignments"`
	TotalAgentHours    float64 `json:"total_agent_hours"`
	AverageEfficiency  float64 `json:"average_efficiency"`
	UnderstaffingSlots int     `json:"understaffing_slots"`
	OverstaffingSlots  int     `json:"overstaffing_slots"`
	CoveragePercentage float64 `json:"coverage_percentage"`
	FairnessIndex      float64 `json:"fairness_index"`
}

// Coverage maps queue -> hour key (HourKeyLayout) -> efficiency-weighted staffing.
type Coverage map[QueueName]map[string]float64

// Add accumulates value into the queue/hour bucket.
func (c Coverage) Add(queue QueueName, hourKey string, value float64) {
	hours, ok := c[queue]
	if !ok {
		hours = make(map[string]float64)
		c[queue] = hours
	}
	hours[hourKey] += value
}

// At returns the accumulated coverage, zero when the bucket is missing.
func (c Coverage) At(queue QueueName, hourKey string) float64 {
	return c[queue][hourKey]
}

// ScheduleOutput is the result of one optimizer run.
type ScheduleOutput struct {
	Assignments    []ScheduleAssignment `json:"assignments"`
	QualityMetrics QualityMetrics       `json:"quality_metrics"`
	Coverage       Coverage             `json:"coverage_by_queue_and_hour"`
	IsFeasible     bool                 `json:"is_feasible"`
	Warnings       []Warning            `json:"warnings"`
}

// CriticalCount returns the number of critical warnings.
func (o *ScheduleOutput) CriticalCount() int {
	n := 0
	for _, w := range o.Warnings {
		if w.Severity == SeverityCritical {
			n++
		}
	}
	return n
}
