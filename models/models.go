package models

import "time"

// HourKeyLayout formats the clock-hour bucket used by coverage maps.
const HourKeyLayout = "2006-01-02 15:00"

// DayKeyLayout formats the calendar day used for daily hour accounting.
const DayKeyLayout = "2006-01-02"

// AgentID identifies an agent across availability, skills and assignments.
type AgentID int64

// QueueName identifies a call queue.
type QueueName string

// HistoricalSample is one observed time slot of a queue.
// It is supplied by the sample store and never modified by the engine.
type HistoricalSample struct {
	Queue                    QueueName
	Timestamp                time.Time
	CallCount                int
	AverageHandleTimeSeconds float64
}

// DayOfWeek returns the ISO weekday, 1 = Monday .. 7 = Sunday.
func (s HistoricalSample) DayOfWeek() int {
	return ISOWeekday(s.Timestamp)
}

// Hour and Minute give the time of day in the timestamp's own location.
func (s HistoricalSample) Hour() int { return s.Timestamp.Hour() }

func (s HistoricalSample) Minute() int { return s.Timestamp.Minute() }

// ISOWeekday maps time.Weekday (Sunday = 0) to ISO numbering (Sunday = 7).
func ISOWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

// DemandForecast is the optimizer's view of one forecasted slot.
type DemandForecast struct {
	Queue           QueueName `json:"queue"`
	SlotStart       time.Time `json:"slot_start"`
	SlotEnd         time.Time `json:"slot_end"`
	ForecastedCalls float64   `json:"forecasted_calls"`
	RequiredFTE     float64   `json:"required_fte"`
	ConfidenceLower float64   `json:"confidence_lower"`
	ConfidenceUpper float64   `json:"confidence_upper"`
}

// AgentAvailability declares whether an agent can work during [Start, End).
type AgentAvailability struct {
	AgentID     AgentID
	Start       time.Time
	End         time.Time
	IsAvailable bool
}

// AgentSkill describes how well an agent handles a queue.
type AgentSkill struct {
	AgentID               AgentID
	Queue                 QueueName
	EfficiencyCoefficient float64
	SkillLevel            int
	IsPrimary             bool
}

// AssignmentType tells whether the assigned queue is the agent's primary one.
type AssignmentType string

const (
	AssignmentPrimary   AssignmentType = "primary"
	AssignmentSecondary AssignmentType = "secondary"
)

// ScheduleAssignment puts one agent on one queue for [Start, End).
type ScheduleAssignment struct {
	AgentID         AgentID        `json:"agent_id"`
	Queue           QueueName      `json:"queue"`
	Start           time.Time      `json:"start"`
	End             time.Time      `json:"end"`
	EfficiencyScore float64        `json:"efficiency_score"`
	Type            AssignmentType `json:"assignment_type"`
}

// DurationHours is the elapsed length of the assignment in hours.
func (a ScheduleAssignment) DurationHours() float64 {
	return a.End.Sub(a.Start).Hours()
}
