// Package scheduler assigns agents to queue time slots with a greedy
// heuristic: slots are visited in chronological order and each queue's
// demand is filled with the best-scoring eligible agents.
package scheduler

import (
	"math"
	"sort"
	"time"

	"workforce-scheduler/models"
)

// Composite score constants.
const (
	primaryBonus      = 1.2
	fatigueHorizon    = 12.0 // consecutive hours at which the fatigue factor reaches zero
	balanceHorizon    = 10.0 // daily hours at which the balance factor reaches zero
	defaultSkillBoost = 0.5
)

// slotKey indexes demand by slot start, independent of time.Location.
type slotKey int64

func keyOf(t time.Time) slotKey { return slotKey(t.Unix()) }

// agentState tracks the hours already given to one agent during a run.
type agentState struct {
	daily       map[string]float64
	consecutive float64
	lastEnd     time.Time
}

// runningHours returns the length of the unbroken run that a slot starting
// at t would extend. A gap since the last assignment starts a new run.
func (s *agentState) runningHours(t time.Time) float64 {
	if s.lastEnd.IsZero() || !s.lastEnd.Equal(t) {
		return 0
	}
	return s.consecutive
}

type candidate struct {
	agent models.AgentID
	skill models.AgentSkill
	score float64
}

// optimizer holds the lookup tables built once per run.
type optimizer struct {
	constraints models.Constraints
	loc         *time.Location // hour and day keys of the output
	granularity time.Duration
	slotHours   float64

	availability map[models.AgentID]timeline
	skills       map[models.AgentID]map[models.QueueName]models.AgentSkill
	agentOrder   []models.AgentID
	demand       map[models.QueueName]map[slotKey]models.DemandForecast
	queueOrder   []models.QueueName
	demandOrder  []models.DemandForecast

	state map[models.AgentID]*agentState
}

// GenerateSchedule produces the assignment plan for the input window.
// Infeasible input never fails: it yields IsFeasible == false and warnings.
func GenerateSchedule(input models.ScheduleInput) *models.ScheduleOutput {
	o := newOptimizer(input)

	raw := o.assign(timeSlots(input.WindowStart, input.WindowEnd, o.granularity))
	assignments := MergeAssignments(raw)

	coverage := CalculateCoverage(assignments, o.loc)
	metrics := qualityMetrics(assignments, o.demandOrder, coverage, o.loc)
	warnings := o.validate(assignments, coverage)

	out := &models.ScheduleOutput{
		Assignments:    assignments,
		QualityMetrics: metrics,
		Coverage:       coverage,
		Warnings:       warnings,
	}
	out.IsFeasible = out.CriticalCount() == 0
	return out
}

func newOptimizer(input models.ScheduleInput) *optimizer {
	o := &optimizer{
		constraints:  input.Constraints.WithDefaults(),
		loc:          input.WindowStart.Location(),
		availability: buildTimelines(input.Availabilities),
		skills:       make(map[models.AgentID]map[models.QueueName]models.AgentSkill),
		demand:       make(map[models.QueueName]map[slotKey]models.DemandForecast),
		state:        make(map[models.AgentID]*agentState),
	}
	if input.GranularityMinutes > 0 {
		o.granularity = time.Duration(input.GranularityMinutes) * time.Minute
		o.slotHours = o.granularity.Hours()
	}

	for _, sk := range input.Skills {
		queues, ok := o.skills[sk.AgentID]
		if !ok {
			queues = make(map[models.QueueName]models.AgentSkill)
			o.skills[sk.AgentID] = queues
			o.agentOrder = append(o.agentOrder, sk.AgentID)
		}
		queues[sk.Queue] = sk
	}

	// Later forecasts for the same queue/slot replace earlier ones but keep
	// their original position.
	position := make(map[models.QueueName]map[slotKey]int)
	for _, d := range input.DemandForecasts {
		slots, ok := o.demand[d.Queue]
		if !ok {
			slots = make(map[slotKey]models.DemandForecast)
			o.demand[d.Queue] = slots
			position[d.Queue] = make(map[slotKey]int)
			o.queueOrder = append(o.queueOrder, d.Queue)
		}
		k := keyOf(d.SlotStart)
		if i, seen := position[d.Queue][k]; seen {
			o.demandOrder[i] = d
		} else {
			position[d.Queue][k] = len(o.demandOrder)
			o.demandOrder = append(o.demandOrder, d)
		}
		slots[k] = d
	}
	return o
}

// assign walks the slots chronologically and fills each queue's demand.
// Slot order matters: hour counters from earlier slots gate later ones.
func (o *optimizer) assign(slots []time.Time) []models.ScheduleAssignment {
	if o.slotHours <= 0 {
		return nil
	}

	var assignments []models.ScheduleAssignment
	for _, slot := range slots {
		busy := make(map[models.AgentID]bool)
		slotEnd := slot.Add(o.granularity)

		for _, queue := range o.queueOrder {
			d, ok := o.demand[queue][keyOf(slot)]
			if !ok {
				continue
			}
			needed := int(math.Ceil(d.RequiredFTE / o.slotHours))
			if needed <= 0 {
				continue
			}

			candidates := o.candidates(queue, slot, busy)
			sort.SliceStable(candidates, func(i, j int) bool {
				return candidates[i].score > candidates[j].score
			})
			if len(candidates) > needed {
				candidates = candidates[:needed]
			}

			for _, c := range candidates {
				assignments = append(assignments, models.ScheduleAssignment{
					AgentID:         c.agent,
					Queue:           queue,
					Start:           slot,
					End:             slotEnd,
					EfficiencyScore: c.skill.EfficiencyCoefficient,
					Type:            assignmentType(c.skill),
				})
				o.record(c.agent, slot, slotEnd)
				busy[c.agent] = true
			}
		}
	}
	return assignments
}

// candidates returns the agents eligible for queue at slot, scored.
func (o *optimizer) candidates(queue models.QueueName, slot time.Time, busy map[models.AgentID]bool) []candidate {
	day := slot.Format(models.DayKeyLayout)

	var out []candidate
	for _, agent := range o.agentOrder {
		skill, ok := o.skills[agent][queue]
		if !ok || busy[agent] {
			continue
		}
		if !o.availability[agent].availableAt(slot) {
			continue
		}

		var daily, running float64
		if st, ok := o.state[agent]; ok {
			daily = st.daily[day]
			running = st.runningHours(slot)
		}
		if daily+o.slotHours > o.constraints.MaxHoursPerDay {
			continue
		}
		if running+o.slotHours > o.constraints.MaxConsecutiveHours {
			continue
		}

		out = append(out, candidate{
			agent: agent,
			skill: skill,
			score: CompositeScore(skill, daily, running, o.constraints.EfficiencyWeight),
		})
	}
	return out
}

func (o *optimizer) record(agent models.AgentID, slot, slotEnd time.Time) {
	st, ok := o.state[agent]
	if !ok {
		st = &agentState{daily: make(map[string]float64)}
		o.state[agent] = st
	}
	st.daily[slot.Format(models.DayKeyLayout)] += o.slotHours
	st.consecutive = st.runningHours(slot) + o.slotHours
	st.lastEnd = slotEnd
}

// CompositeScore ranks a candidate. Fatigue and balance factors fall below
// zero past their horizons, which simply ranks such agents last.
func CompositeScore(skill models.AgentSkill, dailyHours, consecutiveHours, efficiencyWeight float64) float64 {
	bonus := 1.0
	if skill.IsPrimary {
		bonus = primaryBonus
	}
	fatigue := 1 - consecutiveHours/fatigueHorizon
	balance := 1 - dailyHours/balanceHorizon
	return skill.EfficiencyCoefficient * efficiencyWeight * skillMultiplier(skill.SkillLevel) * bonus * fatigue * balance
}

func skillMultiplier(level int) float64 {
	switch level {
	case 3:
		return 1.5
	case 2:
		return 1.0
	case 1:
		return 0.7
	default:
		return defaultSkillBoost
	}
}

func assignmentType(skill models.AgentSkill) models.AssignmentType {
	if skill.IsPrimary {
		return models.AssignmentPrimary
	}
	return models.AssignmentSecondary
}

func timeSlots(start, end time.Time, step time.Duration) []time.Time {
	if step <= 0 {
		return nil
	}
	var slots []time.Time
	for t := start; t.Before(end); t = t.Add(step) {
		slots = append(slots, t)
	}
	return slots
}
