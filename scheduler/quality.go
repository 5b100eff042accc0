package scheduler

import (
	"fmt"
	"sort"
	"time"

	"workforce-scheduler/models"
)

// Coverage thresholds as fractions of required FTE.
const (
	coveredRatio  = 0.9
	criticalRatio = 0.7
)

// MergeAssignments coalesces back-to-back assignments of the same agent and
// queue into single shifts. The merged shift keeps the efficiency score and
// type of its first slot. Merging an already merged list is a no-op.
func MergeAssignments(assignments []models.ScheduleAssignment) []models.ScheduleAssignment {
	type groupKey struct {
		agent models.AgentID
		queue models.QueueName
	}

	groups := make(map[groupKey][]models.ScheduleAssignment)
	var order []groupKey
	for _, a := range assignments {
		k := groupKey{a.AgentID, a.Queue}
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], a)
	}

	merged := make([]models.ScheduleAssignment, 0, len(assignments))
	for _, k := range order {
		group := groups[k]
		sort.SliceStable(group, func(i, j int) bool { return group[i].Start.Before(group[j].Start) })

		current := group[0]
		for _, a := range group[1:] {
			if current.End.Equal(a.Start) {
				current.End = a.End
				continue
			}
			merged = append(merged, current)
			current = a
		}
		merged = append(merged, current)
	}
	return merged
}

// CalculateCoverage sums each assignment's efficiency score into every
// clock hour its time range touches. Hours are those of loc (UTC if nil),
// whatever location the assignment times carry.
func CalculateCoverage(assignments []models.ScheduleAssignment, loc *time.Location) models.Coverage {
	coverage := make(models.Coverage)
	for _, a := range assignments {
		for h := truncateToHour(a.Start.In(orUTC(loc))); h.Before(a.End); h = h.Add(time.Hour) {
			coverage.Add(a.Queue, hourKey(h, loc), a.EfficiencyScore)
		}
	}
	return coverage
}

// FairnessIndex is Jain's index over per-agent hours. It is 1 for a perfectly
// even distribution and 0 when nobody worked.
func FairnessIndex(hours map[models.AgentID]float64) float64 {
	if len(hours) == 0 {
		return 0
	}
	var sum, squares float64
	for _, h := range hours {
		sum += h
		squares += h * h
	}
	if squares == 0 {
		return 0
	}
	return sum * sum / (float64(len(hours)) * squares)
}

func qualityMetrics(assignments []models.ScheduleAssignment, demand []models.DemandForecast, coverage models.Coverage, loc *time.Location) models.QualityMetrics {
	m := models.QualityMetrics{TotalAssignments: len(assignments)}

	agentHours := make(map[models.AgentID]float64)
	var efficiency float64
	for _, a := range assignments {
		h := a.DurationHours()
		m.TotalAgentHours += h
		efficiency += a.EfficiencyScore
		agentHours[a.AgentID] += h
	}
	if len(assignments) > 0 {
		m.AverageEfficiency = efficiency / float64(len(assignments))
	}
	m.FairnessIndex = FairnessIndex(agentHours)

	covered := 0
	for _, d := range demand {
		actual := coverage.At(d.Queue, hourKey(d.SlotStart, loc))
		if actual >= d.RequiredFTE*coveredRatio {
			covered++
		}
		if actual < d.RequiredFTE {
			m.UnderstaffingSlots++
		} else if actual > d.RequiredFTE*models.DefaultOverstaffingThreshold {
			m.OverstaffingSlots++
		}
	}
	if len(demand) > 0 {
		m.CoveragePercentage = float64(covered) / float64(len(demand)) * 100
	}
	return m
}

// validate reports understaffed demand buckets and agents over the daily cap.
func (o *optimizer) validate(assignments []models.ScheduleAssignment, coverage models.Coverage) []models.Warning {
	warnings := make([]models.Warning, 0)

	for _, d := range o.demandOrder {
		key := hourKey(d.SlotStart, o.loc)
		actual := coverage.At(d.Queue, key)
		switch {
		case actual < d.RequiredFTE*criticalRatio:
			warnings = append(warnings, models.Warning{
				Severity: models.SeverityCritical,
				Message: fmt.Sprintf("Severe understaffing in queue %q at %s (%.1f FTE required, %.1f assigned)",
					d.Queue, key, d.RequiredFTE, actual),
			})
		case actual < d.RequiredFTE*coveredRatio:
			warnings = append(warnings, models.Warning{
				Severity: models.SeverityWarning,
				Message: fmt.Sprintf("Understaffing in queue %q at %s (%.1f FTE required, %.1f assigned)",
					d.Queue, key, d.RequiredFTE, actual),
			})
		}
	}

	for _, over := range DailyHours(assignments) {
		if over.Hours > o.constraints.MaxHoursPerDay {
			warnings = append(warnings, models.Warning{
				Severity: models.SeverityWarning,
				Message: fmt.Sprintf("Agent %d exceeds max hours on %s (%.1f hours assigned, max %.1f)",
					over.AgentID, over.Day, over.Hours, o.constraints.MaxHoursPerDay),
			})
		}
	}
	return warnings
}

// AgentDay is the number of hours an agent works on one calendar day.
type AgentDay struct {
	AgentID models.AgentID
	Day     string
	Hours   float64
}

// DailyHours totals assigned hours per agent and calendar day, splitting
// assignments that cross midnight. Sorted by agent, then day.
func DailyHours(assignments []models.ScheduleAssignment) []AgentDay {
	type key struct {
		agent models.AgentID
		day   string
	}
	totals := make(map[key]float64)
	for _, a := range assignments {
		for start := a.Start; start.Before(a.End); {
			end := nextMidnight(start)
			if end.After(a.End) {
				end = a.End
			}
			totals[key{a.AgentID, start.Format(models.DayKeyLayout)}] += end.Sub(start).Hours()
			start = end
		}
	}

	days := make([]AgentDay, 0, len(totals))
	for k, h := range totals {
		days = append(days, AgentDay{AgentID: k.agent, Day: k.day, Hours: h})
	}
	sort.Slice(days, func(i, j int) bool {
		if days[i].AgentID != days[j].AgentID {
			return days[i].AgentID < days[j].AgentID
		}
		return days[i].Day < days[j].Day
	})
	return days
}

// hourKey formats the clock hour of t as seen in loc (UTC if nil).
func hourKey(t time.Time, loc *time.Location) string {
	return truncateToHour(t.In(orUTC(loc))).Format(models.HourKeyLayout)
}

func orUTC(loc *time.Location) *time.Location {
	if loc == nil {
		return time.UTC
	}
	return loc
}

func truncateToHour(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, t.Location())
}

func nextMidnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day()+1, 0, 0, 0, 0, t.Location())
}
