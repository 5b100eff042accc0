package scheduler

import (
	"sort"
	"time"

	"workforce-scheduler/models"
)

// span is a half-open [start, end) interval.
type span struct {
	start time.Time
	end   time.Time
}

// timeline is a sorted list of non-overlapping spans in which an agent
// can work.
type timeline []span

// availableAt reports whether t falls inside one of the spans.
func (tl timeline) availableAt(t time.Time) bool {
	i := sort.Search(len(tl), func(i int) bool { return tl[i].end.After(t) })
	return i < len(tl) && !tl[i].start.After(t)
}

// buildTimelines normalises each agent's declared intervals into a timeline.
// Where intervals overlap with different flags, the one declared later wins.
func buildTimelines(intervals []models.AgentAvailability) map[models.AgentID]timeline {
	byAgent := make(map[models.AgentID][]models.AgentAvailability)
	for _, iv := range intervals {
		if !iv.End.After(iv.Start) {
			continue
		}
		byAgent[iv.AgentID] = append(byAgent[iv.AgentID], iv)
	}

	timelines := make(map[models.AgentID]timeline, len(byAgent))
	for agent, declared := range byAgent {
		timelines[agent] = normalise(declared)
	}
	return timelines
}

func normalise(declared []models.AgentAvailability) timeline {
	bounds := make([]time.Time, 0, 2*len(declared))
	for _, iv := range declared {
		bounds = append(bounds, iv.Start, iv.End)
	}
	sort.Slice(bounds, func(i, j int) bool { return bounds[i].Before(bounds[j]) })

	var tl timeline
	for i := 0; i+1 < len(bounds); i++ {
		segStart, segEnd := bounds[i], bounds[i+1]
		if !segEnd.After(segStart) {
			continue
		}
		if !availableIn(declared, segStart, segEnd) {
			continue
		}
		// extend the previous span when segments touch
		if n := len(tl); n > 0 && tl[n-1].end.Equal(segStart) {
			tl[n-1].end = segEnd
			continue
		}
		tl = append(tl, span{start: segStart, end: segEnd})
	}
	return tl
}

// availableIn resolves an elementary segment: the last declared interval
// covering it decides.
func availableIn(declared []models.AgentAvailability, segStart, segEnd time.Time) bool {
	for i := len(declared) - 1; i >= 0; i-- {
		iv := declared[i]
		if !iv.Start.After(segStart) && !iv.End.Before(segEnd) {
			return iv.IsAvailable
		}
	}
	return false
}
