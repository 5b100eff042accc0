// Package forecaster turns historical call volumes into a staffing curve.
//
// The forecast for a slot is a moving average over the same weekday and
// time of day in the preceding weeks, converted to full-time equivalents
// with a workload model (calls x handle time over productive agent time,
// inflated by shrinkage).
package forecaster

import (
	"math"
	"sort"
	"time"

	"workforce-scheduler/models"
)

// Algorithm is the name recorded in forecast metadata.
const Algorithm = "moving_average"

// NoDataWarning is recorded when no historical sample matched the slot.
const NoDataWarning = "No historical data available for this time slot"

// confidenceStdDevs is the half-width of the interval in standard deviations.
const confidenceStdDevs = 1.5

// Forecast estimates the staffing need of a single queue slot.
// It never fails: a slot without matching history yields a zero forecast.
func Forecast(req models.ForecastRequest) models.ForecastResult {
	matches := matchingSamples(req)
	if len(matches) == 0 {
		return emptyForecast(req)
	}

	calls := make([]float64, len(matches))
	history := make([]int, len(matches))
	handle := make([]float64, len(matches))
	for i, s := range matches {
		calls[i] = float64(s.CallCount)
		history[i] = s.CallCount
		handle[i] = s.AverageHandleTimeSeconds
	}

	forecasted := mean(calls)
	aht := mean(handle)
	stddev := populationStdDev(calls)
	required := RequiredFTE(forecasted, aht, req)
	lower, upper := confidenceBounds(forecasted, stddev, aht, req)

	return models.ForecastResult{
		Queue:              req.Queue,
		SlotStart:          req.SlotStart,
		SlotEnd:            req.SlotEnd(),
		ForecastedCalls:    forecasted,
		AvgHandleTimeSecs:  aht,
		RequiredFTE:        required,
		ConfidenceLowerFTE: lower,
		ConfidenceUpperFTE: upper,
		SampleCountUsed:    len(matches),
		StandardDeviation:  stddev,
		Metadata: models.ForecastMetadata{
			Algorithm:       Algorithm,
			LookbackWeeks:   req.LookbackWeeks,
			HistoricalCalls: history,
		},
	}
}

// RequiredFTE converts a call volume into full-time equivalents for the
// request's slot length, occupancy and shrinkage.
func RequiredFTE(calls, avgHandleTimeSeconds float64, req models.ForecastRequest) float64 {
	if calls <= 0 {
		return 0
	}
	available := float64(req.GranularityMinutes) * 60 * req.TargetOccupancy
	if available <= 0 {
		return 0
	}
	raw := calls * avgHandleTimeSeconds / available

	switch {
	case req.ShrinkageFactor >= 1:
		// no productive time left: no finite staffing covers the volume
		return math.Inf(1)
	case req.ShrinkageFactor <= 0:
		return raw
	}
	return raw / (1 - req.ShrinkageFactor)
}

// matchingSamples keeps the samples of the same queue, weekday and time of
// day inside the lookback window, newest first, at most one per lookback week.
func matchingSamples(req models.ForecastRequest) []models.HistoricalSample {
	if req.LookbackWeeks <= 0 {
		return nil
	}
	target := req.SlotStart
	loc := target.Location()
	weekday := models.ISOWeekday(target)
	cutoff := target.AddDate(0, 0, -7*req.LookbackWeeks)

	var matches []models.HistoricalSample
	for _, s := range req.Samples {
		if s.Queue != req.Queue {
			continue
		}
		local := s
		local.Timestamp = s.Timestamp.In(loc)
		if local.DayOfWeek() != weekday || local.Hour() != target.Hour() || local.Minute() != target.Minute() {
			continue
		}
		if local.Timestamp.Before(cutoff) || !local.Timestamp.Before(target) {
			continue
		}
		matches = append(matches, s)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Timestamp.After(matches[j].Timestamp)
	})
	if len(matches) > req.LookbackWeeks {
		matches = matches[:req.LookbackWeeks]
	}
	return matches
}

func confidenceBounds(calls, stddev, aht float64, req models.ForecastRequest) (float64, float64) {
	var lowerCalls, upperCalls float64
	if stddev > 0 {
		lowerCalls = math.Max(0, calls-confidenceStdDevs*stddev)
		upperCalls = calls + confidenceStdDevs*stddev
	} else {
		lowerCalls = calls * (1 - req.ConfidenceIntervalPct)
		upperCalls = calls * (1 + req.ConfidenceIntervalPct)
	}
	return RequiredFTE(lowerCalls, aht, req), RequiredFTE(upperCalls, aht, req)
}

func emptyForecast(req models.ForecastRequest) models.ForecastResult {
	return models.ForecastResult{
		Queue:     req.Queue,
		SlotStart: req.SlotStart,
		SlotEnd:   req.SlotEnd(),
		Metadata: models.ForecastMetadata{
			Algorithm: Algorithm,
			Warning:   NoDataWarning,
		},
	}
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func populationStdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	sq := 0.0
	for _, v := range values {
		d := v - m
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(values)))
}

// slotStarts enumerates [start, end) in steps of granularity minutes.
func slotStarts(start, end time.Time, granularityMinutes int) []time.Time {
	if granularityMinutes <= 0 || !end.After(start) {
		return nil
	}
	step := time.Duration(granularityMinutes) * time.Minute
	var slots []time.Time
	for t := start; t.Before(end); t = t.Add(step) {
		slots = append(slots, t)
	}
	return slots
}
